// Package tasks holds the per-task-kind sample generators and the registry
// that dispatches on task kind. Adding a kind means implementing Generator
// and registering it; the assembler never branches on kinds itself.
package tasks

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/geometry"
	"github.com/xkilldash9x/deskgen/internal/layout"
	"github.com/xkilldash9x/deskgen/internal/render"
	"github.com/xkilldash9x/deskgen/internal/scene"
)

// Options carries generator knobs resolved from configuration.
type Options struct {
	// WaitSpatialTargets controls whether wait samples carry the normalized
	// location of the visible loading indicator.
	WaitSpatialTargets bool
	// WaitMinSeconds / WaitMaxSeconds bound the drawn wait duration.
	WaitMinSeconds float64
	WaitMaxSeconds float64
}

// Input is everything a generator needs for one generation round. The scene
// state and catalog are read-only; the RNG is the single run stream and must
// be consumed in a deterministic order.
type Input struct {
	State   *scene.State
	Catalog *layout.Catalog
	Output  *render.Output
	RNG     *rand.Rand
	// Round is the generation round index, used for stable sample IDs.
	Round int
	// ImagePath is the dataset-relative path of the shipped full-frame image.
	ImagePath string
	Options   Options
}

// Generator turns one scene plus its rendered surfaces into training samples.
// An empty result with a nil error is ordinary control flow (e.g. the wait
// generator on a scene whose loading flag is false).
type Generator interface {
	Kind() schemas.TaskKind
	Generate(in *Input) ([]schemas.TrainingSample, error)
}

// Registry maps task kinds to their generators.
type Registry struct {
	log  *zap.Logger
	gens map[schemas.TaskKind]Generator
}

// NewRegistry builds a registry with every default generator registered.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		log:  logger.With(zap.String("component", "task_registry")),
		gens: make(map[schemas.TaskKind]Generator),
	}
	r.register(&iconClickGenerator{kind: schemas.TaskClickDesktopIcon, zone: layout.ZoneDesktop})
	r.register(&iconClickGenerator{kind: schemas.TaskClickTaskbarIcon, zone: layout.ZoneTaskbar})
	r.register(&iconListGenerator{})
	r.register(&waitGenerator{})
	r.log.Debug("Default sample generators registered", zap.Int("count", len(r.gens)))
	return r
}

func (r *Registry) register(g Generator) {
	r.gens[g.Kind()] = g
}

// Generator returns the generator for a kind, failing with a configuration
// error for unknown kinds.
func (r *Registry) Generator(kind schemas.TaskKind) (Generator, error) {
	g, ok := r.gens[kind]
	if !ok {
		return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
			"no generator registered for task kind %q", kind)
	}
	return g, nil
}

// newSample assembles a TrainingSample, enforcing that the coordinate's
// surface tag agrees with the surface the shipped image was rendered at.
// Coordinate may be nil for non-spatial actions.
func newSample(
	id string,
	kind schemas.TaskKind,
	prompt string,
	action schemas.Action,
	pt *geometry.UnitPoint,
	shipped render.Rendered,
	in *Input,
) (schemas.TrainingSample, error) {
	if pt != nil {
		if pt.Surface != shipped.Surface.ID {
			return schemas.TrainingSample{}, schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
				"sample %s: coordinate normalized for surface %q but shipped image is %q",
				id, pt.Surface, shipped.Surface.ID)
		}
		action.Coordinate = pt.Coordinate()
	}
	return schemas.TrainingSample{
		ID:          id,
		Kind:        kind,
		Prompt:      prompt,
		Action:      action,
		Image:       in.ImagePath,
		Surface:     shipped.Surface.ID,
		DisjointKey: in.State.DisjointKey(),
	}, nil
}

// pickTemplate draws one prompt template, preferring the authored catalog
// templates and falling back to built-in defaults. Consumes one RNG draw.
func pickTemplate(in *Input, kind schemas.TaskKind) string {
	templates := in.Catalog.Prompts(kind)
	if len(templates) == 0 {
		templates = defaultPrompts[kind]
	}
	return templates[in.RNG.Intn(len(templates))]
}
