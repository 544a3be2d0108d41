// Package dataset assembles generated samples into the persisted dataset
// package: images, line-delimited indices, partitions, and the run-config
// record.
package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/config"
	"github.com/xkilldash9x/deskgen/internal/layout"
	"github.com/xkilldash9x/deskgen/internal/render"
	"github.com/xkilldash9x/deskgen/internal/scene"
	"github.com/xkilldash9x/deskgen/internal/tasks"
)

// Version identifies the dataset package format produced by this code.
const Version = "1.0"

// Result is an assembled dataset: its directory, the persisted run-config
// record, and the final sample list with split tags.
type Result struct {
	Dir       string
	RunConfig schemas.RunConfig
	Samples   []schemas.TrainingSample
}

// Assembler drains per-task quotas into a persisted dataset directory.
type Assembler struct {
	cfg      *config.Config
	cat      *layout.Catalog
	renderer render.Renderer
	reg      *tasks.Registry
	log      *zap.Logger
}

// New creates an assembler over the given collaborators.
func New(cfg *config.Config, cat *layout.Catalog, renderer render.Renderer, reg *tasks.Registry, logger *zap.Logger) *Assembler {
	return &Assembler{
		cfg:      cfg,
		cat:      cat,
		renderer: renderer,
		reg:      reg,
		log:      logger.With(zap.String("component", "assembler")),
	}
}

// Assemble runs the full generation pass. Any generation-time error aborts
// the run; the run-config record is written last, so an interrupted or failed
// run never leaves a directory that looks valid.
func (a *Assembler) Assemble(ctx context.Context) (*Result, error) {
	counts, err := a.cfg.TaskCounts()
	if err != nil {
		return nil, err
	}
	start, end, err := a.cfg.Generator.DatetimeRange()
	if err != nil {
		return nil, err
	}
	params := scene.Params{
		DesktopMinFrac:     a.cfg.Generator.DesktopMinFrac,
		TaskbarMinFrac:     a.cfg.Generator.TaskbarMinFrac,
		LoadingProbability: a.cfg.Generator.LoadingProbability,
		Start:              start,
		End:                end,
	}
	opts := tasks.Options{
		WaitSpatialTargets: a.cfg.Generator.WaitSpatialTargets,
		WaitMinSeconds:     a.cfg.Generator.WaitMinSeconds,
		WaitMaxSeconds:     a.cfg.Generator.WaitMaxSeconds,
	}

	name := a.datasetName()
	dir := filepath.Join(a.cfg.Dataset.OutputDir, name)
	for _, sub := range []string{"images", filepath.Join("test", "images")} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating dataset directory: %w", err)
		}
	}

	a.log.Info("Starting dataset assembly",
		zap.String("dataset", name),
		zap.Int64("seed", a.cfg.Generator.Seed),
		zap.Any("task_counts", counts),
	)

	// The single RNG stream for the whole run. Scene sampling, prompt and
	// duration draws, the shuffle, and the test-key draw all consume from it
	// strictly in call order.
	rng := rand.New(rand.NewSource(a.cfg.Generator.Seed))

	var all []schemas.TrainingSample
	round := 0
	for _, kind := range schemas.AllTaskKinds() {
		n, ok := counts[kind]
		if !ok || n == 0 {
			continue
		}
		gen, err := a.reg.Generator(kind)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("assembly aborted: %w", err)
			}
			st, err := scene.Sample(rng, a.cat, params, round)
			if err != nil {
				return nil, err
			}
			// Wait rounds exist to teach the wait action, so the loading
			// indicator is rendered regardless of the sampled flag. The flag
			// draw still happened, keeping the stream aligned across kinds.
			if kind == schemas.TaskWaitLoading && !st.LoadingVisible {
				forced := *st
				forced.LoadingVisible = true
				st = &forced
			}

			out, err := a.renderer.Render(ctx, st)
			if err != nil {
				return nil, fmt.Errorf("rendering round %d: %w", round, err)
			}
			full, err := out.FullFrame()
			if err != nil {
				return nil, err
			}

			imgRel := filepath.Join("images", fmt.Sprintf("sample_%05d.%s", round, full.Ext))
			if err := os.WriteFile(filepath.Join(dir, imgRel), full.Image, 0o644); err != nil {
				return nil, fmt.Errorf("writing image for round %d: %w", round, err)
			}

			samples, err := gen.Generate(&tasks.Input{
				State:     st,
				Catalog:   a.cat,
				Output:    out,
				RNG:       rng,
				Round:     round,
				ImagePath: imgRel,
				Options:   opts,
			})
			if err != nil {
				return nil, err
			}
			all = append(all, samples...)
			round++
		}
	}

	rng.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})

	testKeys, err := a.partition(rng, all)
	if err != nil {
		return nil, err
	}
	if err := a.relocateTestImages(dir, all); err != nil {
		return nil, err
	}
	if err := validateSamples(dir, all); err != nil {
		return nil, err
	}

	if err := persistIndices(dir, all); err != nil {
		return nil, err
	}

	rc := schemas.RunConfig{
		RunID:      uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("deskgen/%s/%d/%s", name, a.cfg.Generator.Seed, Version))).String(),
		Name:       name,
		Version:    Version,
		Seed:       a.cfg.Generator.Seed,
		Counts:     counts,
		TrainRatio: a.cfg.Dataset.TrainRatio,
		TestKeys:   len(testKeys),
		KeyKind:    "scene-date",
	}
	if err := persistRunConfig(dir, rc); err != nil {
		return nil, err
	}

	a.log.Info("Dataset assembly complete",
		zap.String("dir", dir),
		zap.Int("samples", len(all)),
		zap.Int("test_keys", len(testKeys)),
	)
	return &Result{Dir: dir, RunConfig: rc, Samples: all}, nil
}

// partition assigns split tags in place. The held-out test partition is drawn
// by disjointness key so no key value appears on both sides of the boundary;
// the remaining samples split train/val by the configured ratio in shuffled
// order. Returns the chosen test keys.
func (a *Assembler) partition(rng *rand.Rand, all []schemas.TrainingSample) ([]string, error) {
	testSet := make(map[string]bool)
	var chosen []string

	if want := a.cfg.Dataset.TestKeys; want > 0 {
		keySet := make(map[string]bool)
		for i := range all {
			keySet[all[i].DisjointKey] = true
		}
		keys := make([]string, 0, len(keySet))
		for k := range keySet {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) <= want {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
				"cannot hold out %d disjointness keys: only %d distinct keys in run", want, len(keys))
		}
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		chosen = keys[:want]
		sort.Strings(chosen)
		for _, k := range chosen {
			testSet[k] = true
		}
	}

	var restIdx []int
	for i := range all {
		if testSet[all[i].DisjointKey] {
			all[i].Split = schemas.SplitTest
		} else {
			restIdx = append(restIdx, i)
		}
	}

	trainN := int(float64(len(restIdx)) * a.cfg.Dataset.TrainRatio)
	for pos, i := range restIdx {
		if pos < trainN {
			all[i].Split = schemas.SplitTrain
		} else {
			all[i].Split = schemas.SplitVal
		}
	}
	return chosen, nil
}

// relocateTestImages moves images referenced only by test samples under
// test/images/ and rewrites the sample paths. Images are shared within a
// generation round, and a round carries a single disjointness key, so an
// image never straddles the partition boundary.
func (a *Assembler) relocateTestImages(dir string, all []schemas.TrainingSample) error {
	moved := make(map[string]string)
	for i := range all {
		if all[i].Split != schemas.SplitTest {
			continue
		}
		old := all[i].Image
		newRel, ok := moved[old]
		if !ok {
			newRel = filepath.Join("test", "images", filepath.Base(old))
			if err := os.Rename(filepath.Join(dir, old), filepath.Join(dir, newRel)); err != nil {
				return fmt.Errorf("relocating test image %s: %w", old, err)
			}
			moved[old] = newRel
		}
		all[i].Image = newRel
	}
	return nil
}

// validateSamples enforces the persistence schema: every sample carries a
// tolerance and its image path resolves inside the dataset directory.
func validateSamples(dir string, all []schemas.TrainingSample) error {
	for i := range all {
		s := &all[i]
		if s.Action.Tolerance == nil {
			return schemas.NewPipelineError(schemas.ErrCodeSchemaViolation,
				"sample %s has no tolerance", s.ID)
		}
		if _, err := os.Stat(filepath.Join(dir, s.Image)); err != nil {
			return schemas.WrapPipelineError(schemas.ErrCodeSchemaViolation, err,
				"sample %s image path %q does not resolve", s.ID, s.Image)
		}
	}
	return nil
}

// datasetName returns the configured name or a researcher-stamped default.
func (a *Assembler) datasetName() string {
	if a.cfg.Dataset.Name != "" {
		return a.cfg.Dataset.Name
	}
	stamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("desktop--%s--%s", a.cfg.Dataset.Researcher, stamp)
}
