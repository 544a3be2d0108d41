package tasks

import (
	"fmt"
	"math"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/geometry"
	"github.com/xkilldash9x/deskgen/internal/render"
)

// waitGenerator emits a wait sample when the scene's loading indicator is
// visible. On scenes without the indicator it emits nothing; that is ordinary
// control flow, not an error.
//
// The coordinate policy is configurable. With spatial targets enabled the
// sample carries the full-frame-normalized center of the visible indicator
// and its half-extent tolerance. Otherwise the coordinate is omitted
// entirely. In neither mode does a placeholder pair masquerade as a real
// target: an all-zero coordinate with zero tolerance teaches no spatial
// signal and is indistinguishable from a valid top-left location.
type waitGenerator struct{}

func (g *waitGenerator) Kind() schemas.TaskKind { return schemas.TaskWaitLoading }

func (g *waitGenerator) Generate(in *Input) ([]schemas.TrainingSample, error) {
	if !in.State.LoadingVisible {
		return nil, nil
	}

	full, err := in.Output.FullFrame()
	if err != nil {
		return nil, err
	}

	// Draw order: prompt template, then duration.
	prompt := pickTemplate(in, g.Kind())

	span := in.Options.WaitMaxSeconds - in.Options.WaitMinSeconds
	duration := in.Options.WaitMinSeconds + in.RNG.Float64()*span
	duration = math.Round(duration*10) / 10

	action := schemas.Action{Kind: schemas.ActionWait, Duration: &duration}

	if !in.Options.WaitSpatialTargets {
		// Explicit no-spatial-target form: nil coordinate, zero tolerance.
		action.Tolerance = &[2]int{0, 0}
		return g.emit(in, prompt, action, nil, full)
	}

	indicator, ok := in.Catalog.LoadingIndicator()
	if !ok {
		return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
			"wait_spatial_targets is enabled but the annotation declares no loading indicator")
	}
	cx, cy := indicator.BBox.Center()
	pt, err := full.Surface.UnitPoint(cx, cy)
	if err != nil {
		return nil, err
	}
	tol := full.Surface.UnitExtent(indicator.BBox.W/2, indicator.BBox.H/2)
	action.Tolerance = &tol
	return g.emit(in, prompt, action, &pt, full)
}

func (g *waitGenerator) emit(in *Input, prompt string, action schemas.Action, pt *geometry.UnitPoint, full render.Rendered) ([]schemas.TrainingSample, error) {
	sample, err := newSample(
		fmt.Sprintf("sample_%05d_wait", in.Round),
		g.Kind(),
		prompt,
		action,
		pt,
		full,
		in,
	)
	if err != nil {
		return nil, err
	}
	return []schemas.TrainingSample{sample}, nil
}
