package tasks

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/layout"
)

// iconClickGenerator emits one double-click sample per icon present in the
// scene's subset for its zone. Coordinates are normalized on the full-frame
// surface; crop-relative coordinates are disallowed because they desynchronize
// from the shipped evaluation image.
type iconClickGenerator struct {
	kind schemas.TaskKind
	zone layout.Zone
}

func (g *iconClickGenerator) Kind() schemas.TaskKind { return g.kind }

func (g *iconClickGenerator) Generate(in *Input) ([]schemas.TrainingSample, error) {
	full, err := in.Output.FullFrame()
	if err != nil {
		return nil, err
	}

	var iconIDs []string
	if g.zone == layout.ZoneDesktop {
		iconIDs = in.State.DesktopIcons
	} else {
		iconIDs = in.State.TaskbarIcons
	}

	samples := make([]schemas.TrainingSample, 0, len(iconIDs))
	for _, id := range iconIDs {
		el, ok := in.Catalog.Element(id)
		if !ok {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
				"scene references icon %q absent from the layout catalog", id)
		}

		cx, cy := el.BBox.Center()
		pt, err := full.Surface.UnitPoint(cx, cy)
		if err != nil {
			return nil, err
		}
		tol := full.Surface.UnitExtent(el.BBox.W/2, el.BBox.H/2)

		prompt := strings.ReplaceAll(pickTemplate(in, g.kind), placeholderIconLabel, labelOf(el))

		sample, err := newSample(
			fmt.Sprintf("sample_%05d_%s_%s", in.Round, g.zone, el.ID),
			g.kind,
			prompt,
			schemas.Action{Kind: schemas.ActionDoubleClick, Tolerance: &tol},
			&pt,
			full,
			in,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// labelOf prefers the authored label, falling back to the element ID.
func labelOf(el layout.Element) string {
	if el.Label != "" {
		return el.Label
	}
	return el.ID
}
