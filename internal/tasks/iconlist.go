package tasks

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/deskgen/api/schemas"
)

// iconListGenerator emits one left-click sample per desktop icon, with a
// prompt that enumerates the visible icons in placement order. The listing
// keeps prompt and scene consistent: a reader can check both the target label
// and its position in the enumeration against the image.
type iconListGenerator struct{}

func (g *iconListGenerator) Kind() schemas.TaskKind { return schemas.TaskIconListClick }

func (g *iconListGenerator) Generate(in *Input) ([]schemas.TrainingSample, error) {
	full, err := in.Output.FullFrame()
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(in.State.DesktopIcons))
	for _, id := range in.State.DesktopIcons {
		el, ok := in.Catalog.Element(id)
		if !ok {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
				"scene references icon %q absent from the layout catalog", id)
		}
		labels = append(labels, labelOf(el))
	}
	listing := strings.Join(labels, ", ")

	samples := make([]schemas.TrainingSample, 0, len(in.State.DesktopIcons))
	for i, id := range in.State.DesktopIcons {
		el, _ := in.Catalog.Element(id)

		cx, cy := el.BBox.Center()
		pt, err := full.Surface.UnitPoint(cx, cy)
		if err != nil {
			return nil, err
		}
		tol := full.Surface.UnitExtent(el.BBox.W/2, el.BBox.H/2)

		prompt := pickTemplate(in, g.Kind())
		prompt = strings.ReplaceAll(prompt, placeholderIconList, listing)
		prompt = strings.ReplaceAll(prompt, placeholderIconLabel, labels[i])

		sample, err := newSample(
			fmt.Sprintf("sample_%05d_iconlist_%s", in.Round, el.ID),
			g.Kind(),
			prompt,
			schemas.Action{Kind: schemas.ActionLeftClick, Tolerance: &tol},
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
