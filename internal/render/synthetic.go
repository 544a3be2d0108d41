package render

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/xkilldash9x/deskgen/internal/geometry"
	"github.com/xkilldash9x/deskgen/internal/layout"
	"github.com/xkilldash9x/deskgen/internal/scene"
)

// Synthetic is a deterministic stand-in for the real compositing engine. It
// fabricates opaque artifact bytes derived from the scene state, at the exact
// dimensions the catalog declares, so the rest of the pipeline exercises real
// surface handling without any drawing. The bytes are content-addressed:
// identical scenes yield identical artifacts.
type Synthetic struct {
	cat *layout.Catalog
	// cropRegions names region elements to expose as crop surfaces.
	cropRegions []string
}

// NewSynthetic builds a synthetic renderer over a catalog. Any named region
// elements are additionally rendered as crop surfaces.
func NewSynthetic(cat *layout.Catalog, cropRegions ...string) *Synthetic {
	return &Synthetic{cat: cat, cropRegions: cropRegions}
}

// Render fabricates the full frame and any configured crop surfaces.
func (r *Synthetic) Render(_ context.Context, st *scene.State) (*Output, error) {
	w, h := r.cat.ScreenSize()
	full, err := geometry.NewFullFrame(w, h)
	if err != nil {
		return nil, err
	}

	out := &Output{Surfaces: []Rendered{{
		Surface: full,
		Image:   artifact(full, st),
		Ext:     "png",
	}}}

	for _, id := range r.cropRegions {
		el, ok := r.cat.Element(id)
		if !ok {
			return nil, fmt.Errorf("crop region %q not in catalog", id)
		}
		crop, err := geometry.NewCrop(id, full, el.BBox)
		if err != nil {
			return nil, err
		}
		out.Surfaces = append(out.Surfaces, Rendered{
			Surface: crop,
			Image:   artifact(crop, st),
			Ext:     "png",
		})
	}
	return out, nil
}

// artifact derives deterministic placeholder bytes from a surface and state.
func artifact(s geometry.Surface, st *scene.State) []byte {
	h := sha256.New()
	h.Write([]byte(s.ID))
	h.Write([]byte(strings.Join(st.DesktopIcons, ",")))
	h.Write([]byte(strings.Join(st.TaskbarIcons, ",")))
	h.Write([]byte(st.ClockText()))
	if st.LoadingVisible {
		h.Write([]byte("loading"))
	}

	buf := make([]byte, 0, 16+sha256.Size)
	buf = append(buf, []byte("DESKGEN0")...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(s.Width))
	buf = binary.BigEndian.AppendUint32(buf, uint32(s.Height))
	return h.Sum(buf)
}
