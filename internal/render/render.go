// Package render defines the contract with the external image-rendering
// engine. Compositing itself is out of scope; the pipeline only consumes the
// rendered surfaces and their exact pixel dimensions.
package render

import (
	"context"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/geometry"
	"github.com/xkilldash9x/deskgen/internal/scene"
)

// Rendered couples a surface with the encoded image rendered at exactly that
// surface's dimensions.
type Rendered struct {
	Surface geometry.Surface
	// Image holds the encoded artifact bytes; Ext is its file extension.
	Image []byte
	Ext   string
}

// Output is everything the engine rendered for one scene: the full frame
// first, then any declared crops.
type Output struct {
	Surfaces []Rendered
}

// FullFrame returns the full-frame render.
func (o *Output) FullFrame() (Rendered, error) {
	return o.Surface(geometry.FullFrameID)
}

// Surface returns the render for a given surface ID.
func (o *Output) Surface(id string) (Rendered, error) {
	for _, r := range o.Surfaces {
		if r.Surface.ID == id {
			return r, nil
		}
	}
	return Rendered{}, schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
		"no rendered surface %q in output", id)
}

// Renderer is the external compositing collaborator. Implementations must
// report the exact pixel dimensions each image was rendered at.
type Renderer interface {
	Render(ctx context.Context, st *scene.State) (*Output, error)
}
