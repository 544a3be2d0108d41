// Package geometry implements pixel <-> unit coordinate conversion and the
// surface-tagged coordinate types used by every sample generator.
//
// A unit coordinate lives in [0,1000] and is independent of a surface's pixel
// dimensions. Every unit coordinate is tagged with the ID of the surface it
// was normalized against; a sample whose coordinate tag disagrees with the
// surface of its shipped image cannot be constructed.
package geometry

import (
	"math"

	"github.com/xkilldash9x/deskgen/api/schemas"
)

// UnitScale is the extent of the normalized coordinate space.
const UnitScale = 1000

// FullFrameID is the surface ID of the uncropped render.
const FullFrameID = "full_frame"

// ToUnits converts a pixel offset to a unit coordinate against a surface
// dimension. The caller must guarantee dim > 0; surfaces enforce this at
// construction.
func ToUnits(pixel, dim int) int {
	return int(math.Round(float64(pixel) / float64(dim) * UnitScale))
}

// ToPixel is the approximate inverse of ToUnits.
func ToPixel(unit, dim int) int {
	return int(math.Round(float64(unit) / UnitScale * float64(dim)))
}

// BBox is an axis-aligned pixel bounding box in full-frame space.
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Center returns the pixel center of the box.
func (b BBox) Center() (int, int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// ContainsBox reports whether inner lies fully within b.
func (b BBox) ContainsBox(inner BBox) bool {
	return inner.X >= b.X && inner.Y >= b.Y &&
		inner.X+inner.W <= b.X+b.W && inner.Y+inner.H <= b.Y+b.H
}

// UnitPoint is a unit coordinate tagged with the surface it was normalized
// against. The tag is what turns a crop/full-frame mix-up into a
// construction-time error instead of silently corrupted training signal.
type UnitPoint struct {
	Surface string
	X       int
	Y       int
}

// Coordinate returns the point as the wire-format pair.
func (p UnitPoint) Coordinate() *[2]int {
	return &[2]int{p.X, p.Y}
}

// Surface describes one rendered image space: the full frame or a named crop
// of it. Width and Height are the exact pixel dimensions the image was
// rendered at; normalization must use these, never an assumed constant.
type Surface struct {
	ID     string
	Width  int
	Height int
	// OriginX/OriginY locate the surface within the full frame. Zero for the
	// full frame itself.
	OriginX int
	OriginY int
}

// NewFullFrame constructs the full-frame surface.
func NewFullFrame(width, height int) (Surface, error) {
	if width <= 0 || height <= 0 {
		return Surface{}, schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
			"full frame dimensions must be positive, got %dx%d", width, height)
	}
	return Surface{ID: FullFrameID, Width: width, Height: height}, nil
}

// NewCrop constructs a named crop of the full frame. The crop bounds must lie
// entirely inside the parent surface.
func NewCrop(id string, parent Surface, bounds BBox) (Surface, error) {
	if id == "" || id == FullFrameID {
		return Surface{}, schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
			"crop surface needs a distinct non-empty id, got %q", id)
	}
	if bounds.W <= 0 || bounds.H <= 0 {
		return Surface{}, schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
			"crop %q has degenerate bounds %+v", id, bounds)
	}
	frame := BBox{X: parent.OriginX, Y: parent.OriginY, W: parent.Width, H: parent.Height}
	if !frame.ContainsBox(bounds) {
		return Surface{}, schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
			"crop %q bounds %+v lie outside surface %q (%dx%d)", id, bounds, parent.ID, parent.Width, parent.Height)
	}
	return Surface{ID: id, Width: bounds.W, Height: bounds.H, OriginX: bounds.X, OriginY: bounds.Y}, nil
}

// UnitPoint normalizes an absolute full-frame pixel location into this
// surface's unit space. The location must fall inside the surface.
func (s Surface) UnitPoint(px, py int) (UnitPoint, error) {
	relX, relY := px-s.OriginX, py-s.OriginY
	if relX < 0 || relY < 0 || relX >= s.Width || relY >= s.Height {
		return UnitPoint{}, schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
			"pixel (%d,%d) is outside surface %q (origin %d,%d size %dx%d)",
			px, py, s.ID, s.OriginX, s.OriginY, s.Width, s.Height)
	}
	return UnitPoint{Surface: s.ID, X: ToUnits(relX, s.Width), Y: ToUnits(relY, s.Height)}, nil
}

// UnitExtent converts pixel extents (widths/heights, not positions) into unit
// space. Used for tolerances, which are half the bounding-box extent.
func (s Surface) UnitExtent(wpx, hpx int) [2]int {
	return [2]int{ToUnits(wpx, s.Width), ToUnits(hpx, s.Height)}
}

// PixelOf maps a unit point tagged for this surface back to absolute
// full-frame pixels. It refuses points tagged for another surface.
func (s Surface) PixelOf(p UnitPoint) (int, int, error) {
	if p.Surface != s.ID {
		return 0, 0, schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
			"unit point is tagged for surface %q, not %q", p.Surface, s.ID)
	}
	return s.OriginX + ToPixel(p.X, s.Width), s.OriginY + ToPixel(p.Y, s.Height), nil
}
