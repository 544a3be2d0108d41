package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUnits(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		pixel    int
		dim      int
		expected int
	}{
		{"Origin", 0, 1920, 0},
		{"Full extent", 1920, 1920, 1000},
		{"Midpoint", 960, 1920, 500},
		{"Rounds up", 959, 1000, 959},
		{"Rounds half away from zero", 1, 2000, 1},
		{"Small dimension", 3, 4, 750},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ToUnits(tc.pixel, tc.dim))
		})
	}
}

// Round-tripping every in-range pixel through unit space must land within
// half the pixels-per-unit quantization step.
func TestToUnits_RoundTripBound(t *testing.T) {
	t.Parallel()

	for _, dim := range []int{640, 1080, 1920, 3000} {
		step := float64(dim) / float64(UnitScale)
		maxDrift := int(step/2) + 1
		for p := 0; p < dim; p++ {
			back := ToPixel(ToUnits(p, dim), dim)
			if diff := back - p; diff > maxDrift || diff < -maxDrift {
				t.Fatalf("dim=%d pixel=%d round-tripped to %d (drift %d, allowed %d)",
					dim, p, back, diff, maxDrift)
			}
		}
	}
}

func TestNewFullFrame(t *testing.T) {
	t.Parallel()

	s, err := NewFullFrame(1920, 1080)
	require.NoError(t, err)
	assert.Equal(t, FullFrameID, s.ID)
	assert.Equal(t, 1920, s.Width)

	_, err = NewFullFrame(0, 1080)
	assert.Error(t, err)
	_, err = NewFullFrame(1920, -1)
	assert.Error(t, err)
}

func TestNewCrop(t *testing.T) {
	t.Parallel()

	full, err := NewFullFrame(1920, 1080)
	require.NoError(t, err)

	t.Run("valid crop", func(t *testing.T) {
		crop, err := NewCrop("taskbar", full, BBox{X: 0, Y: 1040, W: 1920, H: 40})
		require.NoError(t, err)
		assert.Equal(t, "taskbar", crop.ID)
		assert.Equal(t, 1040, crop.OriginY)
	})

	t.Run("crop outside parent", func(t *testing.T) {
		_, err := NewCrop("bad", full, BBox{X: 1900, Y: 0, W: 100, H: 100})
		require.Error(t, err)
	})

	t.Run("degenerate crop", func(t *testing.T) {
		_, err := NewCrop("empty", full, BBox{X: 0, Y: 0, W: 0, H: 10})
		require.Error(t, err)
	})
}

func TestSurfaceUnitPoint(t *testing.T) {
	t.Parallel()

	full, err := NewFullFrame(1920, 1080)
	require.NoError(t, err)
	crop, err := NewCrop("taskbar", full, BBox{X: 0, Y: 1040, W: 1920, H: 40})
	require.NoError(t, err)

	t.Run("full frame normalization", func(t *testing.T) {
		pt, err := full.UnitPoint(960, 540)
		require.NoError(t, err)
		assert.Equal(t, UnitPoint{Surface: FullFrameID, X: 500, Y: 500}, pt)
	})

	t.Run("crop normalizes against crop extent", func(t *testing.T) {
		// The same absolute pixel yields a different unit value on the crop,
		// which is exactly why points carry their surface tag.
		pt, err := crop.UnitPoint(960, 1060)
		require.NoError(t, err)
		assert.Equal(t, "taskbar", pt.Surface)
		assert.Equal(t, 500, pt.X)
		assert.Equal(t, 500, pt.Y)
	})

	t.Run("pixel outside surface rejected", func(t *testing.T) {
		_, err := crop.UnitPoint(960, 540)
		require.Error(t, err)
	})
}

func TestPixelOf_RefusesForeignSurface(t *testing.T) {
	t.Parallel()

	full, err := NewFullFrame(1920, 1080)
	require.NoError(t, err)
	crop, err := NewCrop("panel", full, BBox{X: 100, Y: 100, W: 400, H: 300})
	require.NoError(t, err)

	pt, err := full.UnitPoint(200, 200)
	require.NoError(t, err)

	_, _, err = crop.PixelOf(pt)
	require.Error(t, err, "a full-frame point must not denormalize on a crop")

	x, y, err := full.PixelOf(pt)
	require.NoError(t, err)
	assert.InDelta(t, 200, x, 1)
	assert.InDelta(t, 200, y, 1)
}

func TestBBoxCenter(t *testing.T) {
	t.Parallel()

	b := BBox{X: 10, Y: 20, W: 30, H: 40}
	cx, cy := b.Center()
	assert.Equal(t, 25, cx)
	assert.Equal(t, 40, cy)
}
