package tasks

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/geometry"
	"github.com/xkilldash9x/deskgen/internal/layout"
	"github.com/xkilldash9x/deskgen/internal/render"
	"github.com/xkilldash9x/deskgen/internal/scene"
)

const annotationDoc = `{
	"version": "1",
	"screen": {"width": 1920, "height": 1080},
	"elements": [
		{"id": "recycle_bin", "kind": "icon", "zone": "desktop", "label": "Recycle Bin", "required": true, "bbox": {"x": 20, "y": 20, "w": 64, "h": 64}},
		{"id": "notes", "kind": "icon", "zone": "desktop", "label": "Notes", "bbox": {"x": 20, "y": 120, "w": 64, "h": 64}},
		{"id": "start", "kind": "icon", "zone": "taskbar", "label": "Start", "required": true, "bbox": {"x": 0, "y": 1040, "w": 40, "h": 40}},
		{"id": "od_loading", "kind": "region", "bbox": {"x": 760, "y": 440, "w": 400, "h": 200}}
	],
	"loading_indicator_id": "od_loading"
}`

func newTestInput(t *testing.T, st *scene.State, opts Options) *Input {
	t.Helper()
	cat, err := layout.Parse([]byte(annotationDoc))
	require.NoError(t, err)

	out, err := render.NewSynthetic(cat).Render(context.Background(), st)
	require.NoError(t, err)

	return &Input{
		State:     st,
		Catalog:   cat,
		Output:    out,
		RNG:       rand.New(rand.NewSource(9)),
		Round:     3,
		ImagePath: "images/sample_00003.png",
		Options:   opts,
	}
}

func testState() *scene.State {
	return &scene.State{
		DesktopIcons: []string{"recycle_bin", "notes"},
		TaskbarIcons: []string{"start"},
		Timestamp:    time.Date(2024, 5, 20, 10, 30, 0, 0, time.UTC),
	}
}

func TestRegistry_CoversAllKinds(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(zap.NewNop())
	for _, kind := range schemas.AllTaskKinds() {
		g, err := reg.Generator(kind)
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, kind, g.Kind())
	}

	_, err := reg.Generator(schemas.TaskKind("teleport"))
	require.Error(t, err)
}

func TestIconClickGenerator(t *testing.T) {
	t.Parallel()

	in := newTestInput(t, testState(), Options{})
	g := &iconClickGenerator{kind: schemas.TaskClickDesktopIcon, zone: layout.ZoneDesktop}

	samples, err := g.Generate(in)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	full, err := in.Output.FullFrame()
	require.NoError(t, err)

	for _, s := range samples {
		assert.Equal(t, schemas.TaskClickDesktopIcon, s.Kind)
		assert.Equal(t, schemas.ActionDoubleClick, s.Action.Kind)
		assert.Equal(t, geometry.FullFrameID, s.Surface)
		assert.Equal(t, "2024-05-20", s.DisjointKey)
		assert.Equal(t, in.ImagePath, s.Image)
		require.NotNil(t, s.Action.Coordinate)
		require.NotNil(t, s.Action.Tolerance)

		// The coordinate denormalizes back inside the icon's bounding box.
		el, ok := in.Catalog.Element(strings.TrimPrefix(s.ID, "sample_00003_desktop_"))
		require.True(t, ok, "sample id %s does not name a catalog element", s.ID)
		px, py, err := full.Surface.PixelOf(geometry.UnitPoint{
			Surface: s.Surface, X: s.Action.Coordinate[0], Y: s.Action.Coordinate[1],
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, px, el.BBox.X)
		assert.Less(t, px, el.BBox.X+el.BBox.W)
		assert.GreaterOrEqual(t, py, el.BBox.Y)
		assert.Less(t, py, el.BBox.Y+el.BBox.H)
	}

	// Prompts substitute the authored label.
	assert.Contains(t, samples[0].Prompt, "Recycle Bin")
	assert.NotContains(t, samples[0].Prompt, placeholderIconLabel)
}

func TestIconClickGenerator_UnknownIcon(t *testing.T) {
	t.Parallel()

	st := testState()
	st.DesktopIcons = append(st.DesktopIcons, "ghost")
	in := newTestInput(t, st, Options{})
	g := &iconClickGenerator{kind: schemas.TaskClickDesktopIcon, zone: layout.ZoneDesktop}

	_, err := g.Generate(in)
	require.Error(t, err)
	assert.Equal(t, schemas.ErrCodeConfiguration, schemas.CodeOf(err))
}

func TestIconListGenerator(t *testing.T) {
	t.Parallel()

	in := newTestInput(t, testState(), Options{})
	g := &iconListGenerator{}

	samples, err := g.Generate(in)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	for i, s := range samples {
		assert.Equal(t, schemas.ActionLeftClick, s.Action.Kind)
		// Listing appears in placement order and the placeholder is gone.
		assert.Contains(t, s.Prompt, "Recycle Bin, Notes")
		assert.NotContains(t, s.Prompt, placeholderIconList)
		assert.NotContains(t, s.Prompt, placeholderIconLabel)
		require.NotNil(t, s.Action.Coordinate, "sample %d", i)
	}
}

func TestWaitGenerator(t *testing.T) {
	t.Parallel()

	t.Run("no loading indicator means no sample", func(t *testing.T) {
		st := testState()
		st.LoadingVisible = false
		in := newTestInput(t, st, Options{WaitMinSeconds: 1, WaitMaxSeconds: 5})

		samples, err := (&waitGenerator{}).Generate(in)
		require.NoError(t, err)
		assert.Empty(t, samples)
	})

	t.Run("non-spatial wait omits the coordinate", func(t *testing.T) {
		st := testState()
		st.LoadingVisible = true
		in := newTestInput(t, st, Options{WaitMinSeconds: 1, WaitMaxSeconds: 5})

		samples, err := (&waitGenerator{}).Generate(in)
		require.NoError(t, err)
		require.Len(t, samples, 1)

		s := samples[0]
		assert.Equal(t, schemas.ActionWait, s.Action.Kind)
		assert.Nil(t, s.Action.Coordinate)
		require.NotNil(t, s.Action.Tolerance)
		assert.Equal(t, [2]int{0, 0}, *s.Action.Tolerance)
		require.NotNil(t, s.Action.Duration)
		assert.GreaterOrEqual(t, *s.Action.Duration, 1.0)
		assert.LessOrEqual(t, *s.Action.Duration, 5.0)
		assert.False(t, s.HasSpatialTarget())
	})

	t.Run("spatial wait targets the indicator", func(t *testing.T) {
		st := testState()
		st.LoadingVisible = true
		in := newTestInput(t, st, Options{
			WaitSpatialTargets: true,
			WaitMinSeconds:     1,
			WaitMaxSeconds:     5,
		})

		samples, err := (&waitGenerator{}).Generate(in)
		require.NoError(t, err)
		require.Len(t, samples, 1)

		s := samples[0]
		require.NotNil(t, s.Action.Coordinate)
		assert.Equal(t, geometry.FullFrameID, s.Surface)
		assert.True(t, s.HasSpatialTarget())
		// Indicator center (960, 540) normalizes to mid-frame.
		assert.Equal(t, [2]int{500, 500}, *s.Action.Coordinate)
	})

	t.Run("wait prompts never name a click target", func(t *testing.T) {
		for _, p := range defaultPrompts[schemas.TaskWaitLoading] {
			assert.NotContains(t, strings.ToLower(p), "click")
			assert.NotContains(t, p, placeholderIconLabel)
		}
	})
}

func TestNewSample_SurfaceMismatch(t *testing.T) {
	t.Parallel()

	in := newTestInput(t, testState(), Options{})
	full, err := in.Output.FullFrame()
	require.NoError(t, err)

	pt := geometry.UnitPoint{Surface: "taskbar_crop", X: 500, Y: 500}
	_, err = newSample("sample_x", schemas.TaskClickDesktopIcon, "p",
		schemas.Action{Kind: schemas.ActionDoubleClick, Tolerance: &[2]int{1, 1}}, &pt, full, in)
	require.Error(t, err)
	assert.Equal(t, schemas.ErrCodeSurfaceMismatch, schemas.CodeOf(err))
}
