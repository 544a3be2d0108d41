package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/config"
	"github.com/xkilldash9x/deskgen/internal/dataset"
)

const testAnnotation = `{
	"version": "1",
	"screen": {"width": 1920, "height": 1080},
	"elements": [
		{"id": "recycle_bin", "kind": "icon", "zone": "desktop", "label": "Recycle Bin", "required": true, "bbox": {"x": 20, "y": 20, "w": 64, "h": 64}},
		{"id": "notes", "kind": "icon", "zone": "desktop", "label": "Notes", "bbox": {"x": 20, "y": 120, "w": 64, "h": 64}},
		{"id": "browser", "kind": "icon", "zone": "desktop", "label": "Browser", "bbox": {"x": 20, "y": 220, "w": 64, "h": 64}},
		{"id": "start", "kind": "icon", "zone": "taskbar", "label": "Start", "required": true, "bbox": {"x": 0, "y": 1040, "w": 40, "h": 40}},
		{"id": "mail", "kind": "icon", "zone": "taskbar", "label": "Mail", "bbox": {"x": 50, "y": 1040, "w": 40, "h": 40}},
		{"id": "od_loading", "kind": "region", "bbox": {"x": 760, "y": 440, "w": 400, "h": 200}}
	],
	"loading_indicator_id": "od_loading"
}`

func TestRunGenerate_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	annotation := filepath.Join(dir, "annotation.json")
	require.NoError(t, os.WriteFile(annotation, []byte(testAnnotation), 0o644))

	cfg := config.NewDefaultConfig()
	cfg.Generator.AnnotationPath = annotation
	cfg.Dataset.OutputDir = filepath.Join(dir, "out")
	cfg.Dataset.Name = "desktop--ci--fixed"
	cfg.Dataset.Counts = map[string]int{
		string(schemas.TaskClickDesktopIcon): 5,
		string(schemas.TaskClickTaskbarIcon): 5,
		string(schemas.TaskIconListClick):    5,
		string(schemas.TaskWaitLoading):      3,
	}
	require.NoError(t, cfg.Validate())

	require.NoError(t, runGenerate(context.Background(), zap.NewNop(), cfg))

	// The dataset directory carries its validity marker and indices.
	out := filepath.Join(cfg.Dataset.OutputDir, cfg.Dataset.Name)
	rc, err := dataset.ReadRunConfig(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Generator.Seed, rc.Seed)

	for _, index := range []string{dataset.AllIndexFile, dataset.TrainIndex, dataset.ValIndex, dataset.TestIndex} {
		samples, err := dataset.ReadIndex(filepath.Join(out, index))
		require.NoError(t, err, index)
		if index == dataset.AllIndexFile {
			assert.NotEmpty(t, samples)
		}
	}
}

func TestRunGenerate_MissingAnnotation(t *testing.T) {
	t.Parallel()

	cfg := config.NewDefaultConfig()
	cfg.Generator.AnnotationPath = filepath.Join(t.TempDir(), "absent.json")
	cfg.Dataset.OutputDir = t.TempDir()

	err := runGenerate(context.Background(), zap.NewNop(), cfg)
	require.Error(t, err)
}
