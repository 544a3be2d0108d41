package preprocess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/dataset"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeDataset fabricates a dataset directory with n valid samples.
func writeDataset(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))

	var buf []byte
	for i := 0; i < n; i++ {
		img := filepath.Join("images", fmt.Sprintf("sample_%05d.png", i))
		require.NoError(t, os.WriteFile(filepath.Join(dir, img), []byte(fmt.Sprintf("img-%d", i)), 0o644))

		s := schemas.TrainingSample{
			ID:          fmt.Sprintf("sample_%05d_desktop_notes", i),
			Kind:        schemas.TaskClickDesktopIcon,
			Prompt:      "Double-click on the Notes icon on the desktop.",
			Action:      schemas.Action{Kind: schemas.ActionDoubleClick, Coordinate: &[2]int{120, 340}, Tolerance: &[2]int{17, 30}},
			Image:       img,
			Split:       schemas.SplitTrain,
			Surface:     "full_frame",
			DisjointKey: "2024-05-20",
		}
		line, err := jsoniter.Marshal(&s)
		require.NoError(t, err)
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.AllIndexFile), buf, 0o644))
	return dir
}

func TestRun_PreservesInputOrder(t *testing.T) {
	dir := writeDataset(t, 100)
	p := New(dir, 8, zap.NewNop())

	manifest, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 100)
	assert.Equal(t, 8, manifest.Workers)

	for i, e := range manifest.Entries {
		assert.Equal(t, i, e.Index)
		assert.Equal(t, fmt.Sprintf("sample_%05d_desktop_notes", i), e.SampleID)

		want := sha256.Sum256([]byte(fmt.Sprintf("img-%d", i)))
		assert.Equal(t, hex.EncodeToString(want[:]), e.ImageHash)
		assert.NotEmpty(t, e.Encoded)
	}
}

func TestRun_CollectsEveryFailure(t *testing.T) {
	dir := writeDataset(t, 100)
	failAt := map[int]bool{42: true}

	p := New(dir, 8, zap.NewNop(), WithTransform(func(index int, s schemas.TrainingSample) (schemas.ManifestEntry, error) {
		if failAt[index] {
			return schemas.ManifestEntry{}, fmt.Errorf("injected failure")
		}
		return schemas.ManifestEntry{Index: index, SampleID: s.ID}, nil
	}))

	manifest, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, manifest, "a failed pass must publish nothing")
	assert.Equal(t, schemas.ErrCodeWorkerFailure, schemas.CodeOf(err))
	assert.Contains(t, err.Error(), "[42]")

	_, statErr := os.Stat(filepath.Join(dir, ManifestFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_ReportsMultipleFailingIndices(t *testing.T) {
	dir := writeDataset(t, 50)
	p := New(dir, 4, zap.NewNop(), WithTransform(func(index int, s schemas.TrainingSample) (schemas.ManifestEntry, error) {
		if index%10 == 3 {
			return schemas.ManifestEntry{}, fmt.Errorf("injected failure")
		}
		return schemas.ManifestEntry{Index: index, SampleID: s.ID}, nil
	}))

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[3 13 23 33 43]")
}

func TestRun_SchemaViolationFails(t *testing.T) {
	dir := writeDataset(t, 5)

	// Corrupt one record: strip its tolerance.
	samples, err := dataset.ReadIndex(filepath.Join(dir, dataset.AllIndexFile))
	require.NoError(t, err)
	samples[2].Action.Tolerance = nil
	var buf []byte
	for i := range samples {
		line, err := jsoniter.Marshal(&samples[i])
		require.NoError(t, err)
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.AllIndexFile), buf, 0o644))

	_, err = New(dir, 2, zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[2]")
}

func TestRun_InvalidWorkerCount(t *testing.T) {
	dir := writeDataset(t, 1)
	_, err := New(dir, 0, zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, schemas.ErrCodeConfiguration, schemas.CodeOf(err))
}

func TestRun_CanceledContext(t *testing.T) {
	dir := writeDataset(t, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dir, 4, zap.NewNop()).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublish(t *testing.T) {
	dir := writeDataset(t, 3)
	manifest, err := New(dir, 2, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, Publish(manifest))
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"entries"`))
}
