// Package preprocess re-validates and re-encodes an already-assembled
// dataset across a bounded worker pool. It is the only concurrent stage of
// the pipeline: each sample's transform is pure and touches no shared
// mutable state.
package preprocess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/dataset"
	"github.com/xkilldash9x/deskgen/internal/geometry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ManifestFile is where a completed pass publishes its manifest, relative to
// the dataset directory.
const ManifestFile = "preprocessed/manifest.json"

// Transform converts one sample into its manifest entry. Implementations
// must be pure: one input sample, one output entry, no shared state.
type Transform func(index int, s schemas.TrainingSample) (schemas.ManifestEntry, error)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTransform replaces the default transform. Used by tests to inject
// failures at chosen indices.
func WithTransform(t Transform) Option {
	return func(p *Pipeline) { p.transform = t }
}

// Pipeline runs the parallel re-validation pass over a persisted dataset.
type Pipeline struct {
	datasetPath string
	workers     int
	log         *zap.Logger
	transform   Transform
}

// New creates a pipeline for a dataset directory.
func New(datasetPath string, workers int, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		datasetPath: datasetPath,
		workers:     workers,
		log:         logger.With(zap.String("component", "preprocess")),
	}
	p.transform = defaultTransform(datasetPath)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pass. The manifest preserves input order regardless of
// worker completion order: results land in an index-addressed slice and are
// joined after the pool drains. Any worker failure fails the whole pass with
// the complete failing-index set; no partial manifest is ever returned.
func (p *Pipeline) Run(ctx context.Context) (*schemas.Manifest, error) {
	if p.workers <= 0 {
		return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
			"preprocess worker count must be positive, got %d", p.workers)
	}

	samples, err := dataset.ReadIndex(filepath.Join(p.datasetPath, dataset.AllIndexFile))
	if err != nil {
		return nil, err
	}
	p.log.Info("Starting preprocessing pass",
		zap.Int("samples", len(samples)),
		zap.Int("workers", p.workers),
	)

	entries := make([]schemas.ManifestEntry, len(samples))
	var mu sync.Mutex
	failed := make(map[int]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range samples {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := p.transform(i, samples[i])
			if err != nil {
				mu.Lock()
				failed[i] = err
				mu.Unlock()
				// Keep draining: the failure report must list every failing
				// index, not just the first.
				return nil
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("preprocessing interrupted: %w", err)
	}

	if len(failed) > 0 {
		indices := make([]int, 0, len(failed))
		for i := range failed {
			indices = append(indices, i)
		}
		sort.Ints(indices)
		for _, i := range indices {
			p.log.Error("Sample transform failed",
				zap.Int("index", i),
				zap.String("sample_id", samples[i].ID),
				zap.Error(failed[i]),
			)
		}
		return nil, schemas.NewPipelineError(schemas.ErrCodeWorkerFailure,
			"%d of %d transforms failed at indices %v", len(failed), len(samples), indices)
	}

	return &schemas.Manifest{
		DatasetPath: p.datasetPath,
		Workers:     p.workers,
		Entries:     entries,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Publish writes a completed manifest. Callers only reach this with a
// non-nil manifest from Run, so a failed pass can never be published.
func Publish(m *schemas.Manifest) error {
	path := filepath.Join(m.DatasetPath, ManifestFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// defaultTransform re-validates a record against the sample schema and
// content-hashes its image artifact.
func defaultTransform(datasetPath string) Transform {
	return func(index int, s schemas.TrainingSample) (schemas.ManifestEntry, error) {
		if err := validateRecord(&s); err != nil {
			return schemas.ManifestEntry{}, err
		}

		imgData, err := os.ReadFile(filepath.Join(datasetPath, s.Image))
		if err != nil {
			return schemas.ManifestEntry{}, schemas.WrapPipelineError(schemas.ErrCodeSchemaViolation, err,
				"sample %s image does not resolve", s.ID)
		}
		sum := sha256.Sum256(imgData)

		encoded, err := json.Marshal(&s)
		if err != nil {
			return schemas.ManifestEntry{}, fmt.Errorf("re-encoding sample %s: %w", s.ID, err)
		}

		return schemas.ManifestEntry{
			Index:     index,
			SampleID:  s.ID,
			Image:     s.Image,
			ImageHash: hex.EncodeToString(sum[:]),
			Encoded:   string(encoded),
		}, nil
	}
}

// validateRecord enforces the persisted-sample invariants on one record.
func validateRecord(s *schemas.TrainingSample) error {
	if s.Prompt == "" {
		return schemas.NewPipelineError(schemas.ErrCodeSchemaViolation, "sample %s has an empty prompt", s.ID)
	}
	if s.Action.Tolerance == nil {
		return schemas.NewPipelineError(schemas.ErrCodeSchemaViolation, "sample %s has no tolerance", s.ID)
	}
	switch s.Action.Kind {
	case schemas.ActionDoubleClick, schemas.ActionLeftClick, schemas.ActionWait, schemas.ActionScroll:
	default:
		return schemas.NewPipelineError(schemas.ErrCodeSchemaViolation,
			"sample %s has unknown action kind %q", s.ID, s.Action.Kind)
	}
	if c := s.Action.Coordinate; c != nil {
		for _, v := range c {
			if v < 0 || v > geometry.UnitScale {
				return schemas.NewPipelineError(schemas.ErrCodeSchemaViolation,
					"sample %s coordinate %v outside unit space", s.ID, *c)
			}
		}
		if s.Surface == "" {
			return schemas.NewPipelineError(schemas.ErrCodeSurfaceMismatch,
				"sample %s carries a coordinate but declares no surface", s.ID)
		}
	}
	return nil
}
