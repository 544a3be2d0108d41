// Package verify implements the out-of-sample leakage audit. It reads a
// persisted dataset independently of the assembler, so an assembler change
// cannot silently defeat the check.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/dataset"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReportFile is the side file an audit may leave next to the dataset. It is
// the only mutation verify ever performs on a dataset directory.
const ReportFile = "verifier_report.json"

// Verify audits a dataset directory: no disjointness key may appear in both
// the test partition and train∪val. The dataset itself is read-only to the
// verifier and the audit is re-runnable.
func Verify(datasetPath string, logger *zap.Logger) (*schemas.Report, error) {
	log := logger.With(zap.String("component", "verifier"), zap.String("dataset", datasetPath))

	trainVal := make(map[string]bool)
	for _, index := range []string{dataset.TrainIndex, dataset.ValIndex} {
		samples, err := dataset.ReadIndex(filepath.Join(datasetPath, index))
		if err != nil {
			return nil, err
		}
		for i := range samples {
			trainVal[samples[i].DisjointKey] = true
		}
	}

	test := make(map[string]bool)
	testSamples, err := dataset.ReadIndex(filepath.Join(datasetPath, dataset.TestIndex))
	if err != nil {
		return nil, err
	}
	for i := range testSamples {
		test[testSamples[i].DisjointKey] = true
	}

	var violations []string
	for k := range test {
		if trainVal[k] {
			violations = append(violations, k)
		}
	}
	sort.Strings(violations)

	report := &schemas.Report{
		DatasetPath: datasetPath,
		OK:          len(violations) == 0,
		CheckedAt:   time.Now().UTC(),
		Violations:  violations,
		TrainKeys:   len(trainVal),
		TestKeys:    len(test),
	}

	if report.OK {
		log.Info("Leakage audit passed",
			zap.Int("train_val_keys", report.TrainKeys),
			zap.Int("test_keys", report.TestKeys),
		)
	} else {
		log.Error("Leakage audit failed",
			zap.Strings("violations", violations),
		)
	}
	return report, nil
}

// WriteReport persists the audit outcome as a side file in the dataset
// directory.
func WriteReport(report *schemas.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding verifier report: %w", err)
	}
	path := filepath.Join(report.DatasetPath, ReportFile)
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Err converts a failed report into the coded error the caller propagates.
func Err(report *schemas.Report) error {
	if report.OK {
		return nil
	}
	return schemas.NewPipelineError(schemas.ErrCodeLeakage,
		"%d disjointness key(s) cross the test/train-val boundary: %v",
		len(report.Violations), report.Violations)
}
