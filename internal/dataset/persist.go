package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/deskgen/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Index file names inside a dataset directory.
const (
	RunConfigFile = "run_config.json"
	AllIndexFile  = "samples.jsonl"
	TrainIndex    = "train.jsonl"
	ValIndex      = "val.jsonl"
	// TestIndex lives inside the test/ subdirectory.
	TestIndex = "test/index.jsonl"
)

// persistIndices writes the full index plus the per-split indices. Records
// appear in final (shuffled) order; each line is one TrainingSample.
func persistIndices(dir string, all []schemas.TrainingSample) error {
	if err := writeJSONL(filepath.Join(dir, AllIndexFile), all, ""); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(dir, TrainIndex), all, schemas.SplitTrain); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(dir, ValIndex), all, schemas.SplitVal); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dir, TestIndex), all, schemas.SplitTest)
}

// writeJSONL writes samples matching the split filter (empty = all) as
// line-delimited JSON.
func writeJSONL(path string, all []schemas.TrainingSample, split schemas.SplitTag) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating index %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := range all {
		if split != "" && all[i].Split != split {
			continue
		}
		line, err := json.Marshal(&all[i])
		if err != nil {
			return fmt.Errorf("encoding sample %s: %w", all[i].ID, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("writing index %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing index %s: %w", path, err)
	}
	return f.Sync()
}

// persistRunConfig writes the run-config record. It is the validity marker
// for the whole directory and must be written last.
func persistRunConfig(dir string, rc schemas.RunConfig) error {
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, RunConfigFile), append(data, '\n'), 0o644)
}

// ReadIndex loads a JSONL index file.
func ReadIndex(path string) ([]schemas.TrainingSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	defer f.Close()

	var out []schemas.TrainingSample
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var s schemas.TrainingSample
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("decoding record %d of %s: %w", len(out), path, err)
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}
	return out, nil
}

// ReadRunConfig loads the run-config record of a dataset directory.
func ReadRunConfig(dir string) (schemas.RunConfig, error) {
	var rc schemas.RunConfig
	data, err := os.ReadFile(filepath.Join(dir, RunConfigFile))
	if err != nil {
		return rc, fmt.Errorf("reading run config: %w", err)
	}
	if err := json.Unmarshal(data, &rc); err != nil {
		return rc, fmt.Errorf("decoding run config: %w", err)
	}
	return rc, nil
}
