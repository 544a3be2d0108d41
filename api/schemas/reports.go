package schemas

import "time"

// -- Run Configuration Record --

// RunConfig is the summary record persisted alongside a dataset. A dataset
// directory is considered valid only once this record exists; it is written
// after every index and image has been flushed.
type RunConfig struct {
	RunID      string           `json:"run_id"`
	Name       string           `json:"name"`
	Version    string           `json:"version"`
	Seed       int64            `json:"seed"`
	Counts     map[TaskKind]int `json:"task_counts"`
	TrainRatio float64          `json:"train_ratio"`
	// TestKeys is the number of disjointness-key values drawn into the
	// held-out test partition. Zero means no test partition was requested.
	TestKeys int    `json:"test_keys"`
	KeyKind  string `json:"key_kind"`
}

// -- Verifier Report --

// Report is the outcome of an out-of-sample leakage audit.
type Report struct {
	DatasetPath string    `json:"dataset_path"`
	OK          bool      `json:"ok"`
	CheckedAt   time.Time `json:"checked_at"`
	// Violations lists every disjointness-key value found on both sides of
	// the test / train+val boundary, sorted.
	Violations []string `json:"violations,omitempty"`
	TrainKeys  int      `json:"train_val_keys"`
	TestKeys   int      `json:"test_keys"`
}

// -- Preprocessing Manifest --

// ManifestEntry describes one re-validated sample in input order.
type ManifestEntry struct {
	Index     int    `json:"index"`
	SampleID  string `json:"sample_id"`
	Image     string `json:"image"`
	ImageHash string `json:"image_sha256"`
	Encoded   string `json:"encoded"`
}

// Manifest is the output of a preprocessing pass. It is only ever written
// complete; a pass with any failing worker publishes nothing.
type Manifest struct {
	DatasetPath string          `json:"dataset_path"`
	Workers     int             `json:"workers"`
	Entries     []ManifestEntry `json:"entries"`
	CreatedAt   time.Time       `json:"created_at"`
}
