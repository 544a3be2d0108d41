package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/deskgen/api/schemas"
)

// Config holds the entire application configuration. Values are resolved by
// viper with the usual precedence: flags, then DESKGEN_* environment
// variables, then the config file, then defaults.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Generator  GeneratorConfig  `mapstructure:"generator" yaml:"generator"`
	Dataset    DatasetConfig    `mapstructure:"dataset" yaml:"dataset"`
	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess"`
}

// LoggerConfig configures the zap logger and its optional rotated file sink.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// GeneratorConfig controls scene sampling and per-task sample generation.
type GeneratorConfig struct {
	// Seed drives the single RNG stream for the whole run. The same seed and
	// config on the same code version reproduce a byte-identical dataset.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
	// AnnotationPath points at the authored layout document.
	AnnotationPath string `mapstructure:"annotation_path" yaml:"annotation_path"`
	// DesktopMinFrac and TaskbarMinFrac are the vary-N floors: the optional
	// icon subset size k is drawn uniformly from [ceil(m*frac), m].
	DesktopMinFrac float64 `mapstructure:"desktop_min_frac" yaml:"desktop_min_frac"`
	TaskbarMinFrac float64 `mapstructure:"taskbar_min_frac" yaml:"taskbar_min_frac"`
	// LoadingProbability is the chance a scene shows the loading indicator.
	LoadingProbability float64 `mapstructure:"loading_probability" yaml:"loading_probability"`
	// DatetimeStart / DatetimeEnd bound the sampled scene clock, RFC 3339.
	DatetimeStart string `mapstructure:"datetime_start" yaml:"datetime_start"`
	DatetimeEnd   string `mapstructure:"datetime_end" yaml:"datetime_end"`
	// WaitMinSeconds / WaitMaxSeconds bound the duration of wait samples.
	WaitMinSeconds float64 `mapstructure:"wait_min_seconds" yaml:"wait_min_seconds"`
	WaitMaxSeconds float64 `mapstructure:"wait_max_seconds" yaml:"wait_max_seconds"`
	// WaitSpatialTargets controls whether a wait sample carries the
	// full-frame-normalized location of the visible loading indicator. When
	// false the coordinate is omitted entirely.
	WaitSpatialTargets bool `mapstructure:"wait_spatial_targets" yaml:"wait_spatial_targets"`
}

// DatasetConfig controls assembly and partitioning of the persisted dataset.
type DatasetConfig struct {
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir"`
	Name       string `mapstructure:"name" yaml:"name"`
	Researcher string `mapstructure:"researcher" yaml:"researcher"`
	// Counts maps each task kind to the number of generation rounds to drain.
	Counts     map[string]int `mapstructure:"task_counts" yaml:"task_counts"`
	TrainRatio float64        `mapstructure:"train_ratio" yaml:"train_ratio"`
	// TestKeys is how many disjointness-key values to hold out for the test
	// partition. Zero disables the test partition.
	TestKeys int `mapstructure:"test_keys" yaml:"test_keys"`
	// TestMode scales every task count to 1% (minimum 1) for smoke runs.
	TestMode bool `mapstructure:"test_mode" yaml:"test_mode"`
}

// PreprocessConfig controls the parallel re-validation pass.
type PreprocessConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults alone, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "deskgen")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Generator --
	v.SetDefault("generator.seed", 42)
	v.SetDefault("generator.annotation_path", "annotation.json")
	v.SetDefault("generator.desktop_min_frac", 0.6)
	v.SetDefault("generator.taskbar_min_frac", 0.4)
	v.SetDefault("generator.loading_probability", 0.15)
	v.SetDefault("generator.datetime_start", "2024-01-01T08:00:00Z")
	v.SetDefault("generator.datetime_end", "2025-12-31T18:00:00Z")
	v.SetDefault("generator.wait_min_seconds", 1.0)
	v.SetDefault("generator.wait_max_seconds", 5.0)
	v.SetDefault("generator.wait_spatial_targets", false)

	// -- Dataset --
	v.SetDefault("dataset.output_dir", "datasets")
	v.SetDefault("dataset.researcher", "local")
	v.SetDefault("dataset.train_ratio", 0.9)
	v.SetDefault("dataset.test_keys", 2)
	v.SetDefault("dataset.test_mode", false)
	v.SetDefault("dataset.task_counts", map[string]int{
		string(schemas.TaskClickDesktopIcon): 200,
		string(schemas.TaskClickTaskbarIcon): 200,
		string(schemas.TaskIconListClick):    200,
		string(schemas.TaskWaitLoading):      100,
	})

	// -- Preprocess --
	v.SetDefault("preprocess.workers", 8)
}

// DatetimeRange parses the configured scene-clock bounds.
func (g *GeneratorConfig) DatetimeRange() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, g.DatetimeStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("generator.datetime_start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, g.DatetimeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("generator.datetime_end: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("generator.datetime_end must be after generator.datetime_start")
	}
	return start, end, nil
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// TaskCounts converts the string-keyed count map into task kinds, rejecting
// unknown kinds so a typoed quota fails the run instead of silently dropping.
func (c *Config) TaskCounts() (map[schemas.TaskKind]int, error) {
	known := make(map[schemas.TaskKind]bool, 4)
	for _, k := range schemas.AllTaskKinds() {
		known[k] = true
	}
	counts := make(map[schemas.TaskKind]int, len(c.Dataset.Counts))
	for name, n := range c.Dataset.Counts {
		kind := schemas.TaskKind(name)
		if !known[kind] {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
				"task quota references unknown task kind %q", name)
		}
		if n < 0 {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
				"task quota for %q is negative (%d)", name, n)
		}
		if c.Dataset.TestMode {
			n = max(1, n/100)
		}
		counts[kind] = n
	}
	return counts, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Generator.DesktopMinFrac < 0 || c.Generator.DesktopMinFrac > 1 {
		return fmt.Errorf("generator.desktop_min_frac must be within [0,1]")
	}
	if c.Generator.TaskbarMinFrac < 0 || c.Generator.TaskbarMinFrac > 1 {
		return fmt.Errorf("generator.taskbar_min_frac must be within [0,1]")
	}
	if c.Generator.LoadingProbability < 0 || c.Generator.LoadingProbability > 1 {
		return fmt.Errorf("generator.loading_probability must be within [0,1]")
	}
	if _, _, err := c.Generator.DatetimeRange(); err != nil {
		return err
	}
	if c.Generator.WaitMinSeconds <= 0 || c.Generator.WaitMaxSeconds < c.Generator.WaitMinSeconds {
		return fmt.Errorf("generator wait duration range is invalid")
	}
	if c.Dataset.TrainRatio <= 0 || c.Dataset.TrainRatio >= 1 {
		return fmt.Errorf("dataset.train_ratio must be within (0,1)")
	}
	if c.Dataset.TestKeys < 0 {
		return fmt.Errorf("dataset.test_keys must not be negative")
	}
	if c.Preprocess.Workers <= 0 {
		return fmt.Errorf("preprocess.workers must be a positive integer")
	}
	return nil
}
