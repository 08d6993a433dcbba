package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to run noise-wall analyses.
type Config struct {
	Dataset     DatasetConfig      `yaml:"dataset"`
	Analysis    AnalysisConfig     `yaml:"analysis"`
	Experiments []ExperimentPreset `yaml:"experiments"`
	Survey      SurveyConfig       `yaml:"survey"`
	Logging     LoggingConfig      `yaml:"logging"`
	Metrics     MetricsConfig      `yaml:"metrics"`
}

// DatasetConfig locates the recordings and the paralysed-subject reference
// spectra on disk.
type DatasetConfig struct {
	Root         string `yaml:"root"`
	ReferenceDir string `yaml:"referenceDir"`
}

// AnalysisConfig sets the default analysis parameters. Experiment presets
// override the band edges per experiment.
type AnalysisConfig struct {
	SignalMinHz    int     `yaml:"signalMinHz"`
	SignalMaxHz    int     `yaml:"signalMaxHz"`
	BandLowHz      float64 `yaml:"bandLowHz"`
	BandHighHz     float64 `yaml:"bandHighHz"`
	NoiseReduction float64 `yaml:"noiseReduction"`
	EEGGain        float64 `yaml:"eegGain"`
}

// ExperimentPreset pins the analysis band for one experiment type.
type ExperimentPreset struct {
	Name       string  `yaml:"name"`
	BandLowHz  float64 `yaml:"bandLowHz"`
	BandHighHz float64 `yaml:"bandHighHz"`
}

// SurveyConfig controls the dataset-wide survey run.
type SurveyConfig struct {
	Workers  int    `yaml:"workers"`
	CacheDir string `yaml:"cacheDir"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus exposition endpoint. An empty
// address disables it.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("NOISEWALL_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// BandFor returns the analysis band for an experiment, preferring its preset.
func (c *Config) BandFor(experiment string) (low, high float64) {
	for _, p := range c.Experiments {
		if strings.EqualFold(p.Name, experiment) {
			return p.BandLowHz, p.BandHighHz
		}
	}
	return c.Analysis.BandLowHz, c.Analysis.BandHighHz
}

func defaultConfig() Config {
	return Config{
		Dataset: DatasetConfig{
			Root:         "data",
			ReferenceDir: "data/reference",
		},
		Analysis: AnalysisConfig{
			SignalMinHz:    1,
			SignalMaxHz:    95,
			NoiseReduction: 1,
			EEGGain:        1,
		},
		Survey:  SurveyConfig{CacheDir: ""},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Address: ""},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOISEWALL_DATASET_ROOT"); v != "" {
		cfg.Dataset.Root = v
	}
	if v := os.Getenv("NOISEWALL_REFERENCE_DIR"); v != "" {
		cfg.Dataset.ReferenceDir = v
	}
	if v := os.Getenv("NOISEWALL_SIGNAL_MIN_HZ"); v != "" {
		if hz, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.SignalMinHz = hz
		}
	}
	if v := os.Getenv("NOISEWALL_SIGNAL_MAX_HZ"); v != "" {
		if hz, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.SignalMaxHz = hz
		}
	}
	if v := os.Getenv("NOISEWALL_BAND_LOW_HZ"); v != "" {
		if hz, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.BandLowHz = hz
		}
	}
	if v := os.Getenv("NOISEWALL_BAND_HIGH_HZ"); v != "" {
		if hz, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.BandHighHz = hz
		}
	}
	if v := os.Getenv("NOISEWALL_NOISE_REDUCTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.NoiseReduction = f
		}
	}
	if v := os.Getenv("NOISEWALL_EEG_GAIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.EEGGain = f
		}
	}
	if v := os.Getenv("NOISEWALL_SURVEY_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Survey.Workers = n
		}
	}
	if v := os.Getenv("NOISEWALL_CACHE_DIR"); v != "" {
		cfg.Survey.CacheDir = v
	}
	if v := os.Getenv("NOISEWALL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NOISEWALL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("NOISEWALL_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
}
