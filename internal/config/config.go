// Package config holds the acceptance thresholds and output layout of a
// validation run.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable pointing at the config file.
const EnvConfigPath = "PLATE_VALIDATOR_CONFIG"

// Config is the whole configuration.
type Config struct {
	Thresholds Thresholds   `yaml:"thresholds"`
	Output     OutputConfig `yaml:"output"`
	Write      WriteConfig  `yaml:"write"`
	Log        LogConfig    `yaml:"log"`
}

// Thresholds are the regression acceptance limits. MaxOutliers is exclusive.
type Thresholds struct {
	SlopeMin     float64 `yaml:"slope_min"`
	SlopeMax     float64 `yaml:"slope_max"`
	InterceptMin float64 `yaml:"intercept_min"`
	InterceptMax float64 `yaml:"intercept_max"`
	R2Min        float64 `yaml:"r2_min"`
	MaxOutliers  int     `yaml:"max_outliers"`
}

// OutputConfig names the result folders and files, relative to the measured folder.
type OutputConfig struct {
	ResultsDir string `yaml:"results_dir"`
	GraphsDir  string `yaml:"graphs_dir"` // inside ResultsDir
	EnzymoDir  string `yaml:"enzymo_dir"` // inside ResultsDir
	ReportName string `yaml:"report_name"`
}

// WriteConfig is the retry budget for locked output files.
type WriteConfig struct {
	Attempts int    `yaml:"attempts"`
	Backoff  string `yaml:"backoff"`
}

// LogConfig controls hardware log discovery.
type LogConfig struct {
	Pattern string `yaml:"pattern"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: Thresholds{
			SlopeMin:     0.95,
			SlopeMax:     1.05,
			InterceptMin: -5,
			InterceptMax: 5,
			R2Min:        0.98,
			MaxOutliers:  10,
		},
		Output: OutputConfig{
			ResultsDir: "validation_results",
			GraphsDir:  "validation_comparison",
			EnzymoDir:  "comparaison_enzymo_routine",
			ReportName: "rapport_validation.pdf",
		},
		Write: WriteConfig{
			Attempts: 5,
			Backoff:  "1s",
		},
		Log: LogConfig{
			Pattern: "*.log",
		},
	}
}

// Load reads a YAML config file over the defaults. ${VAR} references are
// expanded from the environment. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by PLATE_VALIDATOR_CONFIG, if set.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

// setDefaults fills keys left empty by a partial file.
func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.Output.ResultsDir == "" {
		c.Output.ResultsDir = d.Output.ResultsDir
	}
	if c.Output.GraphsDir == "" {
		c.Output.GraphsDir = d.Output.GraphsDir
	}
	if c.Output.EnzymoDir == "" {
		c.Output.EnzymoDir = d.Output.EnzymoDir
	}
	if c.Output.ReportName == "" {
		c.Output.ReportName = d.Output.ReportName
	}
	if c.Write.Backoff == "" {
		c.Write.Backoff = d.Write.Backoff
	}
	if c.Log.Pattern == "" {
		c.Log.Pattern = d.Log.Pattern
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	t := c.Thresholds
	if t.SlopeMin > t.SlopeMax {
		return fmt.Errorf("slope_min %g is above slope_max %g", t.SlopeMin, t.SlopeMax)
	}
	if t.InterceptMin > t.InterceptMax {
		return fmt.Errorf("intercept_min %g is above intercept_max %g", t.InterceptMin, t.InterceptMax)
	}
	if t.R2Min < 0 || t.R2Min > 1 {
		return fmt.Errorf("r2_min %g outside [0, 1]", t.R2Min)
	}
	if t.MaxOutliers < 0 {
		return fmt.Errorf("max_outliers must not be negative")
	}
	if c.Write.Attempts < 1 {
		return fmt.Errorf("write.attempts must be at least 1, got %d", c.Write.Attempts)
	}
	if _, err := time.ParseDuration(c.Write.Backoff); err != nil {
		return fmt.Errorf("invalid write.backoff %q: %w", c.Write.Backoff, err)
	}
	return nil
}

// GetBackoff returns the write back-off as a duration.
func (c *Config) GetBackoff() time.Duration {
	d, err := time.ParseDuration(c.Write.Backoff)
	if err != nil {
		return time.Second
	}
	return d
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
