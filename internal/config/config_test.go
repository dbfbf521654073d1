package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.95, cfg.Thresholds.SlopeMin)
	assert.Equal(t, 10, cfg.Thresholds.MaxOutliers)
	assert.Equal(t, "validation_results", cfg.Output.ResultsDir)
	assert.Equal(t, 5, cfg.Write.Attempts)
	assert.Equal(t, time.Second, cfg.GetBackoff())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("PV_RESULTS", "out")
	path := writeConfig(t, `
thresholds:
  r2_min: 0.99
output:
  results_dir: ${PV_RESULTS}
write:
  backoff: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.99, cfg.Thresholds.R2Min)
	assert.Equal(t, 1.05, cfg.Thresholds.SlopeMax)
	assert.Equal(t, "out", cfg.Output.ResultsDir)
	assert.Equal(t, "validation_comparison", cfg.Output.GraphsDir)
	assert.Equal(t, 250*time.Millisecond, cfg.GetBackoff())
	assert.Equal(t, "*.log", cfg.Log.Pattern)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"slope order", "thresholds:\n  slope_min: 1.2\n  slope_max: 1.0\n"},
		{"r2 range", "thresholds:\n  r2_min: 1.5\n"},
		{"attempts", "write:\n  attempts: 0\n"},
		{"backoff", "write:\n  backoff: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, writeConfig(t, "log:\n  pattern: '*.txt'\n"))
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "*.txt", cfg.Log.Pattern)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := DefaultConfig().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "slope_min: 0.95")

	cfg, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
