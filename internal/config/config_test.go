package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarlab/adextract/internal/model"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "adextract.db", cfg.Store.DatabaseURL)
	assert.True(t, cfg.Model.Enabled)
	assert.Equal(t, "http://localhost:8008", cfg.Model.BaseURL)
	assert.Equal(t, 1990, cfg.Extract.YearMin)
	assert.Equal(t, 30, cfg.Extract.PowerMin)
	assert.Equal(t, 500, cfg.Extract.PowerMax)
	assert.True(t, cfg.Resolve.PreferMLMileage)
	assert.False(t, cfg.Resolve.PreferMLYear)
	assert.False(t, cfg.Resolve.PreferMLPower)
	assert.True(t, cfg.Resolve.PreferMLFuel)
	assert.Equal(t, "auto_training_queue.json", cfg.Feedback.TrainingQueuePath)
	assert.Equal(t, "review_queue.json", cfg.Feedback.ReviewQueuePath)
	assert.Equal(t, "extraction_stats.json", cfg.Feedback.StatsPath)
	assert.Equal(t, 500, cfg.Feedback.ReviewTruncateLen)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrentListings)
	assert.InDelta(t, 10.0, cfg.Batch.ModelRatePerSec, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/adextract
model:
  enabled: false
resolve:
  prefer_ml_power: true
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.False(t, cfg.Model.Enabled)
	assert.True(t, cfg.Resolve.PreferMLPower)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Extract.PowerMax)
	assert.True(t, cfg.Resolve.PreferMLMileage)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0644))

	t.Setenv("ADEXTRACT_STORE_DRIVER", "postgres")
	t.Setenv("ADEXTRACT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestPreferMLMap(t *testing.T) {
	r := ResolveConfig{PreferMLMileage: true, PreferMLFuel: true}
	m := r.PreferML()
	assert.True(t, m[model.FieldMileage])
	assert.False(t, m[model.FieldYear])
	assert.False(t, m[model.FieldPower])
	assert.True(t, m[model.FieldFuel])
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nonsense", Format: "json"}))
}
