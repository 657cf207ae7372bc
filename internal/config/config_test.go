package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Listen, cfg.Listen)
	assert.Equal(t, EngineRemote, cfg.Engine.Kind)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `listen: ":9000"
engine:
  kind: TESSERACT
cors:
  allowed_origins:
    - "https://timetable.example"
basic_auth:
  username: admin
  password: secret
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"listen", cfg.Listen, ":9000"},
		{"engine.kind", cfg.Engine.Kind, EngineTesseract},
		{"engine.url", cfg.Engine.URL, defaultEngineURL},
		{"engine.timeout", cfg.Engine.TimeoutSeconds, defaultEngineTimeout},
		{"upload.max_bytes", cfg.Upload.MaxBytes, int64(defaultUploadMaxBytes)},
		{"cache.purge", cfg.Cache.Purge, defaultPurgeCron},
		{"cors", cfg.CORS.AllowedOrigins, []string{"https://timetable.example"}},
		{"ics.repeat_weeks", cfg.ICS.RepeatWeeks, 1},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9000\"\n"), 0o644))
	t.Setenv("TABLECAL_ENGINE__URL", "http://ocr.internal/structure")
	t.Setenv("TABLECAL_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://ocr.internal/structure", cfg.Engine.URL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.Listen)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.ICS.RepeatWeeks = 12
	cfg.Metrics.Enabled = false
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, got.ICS.RepeatWeeks)
	assert.False(t, got.Metrics.Enabled)
}

func TestNormalizeUnknownEngine(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{Kind: "paddle"}}
	cfg.Normalize()
	assert.Equal(t, EngineRemote, cfg.Engine.Kind)
	assert.Equal(t, 1, cfg.ICS.RepeatWeeks)
}
