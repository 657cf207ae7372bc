package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides. Nested keys are joined
// with a double underscore: TABLECAL_ENGINE__URL -> engine.url.
const EnvPrefix = "TABLECAL_"

const (
	EngineRemote    = "remote"
	EngineTesseract = "tesseract"
)

const (
	defaultListen         = "127.0.0.1:8000"
	defaultEngineURL      = "http://127.0.0.1:8866/predict/structure_table"
	defaultEngineTimeout  = 60
	defaultUploadMaxBytes = 10 << 20
	defaultPurgeCron      = "0 0 * * 1"
)

// EngineConfig selects and configures the table-recognition backend.
type EngineConfig struct {
	// Kind is "remote" (layout-analysis HTTP service) or "tesseract"
	// (local gosseract, requires the ocr build tag).
	Kind string `yaml:"kind" json:"kind"`
	// URL of the remote layout-analysis endpoint.
	URL string `yaml:"url" json:"url"`
	// TimeoutSeconds bounds a single remote recognition call.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" json:"max_bytes"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// CacheConfig controls the in-memory table cache keyed by upload hash.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Purge is a cron expression; the cache is emptied on every tick.
	Purge string `yaml:"purge" json:"purge"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type ICSConfig struct {
	// RepeatWeeks > 1 makes exported events recur weekly that many times.
	RepeatWeeks int `yaml:"repeat_weeks" json:"repeat_weeks"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Engine  EngineConfig  `yaml:"engine" json:"engine"`
	Upload  UploadConfig  `yaml:"upload" json:"upload"`
	CORS    CORSConfig    `yaml:"cors" json:"cors"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	ICS     ICSConfig     `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   defaultListen,
		LogLevel: "info",
		Engine: EngineConfig{
			Kind:           EngineRemote,
			URL:            defaultEngineURL,
			TimeoutSeconds: defaultEngineTimeout,
		},
		Upload: UploadConfig{MaxBytes: defaultUploadMaxBytes},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3001"},
		},
		Cache:     CacheConfig{Enabled: true, Purge: defaultPurgeCron},
		Metrics:   MetricsConfig{Enabled: true},
		ICS:       ICSConfig{RepeatWeeks: 1},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch strings.ToLower(c.Engine.Kind) {
	case EngineRemote, EngineTesseract:
		c.Engine.Kind = strings.ToLower(c.Engine.Kind)
	default:
		c.Engine.Kind = EngineRemote
	}
	if c.Engine.URL == "" {
		c.Engine.URL = defaultEngineURL
	}
	if c.Engine.TimeoutSeconds <= 0 {
		c.Engine.TimeoutSeconds = defaultEngineTimeout
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = defaultUploadMaxBytes
	}
	if c.CORS.AllowedOrigins == nil {
		c.CORS.AllowedOrigins = []string{"http://localhost:3001"}
	}
	if c.Cache.Purge == "" {
		c.Cache.Purge = defaultPurgeCron
	}
	if c.ICS.RepeatWeeks <= 0 {
		c.ICS.RepeatWeeks = 1
	}
}

// Load loads configuration from the given YAML path and applies
// TABLECAL_* environment overrides.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and used as the base.
//   - Keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		// First run: create default config file.
		if err := Save(path, cfg); err != nil {
			// Even if save fails, return cfg with error so caller can decide.
			return cfg, err
		}
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Normalize()

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tablecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
