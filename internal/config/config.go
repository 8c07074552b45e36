// Package config holds the autodash runtime configuration.
//
// Values are layered, lowest precedence first: Default, an optional JSON or
// YAML file, environment variables, then command-line flags (applied by the
// caller). Validate reports problems as a list of issues so a command can
// print all of them before deciding to stop.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/arifinrio95/auto-dashboard/internal/llm"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// Config is the full runtime configuration.
type Config struct {
	Model   Model   `json:"model"`
	Server  Server  `json:"server"`
	Metrics Metrics `json:"metrics"`
	Limits  Limits  `json:"limits"`
	Log     Log     `json:"log"`
}

// Model configures the plan request.
type Model struct {
	// APIKey is normally supplied through ANTHROPIC_API_KEY.
	APIKey     string        `json:"api_key"`
	BaseURL    string        `json:"base_url"`
	Name       string        `json:"name"`
	MaxTokens  int64         `json:"max_tokens"`
	Timeout    time.Duration `json:"timeout"`
	SampleRows int           `json:"sample_rows"`
}

// Server configures the web surface.
type Server struct {
	Addr       string        `json:"addr"`
	SessionTTL time.Duration `json:"session_ttl"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "", "none" or "datadog".
	Backend    string        `json:"backend"`
	Job        string        `json:"job"`
	Tags       []string      `json:"tags"`
	FlushEvery time.Duration `json:"flush_every"`

	// datadogKey records whether DD_API_KEY was set; the Datadog client
	// reads the key itself.
	datadogKey bool
}

// Limits bounds the input.
type Limits struct {
	MaxUploadBytes int64 `json:"max_upload_bytes"`
	// MaxRows bounds SQL and HTML sources. 0 means unlimited.
	MaxRows int `json:"max_rows"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model: Model{
			Name:       llm.DefaultModel,
			MaxTokens:  llm.DefaultMaxTokens,
			Timeout:    llm.DefaultTimeout,
			SampleRows: llm.DefaultSampleRows,
		},
		Server: Server{
			Addr:       ":8080",
			SessionTTL: 30 * time.Minute,
		},
		Metrics: Metrics{
			Backend:    "none",
			Job:        "autodash",
			FlushEvery: 60 * time.Second,
		},
		Limits: Limits{
			MaxUploadBytes: table.DefaultMaxBytes,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// LLM converts the model section into the requester configuration.
func (c Config) LLM() llm.Config {
	return llm.Config{
		APIKey:     c.Model.APIKey,
		BaseURL:    c.Model.BaseURL,
		Model:      c.Model.Name,
		MaxTokens:  c.Model.MaxTokens,
		Timeout:    c.Model.Timeout,
		SampleRows: c.Model.SampleRows,
	}
}

// Load builds a Config from Default, the file at path (skipped when path is
// empty) and the environment read through getenv (os.Getenv when nil).
//
// Errors:
//   - unreadable or malformed files, unknown keys, and env values that do
//     not parse
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes path over cfg. .yaml/.yml files are YAML, everything
// else JSON. Durations are written as strings ("45s", "30m").
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("ANTHROPIC_API_KEY", &cfg.Model.APIKey)
	str("AUTODASH_MODEL", &cfg.Model.Name)
	str("AUTODASH_BASE_URL", &cfg.Model.BaseURL)
	str("AUTODASH_ADDR", &cfg.Server.Addr)
	str("AUTODASH_LOG_LEVEL", &cfg.Log.Level)
	str("METRICS_BACKEND", &cfg.Metrics.Backend)
	str("METRICS_JOB", &cfg.Metrics.Job)

	if v := strings.TrimSpace(getenv("AUTODASH_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AUTODASH_TIMEOUT: %w", err)
		}
		cfg.Model.Timeout = d
	}
	if v := strings.TrimSpace(getenv("AUTODASH_MAX_UPLOAD_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("AUTODASH_MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.Limits.MaxUploadBytes = n
	}
	if v := strings.TrimSpace(getenv("METRICS_TAGS")); v != "" {
		cfg.Metrics.Tags = splitTags(v)
	}
	cfg.Metrics.datadogKey = strings.TrimSpace(getenv("DD_API_KEY")) != ""
	return nil
}

func splitTags(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
