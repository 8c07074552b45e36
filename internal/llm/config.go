// Package llm asks a generative model for a visualization plan.
//
// The package owns the prompt and the single model request. It never parses
// the reply: RequestPlan returns the model's text unmodified.
package llm

import (
	"errors"
	"time"
)

const (
	DefaultModel      = "claude-sonnet-4-20250514"
	DefaultMaxTokens  = 2000
	DefaultTimeout    = 60 * time.Second
	DefaultSampleRows = 5
)

// Config is the explicit client configuration. It is built once at startup
// and passed to NewAnthropic and NewRequester.
type Config struct {
	// APIKey is passed through to the endpoint unvalidated.
	APIKey string
	// BaseURL overrides the API endpoint. Empty means the SDK default.
	BaseURL string
	Model   string
	// MaxTokens bounds the reply length.
	MaxTokens int64
	// Timeout bounds the whole request.
	Timeout time.Duration
	// SampleRows is how many leading rows the prompt embeds.
	SampleRows int
}

// DefaultConfig returns a Config with every field but APIKey set.
func DefaultConfig() Config {
	return Config{
		Model:      DefaultModel,
		MaxTokens:  DefaultMaxTokens,
		Timeout:    DefaultTimeout,
		SampleRows: DefaultSampleRows,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.SampleRows <= 0 {
		c.SampleRows = d.SampleRows
	}
	return c
}

// ErrNoAPIKey is returned by NewAnthropic when no credential is configured.
var ErrNoAPIKey = errors.New("llm: no API key configured (set ANTHROPIC_API_KEY)")
