package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

const maxSampleRows = 50

// Severity classifies an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one configuration problem. Path is the dotted key, e.g.
// "model.timeout".
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks c and returns every issue found, errors and warnings
// mixed, in section order. requireModel makes a missing API key an error;
// commands that never call the model pass false.
func Validate(c Config, requireModel bool) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if requireModel && strings.TrimSpace(c.Model.APIKey) == "" {
		add(SeverityError, "model.api_key", "missing; set ANTHROPIC_API_KEY")
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		add(SeverityError, "model.name", "must not be empty")
	}
	if c.Model.BaseURL != "" {
		u, err := url.Parse(c.Model.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(SeverityError, "model.base_url", "must be an absolute http(s) URL, got %q", c.Model.BaseURL)
		}
	}
	if c.Model.MaxTokens <= 0 {
		add(SeverityError, "model.max_tokens", "must be > 0, got %d", c.Model.MaxTokens)
	}
	switch {
	case c.Model.Timeout <= 0:
		add(SeverityError, "model.timeout", "must be > 0, got %s", c.Model.Timeout)
	case c.Model.Timeout < 5*time.Second:
		add(SeverityWarning, "model.timeout", "%s is likely too short for a plan request", c.Model.Timeout)
	}
	switch {
	case c.Model.SampleRows < 0:
		add(SeverityError, "model.sample_rows", "must be >= 0, got %d", c.Model.SampleRows)
	case c.Model.SampleRows > maxSampleRows:
		add(SeverityWarning, "model.sample_rows", "%d rows inflate the prompt; %d or fewer is plenty", c.Model.SampleRows, maxSampleRows)
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		add(SeverityError, "server.addr", "must not be empty")
	}
	if c.Server.SessionTTL <= 0 {
		add(SeverityError, "server.session_ttl", "must be > 0, got %s", c.Server.SessionTTL)
	}

	switch strings.ToLower(c.Metrics.Backend) {
	case "", "none":
	case "datadog":
		if !c.Metrics.datadogKey {
			add(SeverityWarning, "metrics.backend", "datadog selected but DD_API_KEY is not set; submissions will be rejected")
		}
		if c.Metrics.FlushEvery < 0 {
			add(SeverityError, "metrics.flush_every", "must be >= 0, got %s", c.Metrics.FlushEvery)
		}
	default:
		add(SeverityError, "metrics.backend", "unknown backend %q (want none or datadog)", c.Metrics.Backend)
	}

	if c.Limits.MaxUploadBytes <= 0 {
		add(SeverityError, "limits.max_upload_bytes", "must be > 0, got %d", c.Limits.MaxUploadBytes)
	}
	if c.Limits.MaxRows < 0 {
		add(SeverityError, "limits.max_rows", "must be >= 0, got %d", c.Limits.MaxRows)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		add(SeverityError, "log.level", "%v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		add(SeverityError, "log.format", "want text or json, got %q", c.Log.Format)
	}

	return issues
}

// ParseLevel parses a slog level name ("debug", "info", "warn", "error").
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
