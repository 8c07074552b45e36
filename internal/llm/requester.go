package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arifinrio95/auto-dashboard/internal/probe"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// Requester builds the plan prompt and sends it through a Completer.
type Requester struct {
	cfg       Config
	completer Completer
	logger    *slog.Logger
}

// NewRequester wires a Completer with cfg. A nil logger means slog.Default().
func NewRequester(cfg Config, completer Completer, logger *slog.Logger) *Requester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Requester{cfg: cfg.withDefaults(), completer: completer, logger: logger}
}

// SampleRows is the number of leading rows RequestPlan embeds.
func (r *Requester) SampleRows() int { return r.cfg.SampleRows }

// RequestPlan sends exactly one request describing profiles and sample and
// returns the reply text unmodified.
//
// The request runs under cfg.Timeout on top of ctx. sample is truncated to
// cfg.SampleRows.
//
// Errors:
//   - every completer failure is returned as *ModelUnavailableError
func (r *Requester) RequestPlan(ctx context.Context, profiles []probe.ColumnProfile, sample *table.Table) (string, error) {
	if sample != nil {
		sample = sample.Head(r.cfg.SampleRows)
	}
	prompt := BuildPrompt(profiles, sample)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := r.completer.Complete(ctx, prompt, r.cfg.MaxTokens)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("plan request failed",
			"model", r.cfg.Model,
			"elapsed", elapsed,
			"err", err,
		)
		var mue *ModelUnavailableError
		if errors.As(err, &mue) {
			return "", err
		}
		return "", &ModelUnavailableError{Err: err}
	}

	r.logger.Info("plan request done",
		"model", r.cfg.Model,
		"prompt_bytes", len(prompt),
		"reply_bytes", len(text),
		"elapsed", elapsed,
	)
	return text, nil
}
