package source

import (
	"context"
	"log/slog"

	"github.com/arifinrio95/auto-dashboard/internal/table"
)

func init() {
	Register(KindCSV, loadCSV)
}

func loadCSV(ctx context.Context, cfg Config) (*table.Table, error) {
	rc, err := open(cfg)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	skipped := 0
	t, err := table.ReadCSV(rc, table.ReadOptions{
		Comma:    cfg.Comma,
		Charset:  cfg.Charset,
		MaxBytes: cfg.MaxBytes,
		OnSkip: func(line int, err error) {
			skipped++
			slog.DebugContext(ctx, "csv row skipped", "line", line, "err", err)
		},
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "csv rows skipped", "path", cfg.Path, "skipped", skipped)
	}
	return t, nil
}
