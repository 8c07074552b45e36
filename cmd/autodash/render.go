package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arifinrio95/auto-dashboard/internal/dashboard"
	"github.com/arifinrio95/auto-dashboard/internal/filter"
	"github.com/arifinrio95/auto-dashboard/internal/llm"
	"github.com/arifinrio95/auto-dashboard/internal/report"
)

type renderOptions struct {
	src     sourceFlags
	out     string
	title   string
	where   string
	filters []string
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	o := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Build a static HTML dashboard for one table",
		Long: `render profiles the input, asks the model for a chart plan and writes
the dashboard as a standalone HTML page. A plain-text summary is printed to
stdout. Use --out - to write the HTML page to stdout instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.Context(), root, o)
		},
	}
	o.src.register(cmd.Flags())
	cmd.Flags().StringVarP(&o.out, "out", "o", "report.html", "output HTML file, or - for stdout")
	cmd.Flags().StringVar(&o.title, "title", "", "report title (default: input file name)")
	cmd.Flags().StringVarP(&o.where, "where", "w", "", `row filter expression, e.g. 'region == "EU" and channel != "web"'`)
	cmd.Flags().StringArrayVarP(&o.filters, "filter", "f", nil, "column=v1,v2 filter selection (repeatable; column= selects nothing)")
	return cmd
}

func runRender(ctx context.Context, root *rootOptions, o *renderOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Input errors first: they need neither config nor model.
	var where *filter.Where
	if o.where != "" {
		w, err := filter.CompileWhere(o.where)
		if err != nil {
			return fmt.Errorf("--where: %w", err)
		}
		where = w
	}
	var form map[string][]string
	if len(o.filters) > 0 {
		f, err := filter.ParseAssignments(o.filters)
		if err != nil {
			return fmt.Errorf("--filter: %w", err)
		}
		form = f
	}

	cfg, logger, err := root.load(true, "")
	if err != nil {
		return err
	}
	srcCfg, err := o.src.config(cfg.Limits)
	if err != nil {
		return err
	}

	closeMetrics := setupMetrics(ctx, cfg.Metrics, logger)
	defer closeMetrics()

	llmCfg := cfg.LLM()
	client, err := llm.NewAnthropic(llmCfg)
	if err != nil {
		return err
	}
	pipeline := dashboard.NewPipeline(llm.NewRequester(llmCfg, client, logger), logger)

	title := o.title
	if title == "" {
		title = o.src.title()
	}
	rep := report.New(title, form)
	_, stats, runErr := pipeline.Execute(ctx, loader(srcCfg), rep, where)
	for _, col := range rep.UnknownFilters() {
		logger.Warn("filter ignored: column has no filter control", "column", col)
	}
	for _, sk := range stats.Skipped {
		logger.Info("suggestion skipped", "index", sk.Index, "chart_type", sk.ChartType, "err", sk.Err)
	}

	if err := writeReport(rep, o.out, root.stdout); err != nil {
		return err
	}
	if o.out != "-" {
		if err := rep.WriteText(root.stdout); err != nil {
			return err
		}
		logger.Info("report written", "path", o.out, "charts", stats.Charts, "rows", stats.Rows)
	}
	return runErr
}

func writeReport(rep *report.Report, path string, stdout io.Writer) error {
	if path == "-" {
		return rep.WriteHTML(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := rep.WriteHTML(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
