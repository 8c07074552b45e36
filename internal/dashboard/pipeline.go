package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/arifinrio95/auto-dashboard/internal/chart"
	"github.com/arifinrio95/auto-dashboard/internal/filter"
	"github.com/arifinrio95/auto-dashboard/internal/llm"
	"github.com/arifinrio95/auto-dashboard/internal/metrics"
	"github.com/arifinrio95/auto-dashboard/internal/plan"
	"github.com/arifinrio95/auto-dashboard/internal/probe"
	"github.com/arifinrio95/auto-dashboard/internal/source"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// Step names used for logging and metrics.
const (
	StepLoad    = "load"
	StepProfile = "profile"
	StepRequest = "request"
	StepParse   = "parse"
	StepRender  = "render"
)

// Requester obtains the raw model reply for a profiled table.
// *llm.Requester satisfies it.
type Requester interface {
	RequestPlan(ctx context.Context, profiles []probe.ColumnProfile, sample *table.Table) (string, error)
}

var _ Requester = (*llm.Requester)(nil)

// Loader produces the table for one run.
type Loader func(ctx context.Context) (*table.Table, error)

// Pipeline runs profile → request → parse and renders the result.
type Pipeline struct {
	requester Requester
	logger    *slog.Logger
}

// NewPipeline wires a Requester. A nil logger means slog.Default().
func NewPipeline(requester Requester, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{requester: requester, logger: logger}
}

// Run is the immutable outcome of Pipeline.Plan for one table. It can be
// rendered any number of times with different filter selections.
type Run struct {
	Table    *table.Table
	Profiles []probe.ColumnProfile
	Controls []filter.Control
	// Reply is the raw model reply.
	Reply  string
	Result plan.Result

	logger *slog.Logger
}

// Plan profiles t, requests a plan and parses it.
//
// Errors (all fatal to the run):
//   - *table.InvalidTableError from profiling
//   - *llm.ModelUnavailableError from the request
//   - *plan.ParseError when the reply holds no usable list
func (p *Pipeline) Plan(ctx context.Context, t *table.Table) (*Run, error) {
	var profiles []probe.ColumnProfile
	err := p.step(StepProfile, func() error {
		var err error
		profiles, err = probe.Profile(t)
		return err
	})
	if err != nil {
		return nil, err
	}

	var reply string
	err = p.step(StepRequest, func() error {
		var err error
		reply, err = p.requester.RequestPlan(ctx, profiles, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	var res plan.Result
	err = p.step(StepParse, func() error {
		var err error
		res, err = plan.Parse(reply)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPlanRecords(len(res.Plan), len(res.Rejected))
	for _, rj := range res.Rejected {
		p.logger.Warn("plan record dropped", "index", rj.Index, "reason", rj.Reason)
	}
	p.logger.Info("plan parsed",
		"rows", t.NumRows(),
		"columns", t.NumCols(),
		"charts", len(res.Plan),
		"rejected", len(res.Rejected),
	)

	return &Run{
		Table:    t,
		Profiles: profiles,
		Controls: filter.BuildControls(profiles),
		Reply:    reply,
		Result:   res,
		logger:   p.logger,
	}, nil
}

// Prepare loads the table and plans it without rendering. The server keeps
// the returned Run and renders it once per filter change.
func (p *Pipeline) Prepare(ctx context.Context, load Loader) (*Run, error) {
	var t *table.Table
	err := p.step(StepLoad, func() error {
		var err error
		t, err = load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.Plan(ctx, t)
}

// Execute loads the table, plans it and renders it onto s.
//
// Any top-level failure is reported once through s.Error with Guidance and
// returned; no chart is shown for a failed run.
func (p *Pipeline) Execute(ctx context.Context, load Loader, s Surface, where *filter.Where) (*Run, Stats, error) {
	run, err := p.Prepare(ctx, load)
	if err != nil {
		s.Error(Describe(err), Guidance)
		return nil, Stats{}, err
	}

	stats, err := run.Render(s, where)
	if err != nil {
		s.Error(Describe(err), Guidance)
		return run, stats, err
	}
	return run, stats, nil
}

func (p *Pipeline) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(name, err, time.Since(start))
	if err != nil {
		p.logger.Error("step failed", "step", name, "err", err)
	}
	return err
}

// Skip records one plan entry that produced no chart.
type Skip struct {
	Index     int
	ChartType string
	Err       error
}

// Stats summarizes one Render.
type Stats struct {
	Rows    int
	Charts  int
	Skipped []Skip
}

// Render shows the run's info and filter controls on s, filters the
// original table with the returned selection (then where, when non-nil)
// and shows one chart per plan entry in plan order.
//
// A plan entry that fails to build is logged, counted in Stats.Skipped and
// does not stop the remaining entries.
//
// Errors:
//   - filtering errors, including a where expression that fails on every
//     row; nothing is charted in that case
func (r *Run) Render(s Surface, where *filter.Where) (Stats, error) {
	start := time.Now()
	stats, err := r.render(s, where)
	metrics.RecordStep(StepRender, err, time.Since(start))
	return stats, err
}

func (r *Run) render(s Surface, where *filter.Where) (Stats, error) {
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}

	s.Info(LabelRows, strconv.Itoa(r.Table.NumRows()))
	s.Info(LabelColumns, strconv.Itoa(r.Table.NumCols()))
	if r.Result.Commentary != "" {
		s.Info(LabelCommentary, r.Result.Commentary)
	}
	if n := len(r.Result.Rejected); n > 0 {
		s.Info(LabelSkipped, strconv.Itoa(n))
	}

	sel := s.Filters(r.Controls)
	if sel == nil {
		sel = filter.DefaultSelection(r.Controls)
	}
	filtered, err := filter.Apply(r.Table, sel)
	if err != nil {
		return Stats{}, err
	}
	if where != nil {
		filtered, err = where.Apply(filtered)
		if err != nil {
			return Stats{}, err
		}
	}
	if filtered.NumRows() != r.Table.NumRows() {
		s.Info(LabelFiltered, strconv.Itoa(filtered.NumRows()))
	}

	stats := Stats{Rows: filtered.NumRows()}
	for i, spec := range r.Result.Plan {
		c, err := chart.Build(filtered, spec)
		metrics.RecordChart(chartKind(spec.ChartType), err)
		if err != nil {
			logger.Warn("chart skipped", "index", i, "chart_type", spec.ChartType, "err", err)
			stats.Skipped = append(stats.Skipped, Skip{Index: i, ChartType: spec.ChartType, Err: err})
			continue
		}
		s.Chart(c)
		stats.Charts++
	}
	return stats, nil
}

// chartKind bounds the metric label to registered kinds.
func chartKind(name string) string {
	if k, ok := chart.Lookup(name); ok {
		return string(k)
	}
	return "unsupported"
}

// Describe renders err as the single user-facing error line.
func Describe(err error) string {
	var (
		invalid *table.InvalidTableError
		model   *llm.ModelUnavailableError
		parse   *plan.ParseError
		load    *source.LoadError
	)
	switch {
	case errors.As(err, &invalid):
		return fmt.Sprintf("The uploaded data could not be read: %v", invalid)
	case errors.As(err, &load):
		return fmt.Sprintf("The uploaded data could not be read: %v", load)
	case errors.As(err, &model):
		return fmt.Sprintf("No visualization plan could be requested: %v", model)
	case errors.As(err, &parse):
		return fmt.Sprintf("The suggested visualizations could not be understood: %v", parse)
	default:
		return fmt.Sprintf("An error occurred: %v", err)
	}
}
