package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arifinrio95/auto-dashboard/internal/dashboard"
	"github.com/arifinrio95/auto-dashboard/internal/filter"
	"github.com/arifinrio95/auto-dashboard/internal/report"
	"github.com/arifinrio95/auto-dashboard/internal/source"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

// Query parameters of the run page. Every filter control submits its column
// under filterParam so an unchecked control still counts as present, and its
// checked options under valuePrefix+column.
const (
	filterParam = "filter"
	valuePrefix = "v."
	whereParam  = "where"
)

var uploadCharsets = []string{"windows-1250", "iso-8859-2", "windows-1252", "iso-8859-1"}

type indexView struct {
	MaxUploadMB int64
	Charsets    []string
}

type optionView struct {
	Value   string
	Checked bool
}

type controlView struct {
	Column  string
	Param   string
	Options []optionView
}

type runView struct {
	ID         string
	Title      string
	Failure    *report.Failure
	Items      []report.Item
	Commentary template.HTML
	Controls   []controlView
	Where      string
	ChartsURL  string
}

func (s *Server) getHome(c echo.Context) error {
	return c.Render(http.StatusOK, "index", indexView{
		MaxUploadMB: s.opts.MaxUploadBytes >> 20,
		Charsets:    uploadCharsets,
	})
}

// postRun loads the uploaded file, plans it and redirects to the new run.
// Load and plan failures are shown on the run page with the guidance text.
func (s *Server) postRun(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewUserVisibleError(http.StatusBadRequest, "Choose a CSV file to upload.")
	}
	whereExpr := strings.TrimSpace(c.FormValue(whereParam))
	if _, err := compileWhere(whereExpr); err != nil {
		return err
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	cfg := source.Config{
		Path:     fh.Filename,
		Reader:   f,
		Charset:  c.FormValue("charset"),
		Selector: c.FormValue("selector"),
		MaxBytes: s.opts.MaxUploadBytes,
		MaxRows:  s.opts.MaxRows,
	}
	load := func(ctx context.Context) (*table.Table, error) {
		return source.Load(ctx, cfg)
	}

	run, err := s.pipeline.Prepare(c.Request().Context(), load)
	if err != nil {
		rep := report.New(fh.Filename, nil)
		rep.Error(dashboard.Describe(err), dashboard.Guidance)
		return c.Render(http.StatusUnprocessableEntity, "run", runView{
			Title:   rep.Title,
			Failure: rep.Failure(),
		})
	}

	id := s.sessions.Put(fh.Filename, run)
	target := "/runs/" + id
	if whereExpr != "" {
		target += "?" + url.Values{whereParam: {whereExpr}}.Encode()
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// getRun shows the info, the filter form and a frame holding the charts.
func (s *Server) getRun(c echo.Context) error {
	id := c.Param("id")
	sess, rep, err := s.render(c, id)
	if err != nil {
		return err
	}

	view := runView{
		ID:       id,
		Title:    rep.Title,
		Failure:  rep.Failure(),
		Where:    c.QueryParam(whereParam),
		Controls: controlViews(rep.Controls(), c.QueryParams(), sess.Run.Controls),
	}
	for _, it := range rep.Items() {
		if it.Label == dashboard.LabelCommentary {
			continue
		}
		view.Items = append(view.Items, it)
	}
	view.Commentary = renderCommentary(sess.Run.Result.Commentary)

	status := http.StatusOK
	if view.Failure != nil {
		status = http.StatusUnprocessableEntity
	} else {
		view.ChartsURL = "/runs/" + id + "/charts"
		if q := c.QueryString(); q != "" {
			view.ChartsURL += "?" + q
		}
	}
	return c.Render(status, "run", view)
}

// getCharts writes the charts of a run as a standalone go-echarts page.
func (s *Server) getCharts(c echo.Context) error {
	_, rep, err := s.render(c, c.Param("id"))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := rep.WriteHTML(&buf); err != nil {
		return fmt.Errorf("write charts: %w", err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// render looks the session up and renders it with the request's filters.
// Filtering failures end up on the report, not in the returned error.
func (s *Server) render(c echo.Context, id string) (Session, *report.Report, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return Session{}, nil, NewUserVisibleError(http.StatusNotFound, "This dashboard has expired. Upload the file again.")
	}
	where, err := compileWhere(c.QueryParam(whereParam))
	if err != nil {
		return Session{}, nil, err
	}

	rep := report.New(sess.Name, selectionForm(c.QueryParams()))
	if _, err := sess.Run.Render(rep, where); err != nil {
		rep.Error(dashboard.Describe(err), dashboard.Guidance)
	}
	return sess, rep, nil
}

func compileWhere(expr string) (*filter.Where, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	w, err := filter.CompileWhere(expr)
	if err != nil {
		return nil, NewUserVisibleError(http.StatusBadRequest, fmt.Sprintf("Invalid row filter: %v", err))
	}
	return w, nil
}

// selectionForm rebuilds the submitted filter form, or nil when no filter
// form was submitted.
func selectionForm(q url.Values) map[string][]string {
	cols, ok := q[filterParam]
	if !ok {
		return nil
	}
	form := make(map[string][]string, len(cols))
	for _, col := range cols {
		form[col] = q[valuePrefix+col]
	}
	return form
}

func controlViews(shown []filter.Control, q url.Values, all []filter.Control) []controlView {
	if shown == nil {
		shown = all
	}
	form := selectionForm(q)
	out := make([]controlView, 0, len(shown))
	for _, ctl := range shown {
		checked := map[string]bool{}
		submitted, ok := form[ctl.Column]
		if !ok {
			for _, v := range ctl.Selected {
				checked[filter.Label(v)] = true
			}
		}
		for _, v := range submitted {
			checked[v] = true
		}

		cv := controlView{Column: ctl.Column, Param: valuePrefix + ctl.Column}
		for _, o := range ctl.Options {
			label := filter.Label(o)
			cv.Options = append(cv.Options, optionView{Value: label, Checked: checked[label]})
		}
		out = append(out, cv)
	}
	return out
}
