package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arifinrio95/auto-dashboard/internal/dashboard"
	"github.com/arifinrio95/auto-dashboard/internal/llm"
	"github.com/arifinrio95/auto-dashboard/internal/probe"
	"github.com/arifinrio95/auto-dashboard/internal/table"
)

const salesCSV = `region,units
EU,1
US,2
APAC,3
EU,4
`

const reply = "Units are **concentrated** in EU. <script>alert(1)</script>\n" +
	`[{"chart_type": "bar", "columns": ["region", "units"], "aggregation": "sum", "explanation": "Units by region"}]`

type countingRequester struct {
	reply string
	err   error
	calls int
}

func (r *countingRequester) RequestPlan(context.Context, []probe.ColumnProfile, *table.Table) (string, error) {
	r.calls++
	return r.reply, r.err
}

func newTestServer(t *testing.T, req dashboard.Requester) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(dashboard.NewPipeline(req, logger), Options{}, logger)
}

func upload(t *testing.T, srv http.Handler, name, body string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, body)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/runs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// TestServer_UploadAndRender verifies upload, redirect, run page and chart
// frame, with a single model request across re-renders.
func TestServer_UploadAndRender(t *testing.T) {
	t.Parallel()

	req := &countingRequester{reply: reply}
	srv := newTestServer(t, req)

	home := get(srv, "/")
	require.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), `enctype="multipart/form-data"`)

	rec := upload(t, srv, "sales.csv", salesCSV, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/runs/"), "Location = %q", loc)
	assert.Equal(t, 1, srv.Sessions().Len())

	page := get(srv, loc)
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, dashboard.LabelRows)
	assert.Contains(t, body, "<strong>concentrated</strong>")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, `name="filter" value="region"`)
	assert.Contains(t, body, loc+"/charts")

	charts := get(srv, loc+"/charts")
	require.Equal(t, http.StatusOK, charts.Code)
	assert.Contains(t, charts.Body.String(), "echarts")
	assert.Contains(t, charts.Body.String(), "Units by region")

	assert.Equal(t, 1, req.calls)
}

// TestServer_Filters verifies the submitted filter form narrows the rows and
// an unchecked control selects nothing.
func TestServer_Filters(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &countingRequester{reply: reply})
	loc := upload(t, srv, "sales.csv", salesCSV, nil).Header().Get("Location")
	require.NotEmpty(t, loc)

	tests := []struct {
		name  string
		query url.Values
		rows  string
	}{
		{"one region", url.Values{"filter": {"region"}, "v.region": {"EU"}}, "2"},
		{"nothing checked", url.Values{"filter": {"region"}}, "0"},
		{"where", url.Values{"where": {`region != "EU"`}}, "2"},
	}
	for _, tt := range tests {
		rec := get(srv, loc+"?"+tt.query.Encode())
		require.Equal(t, http.StatusOK, rec.Code, tt.name)
		body := rec.Body.String()
		assert.Contains(t, body, dashboard.LabelFiltered+"</dt><dd>"+tt.rows+"</dd>", tt.name)
	}
}

// TestServer_Errors verifies user errors map onto their HTTP status.
func TestServer_Errors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &countingRequester{reply: reply})

	tests := []struct {
		name string
		rec  *httptest.ResponseRecorder
		code int
		want string
	}{
		{"no file", upload(t, srv, "", "", nil), http.StatusBadRequest, "Choose a CSV file"},
		{"bad where", upload(t, srv, "sales.csv", salesCSV, map[string]string{"where": "region >"}), http.StatusBadRequest, "Invalid row filter"},
		{"empty csv", upload(t, srv, "sales.csv", "", nil), http.StatusUnprocessableEntity, "could not be read"},
		{"unknown run", get(srv, "/runs/3f1c8d1e-4a8b-4c1e-9d0a-1b2c3d4e5f60"), http.StatusNotFound, "expired"},
		{"malformed id", get(srv, "/runs/not-an-id/charts"), http.StatusNotFound, "expired"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.rec.Code, tt.name)
		assert.Contains(t, tt.rec.Body.String(), tt.want, tt.name)
	}
}

// TestServer_ModelFailure verifies a failed plan request is reported with
// the guidance and nothing is stored.
func TestServer_ModelFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &countingRequester{err: &llm.ModelUnavailableError{StatusCode: 529, Err: errors.New("overloaded")}})
	rec := upload(t, srv, "sales.csv", salesCSV, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No visualization plan could be requested")
	assert.Contains(t, body, "valid CSV file")
	assert.NotContains(t, body, "<iframe")
	assert.Equal(t, 0, srv.Sessions().Len())
}

// TestSessions_Expire verifies entries disappear after their TTL.
func TestSessions_Expire(t *testing.T) {
	t.Parallel()

	s := NewSessions(10 * time.Millisecond)
	id := s.Put("x.csv", &dashboard.Run{})
	_, ok := s.Get(id)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = s.Get(id)
	assert.False(t, ok)
}

// TestRenderCommentary verifies markdown rendering drops raw HTML.
func TestRenderCommentary(t *testing.T) {
	t.Parallel()

	assert.Empty(t, renderCommentary(""))
	got := string(renderCommentary("Use a *bar* chart.\n\n<img src=x onerror=alert(1)>"))
	assert.Contains(t, got, "<em>bar</em>")
	assert.NotContains(t, got, "onerror")
}
