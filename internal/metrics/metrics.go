// Package metrics is a small facade over a pluggable metrics backend.
//
// Pipeline code calls the package-level helpers (RecordStep, RecordChart,
// RecordPlanRecords, RecordHTTP) and never imports a concrete backend. The
// default backend drops everything; cmd/autodash installs a real one with
// SetBackend when METRICS_BACKEND asks for it.
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Labels are metric dimensions. Backends decide which keys they keep.
type Labels map[string]string

// Backend receives counter increments and histogram observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer.
type Flusher interface {
	Flush() error
}

// Metric names.
const (
	StepTotal           = "autodash_step_total"
	StepDurationSeconds = "autodash_step_duration_seconds"
	ChartsTotal         = "autodash_charts_total"
	PlanRecordsTotal    = "autodash_plan_records_total"
	HTTPRequestsTotal   = "autodash_http_requests_total"
	HTTPErrorsTotal     = "autodash_http_errors_total"
	HTTPDurationSeconds = "autodash_http_request_duration_seconds"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. A nil b restores the nop backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter forwards to the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram forwards to the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush flushes the installed backend if it buffers. Otherwise it is a no-op.
func Flush() error {
	if f, ok := current().(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// RecordStep counts one pipeline step and its duration. status is "ok"
// when err is nil, else "error".
func RecordStep(step string, err error, d time.Duration) {
	l := Labels{"step": step, "status": statusOf(err)}
	IncCounter(StepTotal, 1, l)
	ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
}

// RecordChart counts one chart build attempt.
func RecordChart(kind string, err error) {
	if kind == "" {
		kind = "unknown"
	}
	IncCounter(ChartsTotal, 1, Labels{"kind": kind, "status": statusOf(err)})
}

// RecordPlanRecords counts accepted and rejected plan records.
func RecordPlanRecords(accepted, rejected int) {
	IncCounter(PlanRecordsTotal, float64(accepted), Labels{"status": "accepted"})
	IncCounter(PlanRecordsTotal, float64(rejected), Labels{"status": "rejected"})
}

// RecordHTTP records one served request. Status codes >= 500 also count as
// errors.
func RecordHTTP(route string, status int, d time.Duration) {
	l := Labels{"route": route, "status": strconv.Itoa(status)}
	IncCounter(HTTPRequestsTotal, 1, l)
	if status >= 500 {
		IncCounter(HTTPErrorsTotal, 1, l)
	}
	ObserveHistogram(HTTPDurationSeconds, d.Seconds(), l)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
