package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type observation struct {
	name   string
	value  float64
	labels Labels
}

// recordingBackend captures every call; it also implements Flusher.
type recordingBackend struct {
	mu       sync.Mutex
	counters []observation
	hists    []observation
	flushes  int
}

func (r *recordingBackend) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, observation{name, delta, labels})
}

func (r *recordingBackend) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hists = append(r.hists, observation{name, value, labels})
}

func (r *recordingBackend) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return nil
}

func install(t *testing.T) *recordingBackend {
	t.Helper()
	rb := &recordingBackend{}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })
	return rb
}

// TestRecordStep verifies step status labels and the duration observation.
func TestRecordStep(t *testing.T) {
	rb := install(t)

	RecordStep("profile", nil, 1500*time.Millisecond)
	RecordStep("request", errors.New("boom"), time.Second)

	if len(rb.counters) != 2 || len(rb.hists) != 2 {
		t.Fatalf("counters=%d hists=%d, want 2 and 2", len(rb.counters), len(rb.hists))
	}
	if got := rb.counters[0].labels["status"]; got != "ok" {
		t.Fatalf("status = %q, want ok", got)
	}
	if got := rb.counters[1].labels["status"]; got != "error" {
		t.Fatalf("status = %q, want error", got)
	}
	if rb.hists[0].name != StepDurationSeconds || rb.hists[0].value != 1.5 {
		t.Fatalf("hist = %+v, want %s 1.5", rb.hists[0], StepDurationSeconds)
	}
}

// TestRecordHTTP verifies 5xx responses are also counted as errors.
func TestRecordHTTP(t *testing.T) {
	tests := []struct {
		status     int
		wantErrors int
	}{
		{200, 0},
		{400, 0},
		{500, 1},
		{503, 1},
	}
	for _, tt := range tests {
		rb := install(t)
		RecordHTTP("/runs", tt.status, time.Millisecond)

		errs := 0
		for _, c := range rb.counters {
			if c.name == HTTPErrorsTotal {
				errs++
			}
		}
		if errs != tt.wantErrors {
			t.Fatalf("status %d: errors = %d, want %d", tt.status, errs, tt.wantErrors)
		}
	}
}

// TestFlush verifies Flush reaches buffering backends and is a no-op for the
// default backend.
func TestFlush(t *testing.T) {
	SetBackend(nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush(nop) = %v, want nil", err)
	}

	rb := install(t)
	if err := Flush(); err != nil {
		t.Fatalf("Flush = %v", err)
	}
	if rb.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", rb.flushes)
	}
}

// TestRecordChart_DefaultsKind verifies an empty kind is labelled unknown.
func TestRecordChart_DefaultsKind(t *testing.T) {
	rb := install(t)
	RecordChart("", errors.New("x"))
	if got := rb.counters[0].labels["kind"]; got != "unknown" {
		t.Fatalf("kind = %q, want unknown", got)
	}
}
