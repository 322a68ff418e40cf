// Package metrics is a small facade over pluggable metric backends. Callers
// record through the package functions; the process picks one backend at
// startup with SetBackend. Until then everything goes to a no-op backend.
package metrics

import (
	"sync"
	"time"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric events.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered data, if the backend buffers.
	Flush() error
}

// Metric names.
const (
	// FieldsTotal counts fields per pipeline stage (label "stage").
	FieldsTotal = "autofill_fields_total"
	// RunDurationSeconds times whole runs (labels "flow" and "status").
	RunDurationSeconds = "autofill_run_duration_seconds"
)

// Stages of the fields counter.
const (
	StageCollected = "collected"
	StageEligible  = "eligible"
	StageMatched   = "matched"
	StageFilled    = "filled"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b for the whole process. A nil b restores the no-op backend.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush flushes the installed backend.
func Flush() error { return current().Flush() }

// RecordFields adds n to the fields counter of stage.
func RecordFields(stage string, n int) {
	if n <= 0 {
		return
	}
	IncCounter(FieldsTotal, float64(n), Labels{"stage": stage})
}

// RecordRun observes the duration of one flow run.
func RecordRun(flow, status string, d time.Duration) {
	ObserveHistogram(RunDurationSeconds, d.Seconds(), Labels{"flow": flow, "status": status})
}
