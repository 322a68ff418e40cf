package metrics

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu       sync.Mutex
	counters map[string]float64
	hist     []Labels
	flushes  int
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name+"/"+labels["stage"]] += delta
}

func (r *recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hist = append(r.hist, labels)
}

func (r *recorder) Flush() error {
	r.flushes++
	return nil
}

// TestFacade_RoutesToBackend verifies the helpers reach the installed
// backend and that a nil backend falls back to the no-op one.
//
// Not parallel: the backend is process-wide.
func TestFacade_RoutesToBackend(t *testing.T) {
	r := &recorder{counters: map[string]float64{}}
	SetBackend(r)
	t.Cleanup(func() { SetBackend(nil) })

	RecordFields(StageCollected, 3)
	RecordFields(StageCollected, 2)
	RecordFields(StageFilled, 0)
	RecordRun("facts", "ok", 1500*time.Millisecond)
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := r.counters[FieldsTotal+"/collected"]; got != 5 {
		t.Fatalf("collected: want 5 got %v", got)
	}
	if _, ok := r.counters[FieldsTotal+"/filled"]; ok {
		t.Fatalf("zero deltas should not be recorded")
	}
	if len(r.hist) != 1 || r.hist[0]["flow"] != "facts" || r.hist[0]["status"] != "ok" {
		t.Fatalf("histogram labels: %v", r.hist)
	}
	if r.flushes != 1 {
		t.Fatalf("want 1 flush got %d", r.flushes)
	}

	SetBackend(nil)
	RecordFields(StageCollected, 1)
	if err := Flush(); err != nil {
		t.Fatalf("nop Flush: %v", err)
	}
}
