// Package status exposes liveness and the outcome of the last check cycle over HTTP.
package status

import (
	"sync"
	"time"

	"github.com/Houeta/heidi/internal/services/checker"
)

// Tracker remembers the most recent cycle outcome. It is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	startedAt time.Time
	cycles    int
	failures  int
	last      *checker.Report
	lastErr   string
}

func NewTracker() *Tracker {
	return &Tracker{startedAt: time.Now()}
}

// Record stores the outcome of a cycle. It matches the poller's report hook.
func (t *Tracker) Record(report *checker.Report, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cycles++
	if err != nil {
		t.failures++
		t.lastErr = err.Error()
		return
	}
	t.last = report
	t.lastErr = ""
}

// Snapshot is a point-in-time copy of the tracker state.
type Snapshot struct {
	StartedAt  time.Time       `json:"started_at"`
	Cycles     int             `json:"cycles"`
	Failures   int             `json:"failures"`
	LastReport *checker.Report `json:"last_report,omitempty"`
	LastError  string          `json:"last_error,omitempty"`
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		StartedAt: t.startedAt,
		Cycles:    t.cycles,
		Failures:  t.failures,
		LastError: t.lastErr,
	}
	if t.last != nil {
		report := *t.last
		s.LastReport = &report
	}
	return s
}
