package inspect

import (
	"sync/atomic"

	"github.com/signalsfoundry/itemglow/core"
)

// Store hands engine state from the tick goroutine to RPC handlers. The
// engine itself is single-threaded; handlers only ever see published copies
// and queue commands for the tick goroutine to drain.
type Store struct {
	latest atomic.Pointer[published]
	reset  atomic.Bool
}

// published pairs a snapshot with the report of the tick that produced it,
// so readers never observe one tick's snapshot with another tick's report.
type published struct {
	snap   core.Snapshot
	report core.TickReport
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// Publish records the state after a tick.
func (s *Store) Publish(snap core.Snapshot, report core.TickReport) {
	s.latest.Store(&published{snap: snap, report: report})
}

// Latest returns the most recently published state.
func (s *Store) Latest() (core.Snapshot, core.TickReport, bool) {
	p := s.latest.Load()
	if p == nil {
		return core.Snapshot{}, core.TickReport{}, false
	}
	return p.snap, p.report, true
}

// RequestReset asks the tick goroutine to clear the engine. Requests made
// before the next drain collapse into one.
func (s *Store) RequestReset() { s.reset.Store(true) }

// TakeReset reports whether a reset was requested since the last call.
func (s *Store) TakeReset() bool { return s.reset.Swap(false) }
