// Package remote simulates the external sync integration. There is no real
// network protocol: a trigger schedules one deferred completion notification
// and nothing else.
package remote

import (
	"log/slog"
	"sync"
	"time"

	"siteledger/internal/ledger"
)

// ActivityRecorder is the slice of the record store the simulator needs.
type ActivityRecorder interface {
	RecordActivity(user, action string)
}

// SyncSimulator schedules simulated sync completions. Each Trigger starts
// one timer that, unless the simulator is closed first, fires once and
// appends one activity entry.
type SyncSimulator struct {
	rec   ActivityRecorder
	delay time.Duration

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewSyncSimulator builds a simulator appending completions to rec after
// delay.
func NewSyncSimulator(rec ActivityRecorder, delay time.Duration) *SyncSimulator {
	return &SyncSimulator{
		rec:   rec,
		delay: delay,
		done:  make(chan struct{}),
	}
}

// Trigger schedules one deferred completion and returns immediately.
func (s *SyncSimulator) Trigger() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	done := s.done
	s.mu.Unlock()

	timer := time.NewTimer(s.delay)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			s.rec.RecordActivity(ledger.ActorSystem, "Synced data to GitHub (simulated)")
		case <-done:
			slog.Debug("sync simulation cancelled")
		}
	}()
}

// Close cancels all pending completions. Further triggers are no-ops.
func (s *SyncSimulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}
