package remote

import (
	"sync"
	"testing"
	"time"
)

type fakeRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (f *fakeRecorder) RecordActivity(user, action string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, user+": "+action)
}

func (f *fakeRecorder) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.entries...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestTriggerFiresOnce(t *testing.T) {
	rec := &fakeRecorder{}
	sim := NewSyncSimulator(rec, 10*time.Millisecond)
	defer sim.Close()

	sim.Trigger()

	if !waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 1 }) {
		t.Fatalf("entries = %v, want one completion", rec.snapshot())
	}

	got := rec.snapshot()[0]
	want := "System: Synced data to GitHub (simulated)"
	if got != want {
		t.Errorf("entry = %q, want %q", got, want)
	}

	// No second completion appears later.
	time.Sleep(30 * time.Millisecond)
	if n := len(rec.snapshot()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
}

func TestEachTriggerCompletesIndependently(t *testing.T) {
	rec := &fakeRecorder{}
	sim := NewSyncSimulator(rec, 10*time.Millisecond)
	defer sim.Close()

	sim.Trigger()
	sim.Trigger()
	sim.Trigger()

	if !waitFor(t, time.Second, func() bool { return len(rec.snapshot()) == 3 }) {
		t.Errorf("entries = %d, want 3", len(rec.snapshot()))
	}
}

func TestCloseCancelsPending(t *testing.T) {
	rec := &fakeRecorder{}
	sim := NewSyncSimulator(rec, 200*time.Millisecond)

	sim.Trigger()
	sim.Close()

	time.Sleep(300 * time.Millisecond)
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("entries = %d, want 0 after Close", n)
	}
}

func TestTriggerAfterCloseIsNoOp(t *testing.T) {
	rec := &fakeRecorder{}
	sim := NewSyncSimulator(rec, time.Millisecond)

	sim.Close()
	sim.Close() // idempotent
	sim.Trigger()

	time.Sleep(50 * time.Millisecond)
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}
