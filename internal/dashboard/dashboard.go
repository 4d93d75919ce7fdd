// Package dashboard derives read-only summary statistics from a store
// snapshot. Everything here is a pure function of the snapshot and the
// supplied clock instant; nothing is cached or mutated.
package dashboard

import (
	"time"

	"siteledger/internal/ledger"
)

// Stats is the dashboard summary.
type Stats struct {
	ActiveProjects int `json:"activeProjects"`
	TeamMembers    int `json:"teamMembers"`
	CompletedTasks int `json:"completedTasks"`
	OverdueItems   int `json:"overdueItems"`
}

// Compute recomputes all dashboard counts from the snapshot.
//
// CompletedTasks counts projects whose status is "completed"; there is no
// separate task model.
func Compute(snap ledger.Snapshot, now time.Time) Stats {
	var st Stats

	for _, p := range snap.Projects {
		if p.Status == ledger.StatusActive {
			st.ActiveProjects++
		}
		if p.Status == ledger.StatusCompleted {
			st.CompletedTasks++
		}
		if p.Status != ledger.StatusCompleted && dueBefore(p.DueDate, now) {
			st.OverdueItems++
		}
	}

	st.TeamMembers = len(snap.Architects) + len(snap.Supervisors) + len(snap.Contractors)
	return st
}

// dueBefore reports whether the due date parses and falls before now. Due
// dates are stored as given and never validated, so anything unparseable
// simply never counts as overdue.
func dueBefore(due string, now time.Time) bool {
	if due == "" {
		return false
	}
	t, err := time.Parse("2006-01-02", due)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, due); err != nil {
			return false
		}
	}
	return t.Before(now)
}
