package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"siteledger/internal/metrics"
)

// Persister is the durable storage collaborator. Load returns the last
// saved snapshot document; ok is false when nothing has been saved yet.
// Save replaces the whole document.
type Persister interface {
	Load() (data []byte, ok bool, err error)
	Save(data []byte) error
}

// Store owns the four entity collections, the activity log, and the role
// flag. Every mutation writes the full snapshot through the Persister
// before returning. A single mutex serializes all access; handlers may
// call from any goroutine.
type Store struct {
	mu        sync.Mutex
	snap      Snapshot
	persister Persister
}

// Options controls store construction.
type Options struct {
	// Seed loads the sample data set when the projects collection is empty.
	Seed bool
}

// New constructs the store: defaults first, then the persisted snapshot
// shallow-merged over them (present top-level keys replace, missing keys
// keep defaults), then optional seeding. A corrupt persisted snapshot is a
// hard error.
func New(p Persister, opts Options) (*Store, error) {
	s := &Store{persister: p, snap: defaultSnapshot()}

	data, ok, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if ok {
		if err := json.Unmarshal(data, &s.snap); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		s.snap.ensureCollections()
		if !s.snap.UserRole.IsValid() {
			s.snap.UserRole = RoleAdmin
		}
	}

	if opts.Seed && len(s.snap.Projects) == 0 {
		s.seedLocked()
	}

	return s, nil
}

// record is implemented by pointers to every entity kind.
type record interface {
	meta() *Meta
	kind() Kind
	normalize()
}

func (s *Store) Projects() []Project       { return listRecords(s, &s.snap.Projects) }
func (s *Store) Architects() []Architect   { return listRecords(s, &s.snap.Architects) }
func (s *Store) Supervisors() []Supervisor { return listRecords(s, &s.snap.Supervisors) }
func (s *Store) Contractors() []Contractor { return listRecords(s, &s.snap.Contractors) }

func (s *Store) CreateProject(p Project) (Project, error) {
	return createRecord(s, &s.snap.Projects, &p)
}

func (s *Store) CreateArchitect(a Architect) (Architect, error) {
	return createRecord(s, &s.snap.Architects, &a)
}

func (s *Store) CreateSupervisor(sv Supervisor) (Supervisor, error) {
	return createRecord(s, &s.snap.Supervisors, &sv)
}

func (s *Store) CreateContractor(c Contractor) (Contractor, error) {
	return createRecord(s, &s.snap.Contractors, &c)
}

func (s *Store) UpdateProject(id string, p Project) (Project, error) {
	return updateRecord(s, &s.snap.Projects, id, &p)
}

func (s *Store) UpdateArchitect(id string, a Architect) (Architect, error) {
	return updateRecord(s, &s.snap.Architects, id, &a)
}

func (s *Store) UpdateSupervisor(id string, sv Supervisor) (Supervisor, error) {
	return updateRecord(s, &s.snap.Supervisors, id, &sv)
}

func (s *Store) UpdateContractor(id string, c Contractor) (Contractor, error) {
	return updateRecord(s, &s.snap.Contractors, id, &c)
}

func (s *Store) DeleteProject(id string) error {
	return deleteRecord[Project, *Project](s, &s.snap.Projects, id)
}

func (s *Store) DeleteArchitect(id string) error {
	return deleteRecord[Architect, *Architect](s, &s.snap.Architects, id)
}

func (s *Store) DeleteSupervisor(id string) error {
	return deleteRecord[Supervisor, *Supervisor](s, &s.snap.Supervisors, id)
}

func (s *Store) DeleteContractor(id string) error {
	return deleteRecord[Contractor, *Contractor](s, &s.snap.Contractors, id)
}

// listRecords returns a copy of the collection in insertion order.
func listRecords[T any](s *Store, col *[]T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(*col))
	copy(out, *col)
	return out
}

// createRecord is the single create path for all kinds: role gate, name
// check, fresh ID, defaults, append, activity entry, persist.
func createRecord[T any, PT interface {
	*T
	record
}](s *Store, col *[]T, v PT) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if err := s.writableLocked(); err != nil {
		return zero, err
	}

	m := v.meta()
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return zero, fmt.Errorf("%s name is required", v.kind().Noun())
	}

	m.ID = uuid.New().String()
	m.CreatedAt = time.Now().UTC()
	m.LastUpdated = time.Time{}
	v.normalize()

	*col = append(*col, *v)

	sp := v.kind().spec()
	s.appendActivityLocked(ActorUser, fmt.Sprintf("%s %s: %s", sp.createVerb, sp.noun, m.Name))
	metrics.RecordMutation(string(v.kind()), "create")
	s.persistLocked()
	return *v, nil
}

// updateRecord replaces the full field set of the record with the given ID,
// preserving ID and creation time and stamping a new last-updated time.
func updateRecord[T any, PT interface {
	*T
	record
}](s *Store, col *[]T, id string, v PT) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if err := s.writableLocked(); err != nil {
		return zero, err
	}

	idx := indexOf[T, PT](*col, id)
	if idx < 0 {
		return zero, fmt.Errorf("%s %s: %w", v.kind().Noun(), id, ErrNotFound)
	}

	m := v.meta()
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return zero, fmt.Errorf("%s name is required", v.kind().Noun())
	}

	old := PT(&(*col)[idx]).meta()
	m.ID = old.ID
	m.CreatedAt = old.CreatedAt
	m.LastUpdated = time.Now().UTC()
	v.normalize()

	(*col)[idx] = *v

	s.appendActivityLocked(ActorUser, fmt.Sprintf("Updated %s: %s", v.kind().Noun(), m.Name))
	metrics.RecordMutation(string(v.kind()), "update")
	s.persistLocked()
	return *v, nil
}

// deleteRecord removes the record with the given ID. A missing ID is an
// explicit ErrNotFound: nothing is logged and nothing is persisted.
func deleteRecord[T any, PT interface {
	*T
	record
}](s *Store, col *[]T, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return err
	}

	idx := indexOf[T, PT](*col, id)
	if idx < 0 {
		var probe T
		return fmt.Errorf("%s %s: %w", PT(&probe).kind().Noun(), id, ErrNotFound)
	}

	name := PT(&(*col)[idx]).meta().Name
	kind := PT(&(*col)[idx]).kind()
	*col = append((*col)[:idx], (*col)[idx+1:]...)

	s.appendActivityLocked(ActorUser, fmt.Sprintf("Deleted %s: %s", kind.Noun(), name))
	metrics.RecordMutation(string(kind), "delete")
	s.persistLocked()
	return nil
}

func indexOf[T any, PT interface {
	*T
	record
}](col []T, id string) int {
	for i := range col {
		if PT(&col[i]).meta().ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) writableLocked() error {
	if s.snap.UserRole == RoleReadOnly {
		return ErrReadOnly
	}
	return nil
}

// Role returns the current role flag.
func (s *Store) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.UserRole
}

// SetRole replaces the role flag and persists. It is never gated by the
// current role, otherwise a read-only store could not be unlocked.
func (s *Store) SetRole(r Role) error {
	if !r.IsValid() {
		return fmt.Errorf("unknown role %q", r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.UserRole = r
	s.persistLocked()
	return nil
}

// RecordActivity appends one entry to the activity log and persists. Used
// internally by every mutation and externally for cross-cutting events
// (imports, sync attempts).
func (s *Store) RecordActivity(user, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendActivityLocked(user, action)
	s.persistLocked()
}

// RecentActivity returns up to n of the most recent entries, newest first.
func (s *Store) RecentActivity(n int) []Activity {
	s.mu.Lock()
	defer s.mu.Unlock()

	acts := s.snap.Activities
	if n > len(acts) {
		n = len(acts)
	}
	out := make([]Activity, 0, n)
	for i := len(acts) - 1; i >= len(acts)-n; i-- {
		out = append(out, acts[i])
	}
	return out
}

// Snapshot returns a copy of the complete store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Export serializes the full store state, human-readably formatted.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.snap, "", "  ")
}

// ExportFilename returns the date-stamped download name for an export.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("siteledger_data_%s.json", t.Format("2006-01-02"))
}

// Import parses an untrusted snapshot and shallow-merges it over the
// current state: top-level keys present in the payload replace the current
// collections wholesale, missing keys keep current state. On parse failure
// nothing changes.
func (s *Store) Import(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.clone()
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	next.ensureCollections()
	if !next.UserRole.IsValid() {
		next.UserRole = s.snap.UserRole
	}

	s.snap = next
	s.appendActivityLocked(ActorUser, "Imported data")
	s.persistLocked()
	return nil
}

func (s *Store) appendActivityLocked(user, action string) {
	s.snap.Activities = append(s.snap.Activities, Activity{
		ID:        uuid.New().String(),
		User:      user,
		Action:    action,
		Timestamp: time.Now().UTC(),
	})
}

// persistLocked writes the whole snapshot synchronously. A failed write is
// a warning, not an error: the in-memory state remains authoritative.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.snap)
	if err != nil {
		slog.Error("marshalling snapshot", "error", err)
		metrics.RecordSnapshotSave("error")
		return
	}
	if err := s.persister.Save(data); err != nil {
		slog.Warn("persisting snapshot failed; in-memory state remains authoritative", "error", err)
		metrics.RecordSnapshotSave("error")
		return
	}
	metrics.RecordSnapshotSave("ok")
}
