package ledger

import (
	"bytes"
	"errors"
	"strconv"
	"time"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// ErrReadOnly is returned when a mutation is attempted while the current
// role is read-only. The store is left untouched and nothing is logged.
var ErrReadOnly = errors.New("read-only role")

// ErrInvalidSnapshot is returned when an imported or persisted snapshot
// cannot be parsed.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Role gates whether callers may invoke mutating operations.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReadOnly Role = "readonly"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleReadOnly:
		return true
	default:
		return false
	}
}

// Activity actor labels used throughout the store.
const (
	ActorUser   = "User"
	ActorSystem = "System"
)

// Amount is a non-negative monetary or rate value. It tolerates
// string-encoded numbers in JSON input (form fields arrive as strings);
// anything unparseable decodes as 0.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount(parseFlexFloat(data))
	return nil
}

// Count is a small non-negative integer (progress, years of experience).
// Like Amount it tolerates string-encoded numbers and decodes parse
// failures as 0. Fractional input is truncated.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count(parseFlexFloat(data))
	return nil
}

func parseFlexFloat(data []byte) float64 {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Meta is the metadata shared by every entity kind. It is embedded in the
// kind structs so the JSON shape stays flat, matching the snapshot format.
type Meta struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	LastUpdated time.Time `json:"lastUpdated,omitzero"`
}

func (m Meta) EntityID() string { return m.ID }

func (m Meta) DisplayName() string { return m.Name }

func (m *Meta) meta() *Meta { return m }

// Entity is satisfied by every entity kind via the embedded Meta.
type Entity interface {
	EntityID() string
	DisplayName() string
}

type Project struct {
	Meta
	Location string `json:"location,omitempty"`
	Budget   Amount `json:"budget"`
	DueDate  string `json:"dueDate,omitempty"`
	Progress Count  `json:"progress"`
}

func (p *Project) kind() Kind { return KindProject }

func (p *Project) normalize() {
	p.Status = KindProject.normalizeStatus(p.Status)
	if p.Budget < 0 {
		p.Budget = 0
	}
	if p.Progress < 0 {
		p.Progress = 0
	}
	if p.Progress > 100 {
		p.Progress = 100
	}
}

type Architect struct {
	Meta
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	License        string `json:"license,omitempty"`
	Experience     Count  `json:"experience"`
}

func (a *Architect) kind() Kind { return KindArchitect }

func (a *Architect) normalize() {
	a.Status = KindArchitect.normalizeStatus(a.Status)
	if a.Experience < 0 {
		a.Experience = 0
	}
}

type Supervisor struct {
	Meta
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Department     string `json:"department,omitempty"`
	Certifications string `json:"certifications,omitempty"`
}

func (s *Supervisor) kind() Kind { return KindSupervisor }

func (s *Supervisor) normalize() {
	s.Status = KindSupervisor.normalizeStatus(s.Status)
}

type Contractor struct {
	Meta
	Company    string `json:"company,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Trade      string `json:"trade,omitempty"`
	HourlyRate Amount `json:"hourlyRate"`
}

func (c *Contractor) kind() Kind { return KindContractor }

func (c *Contractor) normalize() {
	c.Status = KindContractor.normalizeStatus(c.Status)
	if c.HourlyRate < 0 {
		c.HourlyRate = 0
	}
}

// Activity is one append-only log entry. Entries are never edited.
type Activity struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the complete serializable state of the store. It is also the
// export/import wire shape and the persisted document.
type Snapshot struct {
	Projects    []Project    `json:"projects"`
	Architects  []Architect  `json:"architects"`
	Supervisors []Supervisor `json:"supervisors"`
	Contractors []Contractor `json:"contractors"`
	Activities  []Activity   `json:"activities"`
	UserRole    Role         `json:"userRole"`
}

func defaultSnapshot() Snapshot {
	s := Snapshot{UserRole: RoleAdmin}
	s.ensureCollections()
	return s
}

// ensureCollections replaces nil slices so snapshots always serialize
// collections as arrays, never null.
func (s *Snapshot) ensureCollections() {
	if s.Projects == nil {
		s.Projects = []Project{}
	}
	if s.Architects == nil {
		s.Architects = []Architect{}
	}
	if s.Supervisors == nil {
		s.Supervisors = []Supervisor{}
	}
	if s.Contractors == nil {
		s.Contractors = []Contractor{}
	}
	if s.Activities == nil {
		s.Activities = []Activity{}
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Projects = append([]Project(nil), s.Projects...)
	out.Architects = append([]Architect(nil), s.Architects...)
	out.Supervisors = append([]Supervisor(nil), s.Supervisors...)
	out.Contractors = append([]Contractor(nil), s.Contractors...)
	out.Activities = append([]Activity(nil), s.Activities...)
	out.ensureCollections()
	return out
}
