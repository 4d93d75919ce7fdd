package ledger

// Kind identifies one of the four entity collections.
type Kind string

const (
	KindProject    Kind = "project"
	KindArchitect  Kind = "architect"
	KindSupervisor Kind = "supervisor"
	KindContractor Kind = "contractor"
)

// Project statuses.
const (
	StatusPlanning  = "planning"
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusOverdue   = "overdue"
)

// Personnel statuses shared by architects, supervisors, and contractors.
const (
	StatusInactive  = "inactive"
	StatusOnLeave   = "on-leave"
	StatusOnProject = "on-project"
)

type kindSpec struct {
	noun          string
	createVerb    string
	statuses      []string
	defaultStatus string
}

// kinds is the single table of kind-specific behavior: activity wording,
// allowed statuses, and the status default.
var kinds = map[Kind]kindSpec{
	KindProject: {
		noun:          "project",
		createVerb:    "Created",
		statuses:      []string{StatusPlanning, StatusActive, StatusPending, StatusCompleted, StatusOverdue},
		defaultStatus: StatusPlanning,
	},
	KindArchitect: {
		noun:          "architect",
		createVerb:    "Added",
		statuses:      []string{StatusActive, StatusInactive, StatusOnLeave},
		defaultStatus: StatusActive,
	},
	KindSupervisor: {
		noun:          "supervisor",
		createVerb:    "Added",
		statuses:      []string{StatusActive, StatusInactive, StatusOnLeave},
		defaultStatus: StatusActive,
	},
	KindContractor: {
		noun:          "contractor",
		createVerb:    "Added",
		statuses:      []string{StatusActive, StatusInactive, StatusOnProject},
		defaultStatus: StatusActive,
	},
}

func (k Kind) spec() kindSpec { return kinds[k] }

// Noun returns the lowercase singular noun for the kind ("project").
func (k Kind) Noun() string { return k.spec().noun }

// normalizeStatus maps an empty or out-of-set status to the kind default.
func (k Kind) normalizeStatus(status string) string {
	sp := k.spec()
	for _, s := range sp.statuses {
		if status == s {
			return status
		}
	}
	return sp.defaultStatus
}
