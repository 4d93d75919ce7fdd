package ledger

import (
	"time"

	"github.com/google/uuid"
)

// seedLocked loads the sample data set. Called during construction only,
// before the store is shared, when the projects collection is empty. The
// whole grouped seed persists exactly once at the end.
func (s *Store) seedLocked() {
	now := time.Now().UTC()
	date := func(days int) string { return now.AddDate(0, 0, days).Format("2006-01-02") }

	s.snap.Projects = []Project{
		{
			Meta: Meta{
				ID:        uuid.New().String(),
				Name:      "Downtown Office Complex",
				Status:    StatusActive,
				Notes:     "Major commercial development project.",
				CreatedAt: now,
			},
			Location: "123 Main Street",
			Budget:   2500000,
			DueDate:  date(120),
			Progress: 35,
		},
		{
			Meta: Meta{
				ID:        uuid.New().String(),
				Name:      "Residential Tower",
				Status:    StatusPlanning,
				Notes:     "High-rise residential building.",
				CreatedAt: now,
			},
			Location: "456 Oak Avenue",
			Budget:   1800000,
			DueDate:  date(-30),
			Progress: 15,
		},
	}

	s.snap.Architects = []Architect{
		{
			Meta: Meta{
				ID:        uuid.New().String(),
				Name:      "Sarah Johnson",
				Status:    StatusActive,
				Notes:     "Expert in sustainable design.",
				CreatedAt: now,
			},
			Email:          "sarah@example.com",
			Phone:          "(555) 123-4567",
			Specialization: "Commercial Architecture",
			License:        "CA-ARCH-001",
			Experience:     12,
		},
	}

	s.snap.Supervisors = []Supervisor{
		{
			Meta: Meta{
				ID:        uuid.New().String(),
				Name:      "Mike Thompson",
				Status:    StatusActive,
				Notes:     "Excellent safety record.",
				CreatedAt: now,
			},
			Email:          "mike@example.com",
			Phone:          "(555) 234-5678",
			Department:     "Construction Management",
			Certifications: "OSHA 30, PMP",
		},
	}

	s.snap.Contractors = []Contractor{
		{
			Meta: Meta{
				ID:        uuid.New().String(),
				Name:      "David Martinez",
				Status:    StatusActive,
				Notes:     "20 years experience.",
				CreatedAt: now,
			},
			Company:    "Elite Construction LLC",
			Email:      "david@example.com",
			Phone:      "(555) 345-6789",
			Trade:      "General Contractor",
			HourlyRate: 75,
		},
	}

	s.appendActivityLocked(ActorSystem, "Application initialized with sample data")
	s.persistLocked()
}
