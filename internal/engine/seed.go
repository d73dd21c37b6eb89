package engine

import (
	"time"

	"github.com/celerix-dev/certify-one/pkg/schema"
)

// SeedCollection is what the store starts from when the trainings slot is
// absent or unreadable: one certification, one course and one session.
func SeedCollection() schema.Collection {
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	str := func(s string) *string { return &s }

	return schema.Collection{
		&schema.Certification{
			Base: schema.Base{
				ID:           "1",
				EmployeeName: "John Doe",
				Role:         "Software Engineer",
				Department:   "Engineering",
				Category:     "Technical",
				Status:       schema.StatusCompleted,
				CreatedAt:    at("2024-01-15T10:00:00Z"),
				UpdatedAt:    at("2024-01-15T10:00:00Z"),
			},
			Name:                "React Professional Certification",
			IssuingOrganization: "Meta",
			IssueDate:           "2024-01-15",
			CredentialID:        str("REACT-PRO-2024-001"),
			CredentialURL:       str("https://certification.meta.com/verify/REACT-PRO-2024-001"),
			Description:         "Advanced React development certification",
			SkillsLearned:       []string{"React", "Redux", "TypeScript"},
			Level:               schema.LevelAdvanced,
		},
		&schema.Course{
			Base: schema.Base{
				ID:           "2",
				EmployeeName: "John Doe",
				Role:         "Software Engineer",
				Department:   "Engineering",
				Category:     "Technical",
				Status:       schema.StatusInProgress,
				CreatedAt:    at("2024-01-10T09:00:00Z"),
				UpdatedAt:    at("2024-01-10T09:00:00Z"),
			},
			CourseTitle:    "Advanced Node.js Development",
			Platform:       "Udemy",
			StartDate:      "2024-01-10",
			CourseDuration: "12 hours",
			Description:    "Deep dive into Node.js backend development",
			SkillsLearned:  []string{"Node.js", "Express", "MongoDB"},
		},
		&schema.Session{
			Base: schema.Base{
				ID:           "3",
				EmployeeName: "John Doe",
				Role:         "Software Engineer",
				Department:   "Engineering",
				Category:     "Soft Skills",
				Status:       schema.StatusCompleted,
				CreatedAt:    at("2024-01-08T09:00:00Z"),
				UpdatedAt:    at("2024-01-08T09:00:00Z"),
			},
			InstructorName: "Sarah Wilson",
			Topic:          "Effective Communication in Teams",
			Date:           "2024-01-08",
			StartTime:      "09:00",
			EndTime:        "11:00",
			Duration:       "2 hours",
			Location:       schema.LocationOnSite,
			Agenda:         "Communication styles, active listening, conflict resolution",
			LearnedOutcome: "Improved team communication skills",
		},
	}
}
