package schema

import (
	"strings"
	"time"
)

// FormData is the untyped payload produced by a training form. It carries the
// fields of all three variants; Build keeps only those of the selected one.
type FormData struct {
	EmployeeName string `json:"employeeName"`
	Role         string `json:"role"`
	Department   string `json:"department"`
	Category     string `json:"category"`
	Status       Status `json:"status"`
	Type         Kind   `json:"type,omitempty"`
	Kind         Kind   `json:"kind,omitempty"`

	InstructorName string   `json:"instructorName,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	Date           string   `json:"date,omitempty"`
	StartTime      string   `json:"startTime,omitempty"`
	EndTime        string   `json:"endTime,omitempty"`
	Duration       string   `json:"duration,omitempty"`
	Location       Location `json:"location,omitempty"`
	Agenda         string   `json:"agenda,omitempty"`
	LearnedOutcome string   `json:"learnedOutcome,omitempty"`

	Title           string  `json:"title,omitempty"`
	Platform        string  `json:"platform,omitempty"`
	StartDate       string  `json:"startDate,omitempty"`
	CompletionDate  *string `json:"completionDate,omitempty"`
	CourseDuration  string  `json:"courseDuration,omitempty"`
	CertificateLink *string `json:"certificateLink,omitempty"`
	OutcomesLearned *string `json:"outcomesLearned,omitempty"`

	Name                string  `json:"name,omitempty"`
	IssuingOrganization string  `json:"issuingOrganization,omitempty"`
	IssueDate           string  `json:"issueDate,omitempty"`
	ExpirationDate      *string `json:"expirationDate,omitempty"`
	CredentialID        *string `json:"credentialId,omitempty"`
	CredentialURL       *string `json:"credentialUrl,omitempty"`
	Level               Level   `json:"level,omitempty"`

	// Description is shared by courses and certifications.
	Description   string   `json:"description,omitempty"`
	SkillsLearned []string `json:"skillsLearned,omitempty"`
}

// Variant returns the selected kind, preferring Kind over the legacy Type.
func (f FormData) Variant() Kind {
	if f.Kind != "" {
		return f.Kind
	}
	return f.Type
}

// Build narrows the form into the record variant it selects. Text fields the
// form left unset become empty strings; optional fields stay absent.
func (f FormData) Build(id string, now time.Time) (Record, error) {
	kind := f.Variant()
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	status := f.Status
	if status == "" {
		status = StatusPending
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}

	base := Base{
		ID:           id,
		EmployeeName: f.EmployeeName,
		Role:         f.Role,
		Department:   f.Department,
		Category:     f.Category,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch kind {
	case KindSession:
		location := f.Location
		if location == "" {
			location = LocationOnline
		}
		if err := location.Validate(); err != nil {
			return nil, err
		}
		duration := f.Duration
		if f.StartTime != "" && f.EndTime != "" {
			if d, err := DeriveDuration(f.StartTime, f.EndTime); err == nil {
				duration = d
			}
		}
		return &Session{
			Base:           base,
			InstructorName: f.InstructorName,
			Topic:          f.Topic,
			Date:           f.Date,
			StartTime:      f.StartTime,
			EndTime:        f.EndTime,
			Duration:       duration,
			Location:       location,
			Agenda:         f.Agenda,
			LearnedOutcome: f.LearnedOutcome,
		}, nil

	case KindCourse:
		return &Course{
			Base:            base,
			CourseTitle:     f.Title,
			Platform:        f.Platform,
			StartDate:       f.StartDate,
			CompletionDate:  cloneString(f.CompletionDate),
			CourseDuration:  f.CourseDuration,
			CertificateLink: cloneString(f.CertificateLink),
			Description:     f.Description,
			SkillsLearned:   DedupSkills(f.SkillsLearned),
			OutcomesLearned: cloneString(f.OutcomesLearned),
		}, nil

	default:
		level := f.Level
		if level == "" {
			level = LevelBeginner
		}
		if err := level.Validate(); err != nil {
			return nil, err
		}
		return &Certification{
			Base:                base,
			Name:                f.Name,
			IssuingOrganization: f.IssuingOrganization,
			IssueDate:           f.IssueDate,
			ExpirationDate:      cloneString(f.ExpirationDate),
			CredentialID:        cloneString(f.CredentialID),
			CredentialURL:       cloneString(f.CredentialURL),
			Description:         f.Description,
			SkillsLearned:       DedupSkills(f.SkillsLearned),
			Level:               level,
		}, nil
	}
}

// FormOf converts a record back into form data, as an edit form would be
// pre-filled.
func FormOf(rec Record) FormData {
	b := rec.Common()
	f := FormData{
		EmployeeName: b.EmployeeName,
		Role:         b.Role,
		Department:   b.Department,
		Category:     b.Category,
		Status:       b.Status,
		Kind:         rec.Kind(),
	}
	switch r := rec.(type) {
	case *Session:
		f.InstructorName = r.InstructorName
		f.Topic = r.Topic
		f.Date = r.Date
		f.StartTime = r.StartTime
		f.EndTime = r.EndTime
		f.Duration = r.Duration
		f.Location = r.Location
		f.Agenda = r.Agenda
		f.LearnedOutcome = r.LearnedOutcome
	case *Course:
		f.Title = r.CourseTitle
		f.Platform = r.Platform
		f.StartDate = r.StartDate
		f.CompletionDate = cloneString(r.CompletionDate)
		f.CourseDuration = r.CourseDuration
		f.CertificateLink = cloneString(r.CertificateLink)
		f.Description = r.Description
		f.SkillsLearned = cloneStrings(r.SkillsLearned)
		f.OutcomesLearned = cloneString(r.OutcomesLearned)
	case *Certification:
		f.Name = r.Name
		f.IssuingOrganization = r.IssuingOrganization
		f.IssueDate = r.IssueDate
		f.ExpirationDate = cloneString(r.ExpirationDate)
		f.CredentialID = cloneString(r.CredentialID)
		f.CredentialURL = cloneString(r.CredentialURL)
		f.Description = r.Description
		f.SkillsLearned = cloneStrings(r.SkillsLearned)
		f.Level = r.Level
	}
	return f
}

// DedupSkills trims each skill, drops empty ones and keeps only the first of
// any exact (case-sensitive) duplicates. The result is never nil.
func DedupSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
