// Package schema defines the data structures shared by the certify-one store,
// its transports and its clients.
package schema

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedKind is returned when a payload names no known record variant.
	ErrUnsupportedKind = errors.New("unsupported training type")
	// ErrInvalidRecord is returned when a payload carries a value outside an enumerated set.
	ErrInvalidRecord = errors.New("invalid training record")
)

// Kind discriminates the three training record variants.
type Kind string

const (
	KindSession       Kind = "session"
	KindCourse        Kind = "course"
	KindCertification Kind = "certification"
)

// Kinds lists every variant in display order.
var Kinds = []Kind{KindSession, KindCourse, KindCertification}

func (k Kind) Validate() error {
	switch k {
	case KindSession, KindCourse, KindCertification:
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedKind, "%q", string(k))
	}
}

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in-progress"
	StatusScheduled  Status = "scheduled"
	StatusPending    Status = "pending"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusCompleted, StatusInProgress, StatusScheduled, StatusPending}

func (s Status) Validate() error {
	switch s {
	case StatusCompleted, StatusInProgress, StatusScheduled, StatusPending:
		return nil
	default:
		return errors.Wrapf(ErrInvalidRecord, "unknown status %q", string(s))
	}
}

type Location string

const (
	LocationOnline Location = "online"
	LocationOnSite Location = "on-site"
)

func (l Location) Validate() error {
	switch l {
	case LocationOnline, LocationOnSite:
		return nil
	default:
		return errors.Wrapf(ErrInvalidRecord, "unknown location %q", string(l))
	}
}

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

func (l Level) Validate() error {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return nil
	default:
		return errors.Wrapf(ErrInvalidRecord, "unknown level %q", string(l))
	}
}

// Record is one training entry. It is implemented only by *Session, *Course
// and *Certification, so a type switch over those three is exhaustive.
type Record interface {
	Kind() Kind
	// Common exposes the fields shared by every variant.
	Common() *Base
	// Title is the session topic, course title or certification name.
	Title() string
	// PrimaryDate is the session date, course start date or certification issue date.
	PrimaryDate() string
	// Clone returns a deep copy.
	Clone() Record

	sealed()
}

// Base holds the fields common to every variant.
type Base struct {
	ID           string    `json:"id"`
	EmployeeName string    `json:"employeeName"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	Category     string    `json:"category"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Session struct {
	Base
	InstructorName string   `json:"instructorName"`
	Topic          string   `json:"topic"`
	Date           string   `json:"date"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
	Duration       string   `json:"duration"`
	Location       Location `json:"location"`
	Agenda         string   `json:"agenda"`
	LearnedOutcome string   `json:"learnedOutcome"`
}

type Course struct {
	Base
	CourseTitle     string   `json:"title"`
	Platform        string   `json:"platform"`
	StartDate       string   `json:"startDate"`
	CompletionDate  *string  `json:"completionDate,omitempty"`
	CourseDuration  string   `json:"courseDuration"`
	CertificateLink *string  `json:"certificateLink,omitempty"`
	Description     string   `json:"description"`
	SkillsLearned   []string `json:"skillsLearned"`
	OutcomesLearned *string  `json:"outcomesLearned,omitempty"`
}

type Certification struct {
	Base
	Name                string   `json:"name"`
	IssuingOrganization string   `json:"issuingOrganization"`
	IssueDate           string   `json:"issueDate"`
	ExpirationDate      *string  `json:"expirationDate,omitempty"`
	CredentialID        *string  `json:"credentialId,omitempty"`
	CredentialURL       *string  `json:"credentialUrl,omitempty"`
	Description         string   `json:"description"`
	SkillsLearned       []string `json:"skillsLearned"`
	Level               Level    `json:"level"`
}

func (*Session) Kind() Kind       { return KindSession }
func (*Course) Kind() Kind        { return KindCourse }
func (*Certification) Kind() Kind { return KindCertification }

func (s *Session) Common() *Base       { return &s.Base }
func (c *Course) Common() *Base        { return &c.Base }
func (c *Certification) Common() *Base { return &c.Base }

func (s *Session) Title() string       { return s.Topic }
func (c *Course) Title() string        { return c.CourseTitle }
func (c *Certification) Title() string { return c.Name }

func (s *Session) PrimaryDate() string       { return s.Date }
func (c *Course) PrimaryDate() string        { return c.StartDate }
func (c *Certification) PrimaryDate() string { return c.IssueDate }

func (*Session) sealed()       {}
func (*Course) sealed()        {}
func (*Certification) sealed() {}

func (s *Session) Clone() Record {
	cp := *s
	return &cp
}

func (c *Course) Clone() Record {
	cp := *c
	cp.CompletionDate = cloneString(c.CompletionDate)
	cp.CertificateLink = cloneString(c.CertificateLink)
	cp.OutcomesLearned = cloneString(c.OutcomesLearned)
	cp.SkillsLearned = cloneStrings(c.SkillsLearned)
	return &cp
}

func (c *Certification) Clone() Record {
	cp := *c
	cp.ExpirationDate = cloneString(c.ExpirationDate)
	cp.CredentialID = cloneString(c.CredentialID)
	cp.CredentialURL = cloneString(c.CredentialURL)
	cp.SkillsLearned = cloneStrings(c.SkillsLearned)
	return &cp
}

func (s *Session) MarshalJSON() ([]byte, error) {
	type plain Session
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		*plain
	}{KindSession, (*plain)(s)})
}

func (c *Course) MarshalJSON() ([]byte, error) {
	type plain Course
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		*plain
	}{KindCourse, (*plain)(c)})
}

func (c *Certification) MarshalJSON() ([]byte, error) {
	type plain Certification
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		*plain
	}{KindCertification, (*plain)(c)})
}

// DecodeRecord reads one tagged record. Records written by the browser
// dashboard carry the discriminant in "type" rather than "kind" and use
// their own names for the title, date and description fields; both are
// accepted.
func DecodeRecord(data []byte) (Record, error) {
	var tag struct {
		Kind Kind `json:"kind"`
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}
	kind := tag.Kind
	if kind == "" {
		kind = tag.Type
	}

	var rec Record
	switch kind {
	case KindSession:
		rec = &Session{}
	case KindCourse:
		rec = &Course{}
	case KindCertification:
		rec = &Certification{}
	default:
		return nil, errors.Wrapf(ErrUnsupportedKind, "%q", string(kind))
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, err
	}
	if err := applyDashboardFields(rec, data); err != nil {
		return nil, err
	}
	return rec, nil
}

// dashboardFields are the browser dashboard's names for variant fields.
type dashboardFields struct {
	SessionTopic      string `json:"sessionTopic"`
	SessionDate       string `json:"sessionDate"`
	CourseTitle       string `json:"courseTitle"`
	CourseDescription string `json:"courseDescription"`
	CertificationName string `json:"certificationName"`
}

// applyDashboardFields fills fields left empty under the current names.
func applyDashboardFields(rec Record, data []byte) error {
	var d dashboardFields
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	switch r := rec.(type) {
	case *Session:
		fill(&r.Topic, d.SessionTopic)
		fill(&r.Date, d.SessionDate)
	case *Course:
		fill(&r.CourseTitle, d.CourseTitle)
		fill(&r.Description, d.CourseDescription)
	case *Certification:
		fill(&r.Name, d.CertificationName)
	}
	return nil
}

// Collection is an ordered list of records with tagged JSON encoding.
type Collection []Record

func (c *Collection) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Collection, 0, len(raw))
	for i, item := range raw {
		rec, err := DecodeRecord(item)
		if err != nil {
			return errors.Wrapf(err, "record %d", i)
		}
		out = append(out, rec)
	}
	*c = out
	return nil
}

// Clone deep-copies every record.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i, rec := range c {
		out[i] = rec.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
