// Package report derives statistics, filtered views and CSV exports from a
// list of training records. Nothing here touches the store.
package report

import (
	"sort"
	"strings"

	"github.com/celerix-dev/certify-one/pkg/schema"
)

const unknownDepartment = "Unknown"

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

type Summary struct {
	Total      int `json:"totalTrainings"`
	Completed  int `json:"completedTrainings"`
	InProgress int `json:"inProgressTrainings"`
	Scheduled  int `json:"scheduledTrainings"`
	Pending    int `json:"pendingTrainings"`

	Certifications int `json:"certifications"`
	Courses        int `json:"courses"`
	Sessions       int `json:"sessions"`

	// CompletionRate is the rounded percentage of completed records, 0 when there are none.
	CompletionRate int               `json:"completionRate"`
	ByDepartment   map[string]int    `json:"byDepartment"`
	Departments    []DepartmentCount `json:"departments"`
}

func Summarize(records []schema.Record) Summary {
	s := Summary{
		Total:        len(records),
		ByDepartment: make(map[string]int),
	}
	for _, rec := range records {
		b := rec.Common()
		switch b.Status {
		case schema.StatusCompleted:
			s.Completed++
		case schema.StatusInProgress:
			s.InProgress++
		case schema.StatusScheduled:
			s.Scheduled++
		case schema.StatusPending:
			s.Pending++
		}
		switch rec.(type) {
		case *schema.Certification:
			s.Certifications++
		case *schema.Course:
			s.Courses++
		case *schema.Session:
			s.Sessions++
		}
		dept := b.Department
		if dept == "" {
			dept = unknownDepartment
		}
		s.ByDepartment[dept]++
	}

	if s.Total > 0 {
		// Rounds half up, in integers.
		s.CompletionRate = (s.Completed*200 + s.Total) / (2 * s.Total)
	}

	s.Departments = make([]DepartmentCount, 0, len(s.ByDepartment))
	for dept, n := range s.ByDepartment {
		s.Departments = append(s.Departments, DepartmentCount{Department: dept, Count: n})
	}
	sort.Slice(s.Departments, func(i, j int) bool {
		a, b := s.Departments[i], s.Departments[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Department < b.Department
	})
	return s
}

// Filter narrows a record list. Empty fields and "all" impose no constraint.
// DateFrom and DateTo are inclusive YYYY-MM-DD bounds on the primary date.
type Filter struct {
	Search     string `form:"search"`
	Kind       string `form:"type"`
	Status     string `form:"status"`
	Department string `form:"department"`
	Category   string `form:"category"`
	Employee   string `form:"employee"`
	DateFrom   string `form:"from"`
	DateTo     string `form:"to"`
}

func (f Filter) Apply(records []schema.Record) []schema.Record {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []schema.Record{}
	for _, rec := range records {
		b := rec.Common()
		if search != "" &&
			!strings.Contains(strings.ToLower(b.EmployeeName), search) &&
			!strings.Contains(strings.ToLower(rec.Title()), search) {
			continue
		}
		if !matchOpt(f.Kind, string(rec.Kind())) ||
			!matchOpt(f.Status, string(b.Status)) ||
			!matchFold(f.Department, b.Department) ||
			!matchFold(f.Category, b.Category) ||
			!matchFold(f.Employee, b.EmployeeName) {
			continue
		}
		if f.DateFrom != "" || f.DateTo != "" {
			d := dayOf(rec.PrimaryDate())
			if d == "" {
				continue
			}
			if f.DateFrom != "" && d < f.DateFrom {
				continue
			}
			if f.DateTo != "" && d > f.DateTo {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func matchOpt(want, got string) bool {
	return want == "" || want == "all" || want == got
}

func matchFold(want, got string) bool {
	return want == "" || want == "all" || strings.EqualFold(want, got)
}

// dayOf returns the YYYY-MM-DD prefix of a date or timestamp.
func dayOf(s string) string {
	if len(s) < 10 {
		return ""
	}
	return s[:10]
}
