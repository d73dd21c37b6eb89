package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/celerix-dev/certify-one/pkg/schema"
)

func fixtures() []schema.Record {
	return []schema.Record{
		&schema.Certification{
			Base:      schema.Base{ID: "1", EmployeeName: "John Doe", Role: "Engineer", Department: "Engineering", Category: "Technical", Status: schema.StatusCompleted},
			Name:      "React Professional",
			IssueDate: "2024-01-15",
		},
		&schema.Course{
			Base:        schema.Base{ID: "2", EmployeeName: "Jane Roe", Department: "QA", Category: "Technical", Status: schema.StatusInProgress},
			CourseTitle: `Testing "the hard way"`,
			StartDate:   "2024-03-02",
		},
		&schema.Session{
			Base:  schema.Base{ID: "3", EmployeeName: "John Doe", Category: "Soft Skills", Status: schema.StatusScheduled},
			Topic: "Listening",
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixtures())

	if s.Total != 3 || s.Completed != 1 || s.InProgress != 1 || s.Scheduled != 1 {
		t.Errorf("Unexpected status counts: %+v", s)
	}
	if s.Certifications != 1 || s.Courses != 1 || s.Sessions != 1 {
		t.Errorf("Unexpected kind counts: %+v", s)
	}
	if s.CompletionRate != 33 {
		t.Errorf("Expected 33%%, got %d", s.CompletionRate)
	}
	if s.ByDepartment["Unknown"] != 1 || s.ByDepartment["Engineering"] != 1 {
		t.Errorf("Unexpected departments: %v", s.ByDepartment)
	}
	if len(s.Departments) != 3 || s.Departments[0].Department != "Engineering" {
		t.Errorf("Departments should be sorted by count then name: %v", s.Departments)
	}
}

func TestSummarize_CompletionRate(t *testing.T) {
	tests := []struct {
		completed, total int
		want             int
	}{
		{0, 0, 0},
		{1, 2, 50},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{3, 3, 100},
	}
	for _, tt := range tests {
		var recs []schema.Record
		for i := 0; i < tt.total; i++ {
			status := schema.StatusPending
			if i < tt.completed {
				status = schema.StatusCompleted
			}
			recs = append(recs, &schema.Course{Base: schema.Base{Status: status}})
		}
		if got := Summarize(recs).CompletionRate; got != tt.want {
			t.Errorf("%d/%d: expected %d, got %d", tt.completed, tt.total, tt.want, got)
		}
	}
}

func TestFilter_Apply(t *testing.T) {
	recs := fixtures()
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no constraints", Filter{}, []string{"1", "2", "3"}},
		{"all is no constraint", Filter{Kind: "all", Status: "all"}, []string{"1", "2", "3"}},
		{"search employee", Filter{Search: "john"}, []string{"1", "3"}},
		{"search title", Filter{Search: "HARD WAY"}, []string{"2"}},
		{"kind", Filter{Kind: "session"}, []string{"3"}},
		{"status", Filter{Status: "completed"}, []string{"1"}},
		{"department", Filter{Department: "qa"}, []string{"2"}},
		{"category", Filter{Category: "Technical"}, []string{"1", "2"}},
		{"employee", Filter{Employee: "Jane Roe"}, []string{"2"}},
		{"date range", Filter{DateFrom: "2024-02-01", DateTo: "2024-12-31"}, []string{"2"}},
		{"inclusive bounds", Filter{DateFrom: "2024-01-15", DateTo: "2024-01-15"}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(recs)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.Common().ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, fixtures()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d: %q", len(lines), buf.String())
	}

	want := []string{
		`"Employee Name","Role","Department","Training Type","Training Name","Status","Category","Date"`,
		`"John Doe","Engineer","Engineering","certification","React Professional","completed","Technical","2024-01-15"`,
		`"Jane Roe","","QA","course","Testing ""the hard way""","in-progress","Technical","2024-03-02"`,
		`"John Doe","","","session","Listening","scheduled","Soft Skills","N/A"`,
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d:\nwant %s\ngot  %s", i, want[i], lines[i])
		}
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 7, 4, 23, 30, 0, 0, time.UTC)
	if got := ExportFilename(now); got != "training_records_2024-07-04.csv" {
		t.Errorf("Unexpected filename %q", got)
	}
}
