package main

import (
	"fmt"
	"strconv"

	"github.com/celerix-dev/certify-one/internal/report"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	statusStyles = map[schema.Status]lipgloss.Style{
		schema.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		schema.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		schema.StatusScheduled:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		schema.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
}

func status(s schema.Status) string {
	if st, ok := statusStyles[s]; ok {
		return st.Render(string(s))
	}
	return string(s)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func renderRecords(list []schema.Record) string {
	if len(list) == 0 {
		return mutedStyle.Render("No training records.")
	}
	t := newTable("ID", "Type", "Employee", "Department", "Training", "Status", "Date")
	for _, rec := range list {
		b := rec.Common()
		t.Row(b.ID, string(rec.Kind()), b.EmployeeName, b.Department, rec.Title(), status(b.Status), orNA(rec.PrimaryDate()))
	}
	return titleStyle.Render(fmt.Sprintf("%d training records", len(list))) + "\n" + t.String()
}

func renderCertifications(certs []*schema.Certification) string {
	if len(certs) == 0 {
		return mutedStyle.Render("No certifications.")
	}
	t := newTable("ID", "Employee", "Certification", "Issuer", "Level", "Issued", "Expires", "Status")
	for _, c := range certs {
		expires := "Never"
		if c.ExpirationDate != nil && *c.ExpirationDate != "" {
			expires = *c.ExpirationDate
		}
		t.Row(c.ID, c.EmployeeName, c.Name, c.IssuingOrganization, string(c.Level), orNA(c.IssueDate), expires, status(c.Status))
	}
	return titleStyle.Render(fmt.Sprintf("%d certifications", len(certs))) + "\n" + t.String()
}

func renderSummary(s report.Summary) string {
	totals := newTable("Metric", "Value").
		Row("Total trainings", strconv.Itoa(s.Total)).
		Row("Completed", strconv.Itoa(s.Completed)).
		Row("In progress", strconv.Itoa(s.InProgress)).
		Row("Scheduled", strconv.Itoa(s.Scheduled)).
		Row("Pending", strconv.Itoa(s.Pending)).
		Row("Certifications", strconv.Itoa(s.Certifications)).
		Row("Courses", strconv.Itoa(s.Courses)).
		Row("Sessions", strconv.Itoa(s.Sessions)).
		Row("Completion rate", strconv.Itoa(s.CompletionRate)+"%")

	depts := newTable("Department", "Trainings")
	for _, d := range s.Departments {
		depts.Row(d.Department, strconv.Itoa(d.Count))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Training report"),
		totals.String(),
		titleStyle.Render("By department"),
		depts.String(),
	)
}
