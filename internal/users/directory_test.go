package users

import (
	"context"
	"testing"

	"github.com/celerix-dev/certify-one/internal/engine"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
)

func newDirectory(t *testing.T) (*Directory, *engine.FileSlots) {
	t.Helper()
	slots, err := engine.NewFileSlots(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSlots failed: %v", err)
	}
	d, err := NewDirectory(context.Background(), slots, nil)
	if err != nil {
		t.Fatalf("NewDirectory failed: %v", err)
	}
	return d, slots
}

func TestNewDirectory_Seeds(t *testing.T) {
	d, _ := newDirectory(t)
	all := d.List()
	if len(all) != 2 {
		t.Fatalf("Expected 2 seed users, got %d", len(all))
	}
	if all[0].EmploymentDetails.EmployeeID != "EMP001" || all[1].Role != schema.RoleAdmin {
		t.Errorf("Unexpected seed: %+v", all)
	}
}

func TestSearch(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()
	d.ToggleStatus(ctx, "1")

	tests := []struct {
		term, tab string
		want      int
	}{
		{"", TabAll, 2},
		{"WILSON", TabAll, 1},
		{"engineering", TabAll, 1},
		{"certifyone.com", TabActive, 1},
		{"", TabInactive, 1},
		{"john", TabActive, 0},
		{"nobody", TabAll, 0},
	}
	for _, tt := range tests {
		t.Run(tt.term+"/"+tt.tab, func(t *testing.T) {
			if got := d.Search(tt.term, tt.tab); len(got) != tt.want {
				t.Errorf("Expected %d results, got %d", tt.want, len(got))
			}
		})
	}
}

func TestAddUpdateDelete(t *testing.T) {
	d, slots := newDirectory(t)
	ctx := context.Background()

	e, err := d.Add(ctx, schema.EmployeeForm{FirstName: " Ada ", LastName: "Lovelace", Email: "ada@certifyone.com"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if e.FirstName != "Ada" || e.Role != schema.RoleEmployee || e.Status != schema.EmployeeActive {
		t.Errorf("Unexpected defaults: %+v", e)
	}
	if all := d.List(); all[len(all)-1].ID != e.ID {
		t.Error("New users are appended")
	}

	updated, err := d.Update(ctx, e.ID, schema.EmployeeForm{FirstName: "Ada", LastName: "King", Email: "ada@certifyone.com", Role: schema.RoleAdmin})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.CreatedAt.Equal(e.CreatedAt) || !updated.UpdatedAt.After(e.UpdatedAt) {
		t.Error("Update should keep createdAt and advance updatedAt")
	}

	reloaded, err := NewDirectory(ctx, slots, nil)
	if err != nil {
		t.Fatalf("NewDirectory failed: %v", err)
	}
	if got, _ := reloaded.Get(e.ID); got.LastName != "King" {
		t.Errorf("Update not persisted: %+v", got)
	}

	if err := d.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := d.Get(e.ID); !errors.Is(err, pkgengine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := d.Delete(ctx, e.ID); !errors.Is(err, pkgengine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAdd_Validation(t *testing.T) {
	d, _ := newDirectory(t)
	tests := []struct {
		name string
		form schema.EmployeeForm
	}{
		{"missing email", schema.EmployeeForm{FirstName: "A", LastName: "B"}},
		{"blank names", schema.EmployeeForm{FirstName: " ", LastName: "B", Email: "x@y"}},
		{"bad role", schema.EmployeeForm{FirstName: "A", LastName: "B", Email: "x@y", Role: "owner"}},
		{"bad type", schema.EmployeeForm{FirstName: "A", LastName: "B", Email: "x@y", EmploymentDetails: schema.EmploymentDetails{EmploymentType: "seasonal"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Add(context.Background(), tt.form); !errors.Is(err, pkgengine.ErrInvalidRecord) {
				t.Errorf("Expected ErrInvalidRecord, got %v", err)
			}
		})
	}
	if d.Counts().Total != 2 {
		t.Error("Invalid users should not be stored")
	}
}

func TestToggleStatusAndCounts(t *testing.T) {
	d, _ := newDirectory(t)
	ctx := context.Background()

	e, err := d.ToggleStatus(ctx, "2")
	if err != nil {
		t.Fatalf("ToggleStatus failed: %v", err)
	}
	if e.Status != schema.EmployeeInactive {
		t.Errorf("Expected inactive, got %q", e.Status)
	}
	if c := d.Counts(); c != (Counts{Total: 2, Active: 1, Inactive: 1}) {
		t.Errorf("Unexpected counts: %+v", c)
	}

	d.ToggleStatus(ctx, "2")
	if c := d.Counts(); c.Active != 2 {
		t.Errorf("Expected 2 active, got %+v", c)
	}
	if _, err := d.ToggleStatus(ctx, "99"); !errors.Is(err, pkgengine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
