package engine_test

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	internal "github.com/celerix-dev/certify-one/internal/engine"
	"github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
)

func newStore(t *testing.T) *internal.Store {
	t.Helper()
	slots, err := internal.NewFileSlots(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSlots failed: %v", err)
	}
	// Start from an empty collection so counts are exact.
	if err := slots.Save(context.Background(), engine.SlotTrainings, []byte("[]")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s, err := internal.NewStore(context.Background(), slots)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func certForm(name string) schema.FormData {
	return schema.FormData{
		Kind:                schema.KindCertification,
		EmployeeName:        "Jane Doe",
		Department:          "QA",
		Status:              schema.StatusCompleted,
		Name:                name,
		IssuingOrganization: "AWS",
		IssueDate:           "2024-05-01",
		SkillsLearned:       []string{"EC2", "S3"},
	}
}

func TestStore_AddAssignsUniqueIDs(t *testing.T) {
	var s engine.TrainingStore = newStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rec, err := s.Add(ctx, certForm(fmt.Sprintf("Cert %d", i)))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		id := rec.Common().ID
		if id == "" || seen[id] {
			t.Fatalf("Duplicate or empty id %q", id)
		}
		seen[id] = true
	}

	all, _ := s.List()
	if len(all) != 20 {
		t.Errorf("Expected 20 records, got %d", len(all))
	}
	if all[0].Title() != "Cert 19" {
		t.Errorf("Newest record should be first, got %q", all[0].Title())
	}
}

func TestStore_JaneDoeScenario(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec, err := s.Add(ctx, certForm("AWS SAA"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	cert, ok := rec.(*schema.Certification)
	if !ok {
		t.Fatalf("Expected *schema.Certification, got %T", rec)
	}
	if cert.Level != schema.LevelBeginner {
		t.Errorf("Expected default level beginner, got %q", cert.Level)
	}
	if cert.ExpirationDate != nil || cert.CredentialID != nil {
		t.Error("Unset optional fields should stay absent")
	}
	if !cert.CreatedAt.Equal(cert.UpdatedAt) {
		t.Error("createdAt and updatedAt should match on add")
	}

	certs := s.ListCertifications()
	if len(certs) != 1 || certs[0].Title() != "AWS SAA" {
		t.Errorf("Unexpected certifications: %v", certs)
	}
}

func TestStore_UpdatePreservesIdentity(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec, _ := s.Add(ctx, certForm("Original"))
	id := rec.Common().ID

	form := schema.FormOf(rec)
	form.Name = "Renamed"
	updated, err := s.Update(ctx, id, form)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Common().ID != id {
		t.Errorf("Update changed id: %s -> %s", id, updated.Common().ID)
	}
	if !updated.Common().CreatedAt.Equal(rec.Common().CreatedAt) {
		t.Error("Update changed createdAt")
	}
	if !updated.Common().UpdatedAt.After(rec.Common().UpdatedAt) {
		t.Error("updatedAt should strictly increase")
	}

	got, _ := s.Get(id)
	if got.Title() != "Renamed" {
		t.Errorf("Expected Renamed, got %q", got.Title())
	}
}

func TestStore_UpdateCanChangeKind(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec, _ := s.Add(ctx, certForm("Switch me"))
	updated, err := s.Update(ctx, rec.Common().ID, schema.FormData{
		Kind:      schema.KindSession,
		Topic:     "Now a session",
		StartTime: "09:15",
		EndTime:   "09:45",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	session, ok := updated.(*schema.Session)
	if !ok {
		t.Fatalf("Expected *schema.Session, got %T", updated)
	}
	if session.Duration != "30m" {
		t.Errorf("Expected derived duration 30m, got %q", session.Duration)
	}
	if len(s.ListCertifications()) != 0 {
		t.Error("Old variant should be gone")
	}
}

func TestStore_DeleteAndMissing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a, _ := s.Add(ctx, certForm("A"))
	b, _ := s.Add(ctx, certForm("B"))

	if err := s.Delete(ctx, a.Common().ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(a.Common().ID); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	before, _ := s.List()
	if err := s.Delete(ctx, "missing"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing id, got %v", err)
	}
	if _, err := s.Update(ctx, "missing", certForm("X")); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on update, got %v", err)
	}
	after, _ := s.List()
	if !reflect.DeepEqual(before, after) {
		t.Error("Missing-id mutations should leave the collection unchanged")
	}
	if len(after) != 1 || after[0].Common().ID != b.Common().ID {
		t.Errorf("Unexpected remaining records: %v", after)
	}
}

func TestStore_ListKindIsOrderedSubset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.Add(ctx, certForm("C1"))
	s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "Go"})
	s.Add(ctx, certForm("C2"))
	s.Add(ctx, schema.FormData{Kind: schema.KindSession, Topic: "Standup"})

	certs := s.ListCertifications()
	if len(certs) != 2 || certs[0].Title() != "C2" || certs[1].Title() != "C1" {
		t.Errorf("Unexpected certification order: %v", certs)
	}
	if len(s.ListCourses()) != 1 || len(s.ListSessions()) != 1 {
		t.Error("Each kind listing should hold exactly its records")
	}
	if _, err := s.ListKind("workshop"); !errors.Is(err, engine.ErrUnsupportedKind) {
		t.Errorf("Expected ErrUnsupportedKind, got %v", err)
	}
}

func TestStore_RejectsInvalidForms(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, schema.FormData{Kind: "workshop"}); !errors.Is(err, engine.ErrUnsupportedKind) {
		t.Errorf("Expected ErrUnsupportedKind, got %v", err)
	}
	if _, err := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Status: "done"}); !errors.Is(err, engine.ErrInvalidRecord) {
		t.Errorf("Expected ErrInvalidRecord, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Rejected forms should not be stored, have %d", s.Len())
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := newStore(t)
	rec, _ := s.Add(context.Background(), certForm("Immutable"))

	cert := rec.(*schema.Certification)
	cert.Name = "Mutated"
	cert.SkillsLearned[0] = "Mutated"

	got, _ := s.Get(rec.Common().ID)
	if got.Title() != "Immutable" || got.(*schema.Certification).SkillsLearned[0] != "EC2" {
		t.Error("Callers must not be able to mutate stored records")
	}
}

func TestStore_CollectionRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	link := "https://example.com/cert"

	s.Add(ctx, certForm("Round"))
	s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "Trip", CertificateLink: &link, SkillsLearned: []string{}})
	s.Add(ctx, schema.FormData{Kind: schema.KindSession, Topic: "Talk", StartTime: "10:00", EndTime: "11:30"})

	all, _ := s.List()
	data, err := json.Marshal(schema.Collection(all))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back schema.Collection
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(schema.Collection(all), back) {
		t.Errorf("Round trip mismatch:\n%v\n%v", all, back)
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s := newStore(t)
	const (
		numGoroutines = 8
		numOps        = 10
	)
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				s.Add(context.Background(), certForm(fmt.Sprintf("c-%d-%d", id, j)))
				s.List()
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != numGoroutines*numOps {
		t.Errorf("Expected %d records, got %d", numGoroutines*numOps, s.Len())
	}
}

func TestStore_CanceledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Add(ctx, certForm("Late")); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if s.Len() != 0 {
		t.Error("Canceled add should not store anything")
	}
}

func TestStore_ReloadsFromSlot(t *testing.T) {
	dir := t.TempDir()
	slots, _ := internal.NewFileSlots(dir)
	slots.Save(context.Background(), engine.SlotTrainings, []byte("[]"))

	s1, _ := internal.NewStore(context.Background(), slots)
	rec, _ := s1.Add(context.Background(), certForm("Durable"))

	s2, err := internal.NewStore(context.Background(), slots, internal.WithClock(func() time.Time { return time.Unix(0, 0) }))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	got, err := s2.Get(rec.Common().ID)
	if err != nil {
		t.Fatalf("Record not reloaded: %v", err)
	}
	if !reflect.DeepEqual(rec, got) {
		t.Errorf("Reloaded record differs:\n%#v\n%#v", rec, got)
	}
}
