package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
)

// flakySlots wraps a slot store and fails every Save while failing is set.
type flakySlots struct {
	SlotStore
	mu      sync.Mutex
	failing bool
	saves   int
}

func (f *flakySlots) Save(ctx context.Context, name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("disk full")
	}
	f.saves++
	return f.SlotStore.Save(ctx, name, data)
}

func (f *flakySlots) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func emptySlots(t *testing.T) *FileSlots {
	t.Helper()
	slots, err := NewFileSlots(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSlots failed: %v", err)
	}
	if err := slots.Save(context.Background(), pkgengine.SlotTrainings, []byte("[]")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return slots
}

func TestNewStore_SeedsWhenSlotMissing(t *testing.T) {
	slots, _ := NewFileSlots(t.TempDir())
	s, err := NewStore(context.Background(), slots)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Expected 3 seed records, got %d", s.Len())
	}

	all, _ := s.List()
	kinds := []schema.Kind{all[0].Kind(), all[1].Kind(), all[2].Kind()}
	want := []schema.Kind{schema.KindCertification, schema.KindCourse, schema.KindSession}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Seed record %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}

	if _, err := slots.Load(context.Background(), pkgengine.SlotTrainings); err != nil {
		t.Errorf("Seed should be written back: %v", err)
	}
}

func TestNewStore_SeedsWhenSlotCorrupt(t *testing.T) {
	slots, _ := NewFileSlots(t.TempDir())
	slots.Save(context.Background(), pkgengine.SlotTrainings, []byte("{not json"))

	s, err := NewStore(context.Background(), slots)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("Expected seed fallback, got %d records", s.Len())
	}
	got, _ := s.Get("1")
	if got == nil || got.Title() != "React Professional Certification" {
		t.Errorf("Unexpected seed record: %v", got)
	}
}

func TestNewStore_EmptyArrayStaysEmpty(t *testing.T) {
	s, err := NewStore(context.Background(), emptySlots(t))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty collection, got %d", s.Len())
	}
	all, _ := s.List()
	if all == nil {
		t.Error("List should return an empty, non-nil slice")
	}
}

func TestNewStore_NilSlots(t *testing.T) {
	if _, err := NewStore(context.Background(), nil); err == nil {
		t.Fatal("Expected error for nil slot store")
	}
}

func TestStore_PersistenceFailureRollsBack(t *testing.T) {
	flaky := &flakySlots{SlotStore: emptySlots(t)}
	s, _ := NewStore(context.Background(), flaky)
	ctx := context.Background()

	kept, err := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "Kept"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	flaky.setFailing(true)
	if _, err := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "Lost"}); !errors.Is(err, pkgengine.ErrPersistence) {
		t.Errorf("Expected ErrPersistence on add, got %v", err)
	}
	if _, err := s.Update(ctx, kept.Common().ID, schema.FormData{Kind: schema.KindCourse, Title: "Changed"}); !errors.Is(err, pkgengine.ErrPersistence) {
		t.Errorf("Expected ErrPersistence on update, got %v", err)
	}
	if err := s.Delete(ctx, kept.Common().ID); !errors.Is(err, pkgengine.ErrPersistence) {
		t.Errorf("Expected ErrPersistence on delete, got %v", err)
	}

	all, _ := s.List()
	if len(all) != 1 || all[0].Title() != "Kept" {
		t.Errorf("Failed mutations must not be visible: %v", all)
	}

	flaky.setFailing(false)
	if _, err := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "Again"}); err != nil {
		t.Errorf("Store should recover after the slot does: %v", err)
	}
}

func TestStore_BulkDelete(t *testing.T) {
	flaky := &flakySlots{SlotStore: emptySlots(t)}
	s, _ := NewStore(context.Background(), flaky)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		rec, _ := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: title})
		ids = append(ids, rec.Common().ID)
	}
	savesBefore := flaky.saves

	n, err := s.BulkDelete(ctx, []string{ids[0], "unknown", ids[2]})
	if err != nil {
		t.Fatalf("BulkDelete failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 removed, got %d", n)
	}
	if flaky.saves != savesBefore+1 {
		t.Errorf("Expected a single slot write, got %d", flaky.saves-savesBefore)
	}

	n, _ = s.BulkDelete(ctx, []string{"unknown"})
	if n != 0 || flaky.saves != savesBefore+1 {
		t.Error("Deleting nothing should not write the slot")
	}

	all, _ := s.List()
	if len(all) != 1 || all[0].Common().ID != ids[1] {
		t.Errorf("Unexpected remaining records: %v", all)
	}
}

func TestStore_Observers(t *testing.T) {
	var (
		mu     sync.Mutex
		events []Event
	)
	record := func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}

	s, _ := NewStore(context.Background(), emptySlots(t), WithObserver(record))
	ctx := context.Background()

	rec, _ := s.Add(ctx, schema.FormData{Kind: schema.KindSession, Topic: "Intro"})
	s.Delete(ctx, "missing")
	s.Delete(ctx, rec.Common().ID)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].Op != OpAdd || events[0].ID != rec.Common().ID || events[0].Kind != schema.KindSession || events[0].Err != nil {
		t.Errorf("Unexpected add event: %+v", events[0])
	}
	if events[1].Op != OpDelete || !errors.Is(events[1].Err, pkgengine.ErrNotFound) {
		t.Errorf("Unexpected failed delete event: %+v", events[1])
	}
	if events[2].Kind != schema.KindSession || events[2].Err != nil {
		t.Errorf("Unexpected delete event: %+v", events[2])
	}
}

func TestStore_InjectedClockAndIDs(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{"dup", "dup", "fresh"}
	next := 0
	gen := func() string {
		id := ids[next]
		if next < len(ids)-1 {
			next++
		}
		return id
	}

	s, _ := NewStore(context.Background(), emptySlots(t),
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(gen))
	ctx := context.Background()

	first, _ := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "one"})
	second, _ := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "two"})
	if first.Common().ID != "dup" || second.Common().ID != "fresh" {
		t.Errorf("Colliding ids should be regenerated, got %s and %s", first.Common().ID, second.Common().ID)
	}
	if !first.Common().CreatedAt.Equal(fixed) {
		t.Errorf("Expected injected clock, got %v", first.Common().CreatedAt)
	}

	// A frozen clock must still move updatedAt forward.
	u1, _ := s.Update(ctx, "dup", schema.FormData{Kind: schema.KindCourse, Title: "one'"})
	u2, _ := s.Update(ctx, "dup", schema.FormData{Kind: schema.KindCourse, Title: "one''"})
	if !u1.Common().UpdatedAt.After(fixed) || !u2.Common().UpdatedAt.After(u1.Common().UpdatedAt) {
		t.Errorf("updatedAt not strictly increasing: %v, %v", u1.Common().UpdatedAt, u2.Common().UpdatedAt)
	}
}

func TestStore_IDGeneratorExhausted(t *testing.T) {
	calls := 0
	s, _ := NewStore(context.Background(), emptySlots(t),
		WithIDGenerator(func() string {
			calls++
			return "same"
		}))
	ctx := context.Background()

	if _, err := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "one"}); err != nil {
		t.Fatalf("First add failed: %v", err)
	}
	calls = 0
	if _, err := s.Add(ctx, schema.FormData{Kind: schema.KindCourse, Title: "two"}); err == nil {
		t.Fatal("Expected an error when every generated id is taken")
	}
	if calls != maxIDAttempts {
		t.Errorf("Expected %d attempts, got %d", maxIDAttempts, calls)
	}
	if s.Len() != 1 {
		t.Errorf("Failed add must not change the collection, got %d records", s.Len())
	}

	empty, _ := NewStore(ctx, emptySlots(t), WithIDGenerator(func() string { return "" }))
	if _, err := empty.Add(ctx, schema.FormData{Kind: schema.KindCourse}); err == nil {
		t.Error("Expected an error for a generator that yields empty ids")
	}
}

func TestStore_LatencyIsApplied(t *testing.T) {
	s, _ := NewStore(context.Background(), emptySlots(t), WithLatency(Latency{Add: 30 * time.Millisecond}))

	start := time.Now()
	if _, err := s.Add(context.Background(), schema.FormData{Kind: schema.KindCourse}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Expected at least 30ms, took %v", elapsed)
	}
}
