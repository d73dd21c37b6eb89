package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/celerix-dev/certify-one/internal/logger"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Op string

const (
	OpAdd        Op = "add"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpBulkDelete Op = "bulk-delete"
)

// Event describes one finished mutation attempt. Err is nil on success.
type Event struct {
	Op    Op
	ID    string
	Kind  schema.Kind
	Count int
	Err   error
}

// Observer is told about every mutation. It must not call back into the
// store's mutating methods.
type Observer func(Event)

// Latency is the artificial delay applied before each mutation.
type Latency struct {
	Add    time.Duration
	Update time.Duration
	Delete time.Duration
}

type Option func(*Store)

func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithLatency(l Latency) Option {
	return func(s *Store) { s.latency = l }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// Store holds the training collection in memory and writes the whole
// collection to the trainings slot after every mutation.
type Store struct {
	mu      sync.RWMutex
	records schema.Collection

	// writeMu admits one mutation at a time, from the artificial delay
	// through the slot write.
	writeMu sync.Mutex

	slots   SlotStore
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
	latency Latency

	obsMu     sync.RWMutex
	observers []Observer
}

var _ pkgengine.TrainingStore = (*Store)(nil)

// NewStore loads the collection from slots. Absent or unreadable data is
// replaced by SeedCollection, which is then written back.
func NewStore(ctx context.Context, slots SlotStore, opts ...Option) (*Store, error) {
	if slots == nil {
		return nil, errors.New("engine: nil slot store")
	}
	s := &Store{
		slots: slots,
		log:   logger.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "TrainingStore")
	s.load(ctx)
	return s, nil
}

func (s *Store) load(ctx context.Context) {
	data, err := s.slots.Load(ctx, pkgengine.SlotTrainings)
	if err == nil {
		var loaded schema.Collection
		if err = json.Unmarshal(data, &loaded); err == nil {
			s.records = loaded
			s.log.Info("Loaded trainings", "count", len(loaded))
			return
		}
	}

	if errors.Is(err, pkgengine.ErrSlotNotFound) {
		s.log.Info("No saved trainings, starting from seed")
	} else {
		s.log.Warn("Saved trainings unreadable, starting from seed", "error", err)
	}
	s.records = SeedCollection()
	if err := s.persist(ctx, s.records); err != nil {
		s.log.Warn("Could not write seed collection", "error", err)
	}
}

// Subscribe registers an observer for future mutations.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Store) notify(ev Event) {
	s.obsMu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.obsMu.RUnlock()
	for _, o := range observers {
		o(ev)
	}
}

// --- Interface Implementation ---

func (s *Store) Add(ctx context.Context, form schema.FormData) (schema.Record, error) {
	rec, err := s.add(ctx, form)
	ev := Event{Op: OpAdd, Kind: form.Variant(), Err: err}
	if rec != nil {
		ev.ID = rec.Common().ID
	}
	s.notify(ev)
	return rec, err
}

func (s *Store) add(ctx context.Context, form schema.FormData) (schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	sleep(s.latency.Add)

	id, err := s.freshID()
	if err != nil {
		return nil, err
	}
	rec, err := form.Build(id, s.clock())
	if err != nil {
		return nil, err
	}

	next := make(schema.Collection, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

const maxIDAttempts = 10

// freshID draws ids until one is non-empty and unused.
func (s *Store) freshID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		if id := s.newID(); id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", errors.Errorf("no unused id after %d attempts", maxIDAttempts)
}

func (s *Store) Update(ctx context.Context, id string, form schema.FormData) (schema.Record, error) {
	rec, err := s.update(ctx, id, form)
	s.notify(Event{Op: OpUpdate, ID: id, Kind: form.Variant(), Err: err})
	return rec, err
}

func (s *Store) update(ctx context.Context, id string, form schema.FormData) (schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	sleep(s.latency.Update)

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, errors.Wrapf(pkgengine.ErrNotFound, "update %s", id)
	}
	prev := s.records[idx].Common()

	now := s.clock()
	if !now.After(prev.UpdatedAt) {
		now = prev.UpdatedAt.Add(time.Nanosecond)
	}
	rec, err := form.Build(id, now)
	if err != nil {
		return nil, err
	}
	rec.Common().CreatedAt = prev.CreatedAt

	next := make(schema.Collection, len(s.records))
	copy(next, s.records)
	next[idx] = rec
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	kind, err := s.delete(ctx, id)
	s.notify(Event{Op: OpDelete, ID: id, Kind: kind, Err: err})
	return err
}

func (s *Store) delete(ctx context.Context, id string) (schema.Kind, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	sleep(s.latency.Delete)

	idx := s.indexOf(id)
	if idx < 0 {
		return "", errors.Wrapf(pkgengine.ErrNotFound, "delete %s", id)
	}
	kind := s.records[idx].Kind()

	next := make(schema.Collection, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)
	return kind, s.commit(ctx, next)
}

// BulkDelete removes every listed record in one mutation and one slot write.
// Unknown ids are skipped.
func (s *Store) BulkDelete(ctx context.Context, ids []string) (int, error) {
	n, err := s.bulkDelete(ctx, ids)
	s.notify(Event{Op: OpBulkDelete, Count: n, Err: err})
	return n, err
}

func (s *Store) bulkDelete(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	sleep(s.latency.Delete)

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	next := make(schema.Collection, 0, len(s.records))
	for _, rec := range s.records {
		if _, ok := drop[rec.Common().ID]; ok {
			continue
		}
		next = append(next, rec)
	}
	removed := len(s.records) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Store) Get(id string) (schema.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.Common().ID == id {
			return rec.Clone(), nil
		}
	}
	return nil, errors.Wrapf(pkgengine.ErrNotFound, "get %s", id)
}

func (s *Store) List() ([]schema.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Clone(), nil
}

func (s *Store) ListKind(kind schema.Kind) ([]schema.Record, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schema.Record{}
	for _, rec := range s.records {
		if rec.Kind() == kind {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (s *Store) ListCertifications() []schema.Record {
	out, _ := s.ListKind(schema.KindCertification)
	return out
}

func (s *Store) ListCourses() []schema.Record {
	out, _ := s.ListKind(schema.KindCourse)
	return out
}

func (s *Store) ListSessions() []schema.Record {
	out, _ := s.ListKind(schema.KindSession)
	return out
}

// Len returns the collection size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// indexOf must be called while holding writeMu or mu.
func (s *Store) indexOf(id string) int {
	for i, rec := range s.records {
		if rec.Common().ID == id {
			return i
		}
	}
	return -1
}

// commit writes next to the slot and only then makes it visible. The caller
// holds writeMu. Cancellation of ctx does not abort a started write.
func (s *Store) commit(ctx context.Context, next schema.Collection) error {
	if err := s.persist(context.WithoutCancel(ctx), next); err != nil {
		s.log.Error("Persisting trainings failed", "error", err)
		return err
	}
	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
	return nil
}

func (s *Store) persist(ctx context.Context, records schema.Collection) error {
	if records == nil {
		records = schema.Collection{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return errors.Wrapf(pkgengine.ErrPersistence, "encode trainings: %v", err)
	}
	if err := s.slots.Save(ctx, pkgengine.SlotTrainings, data); err != nil {
		return errors.Wrapf(pkgengine.ErrPersistence, "save trainings: %v", err)
	}
	return nil
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

func sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
