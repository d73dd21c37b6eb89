// Package users manages the employee directory kept in the
// certify-one-users slot.
package users

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/certify-one/internal/engine"
	"github.com/celerix-dev/certify-one/internal/logger"
	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Tabs accepted by Search.
const (
	TabAll      = "all"
	TabActive   = "active"
	TabInactive = "inactive"
)

type Counts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

type Directory struct {
	mu        sync.RWMutex
	employees []schema.Employee

	writeMu sync.Mutex
	slots   engine.SlotStore
	log     *logger.Logger
	now     func() time.Time
}

// NewDirectory loads the directory, seeding it with the mock employees when
// the slot is absent or unreadable.
func NewDirectory(ctx context.Context, slots engine.SlotStore, log *logger.Logger) (*Directory, error) {
	if slots == nil {
		return nil, errors.New("users: nil slot store")
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &Directory{
		slots: slots,
		log:   log.With("component", "UserDirectory"),
		now:   time.Now,
	}

	data, err := slots.Load(ctx, pkgengine.SlotUsers)
	if err == nil {
		var loaded []schema.Employee
		if err = json.Unmarshal(data, &loaded); err == nil {
			d.employees = loaded
			return d, nil
		}
	}
	if !errors.Is(err, pkgengine.ErrSlotNotFound) {
		d.log.Warn("Saved users unreadable, starting from seed", "error", err)
	}
	d.employees = seedEmployees()
	if err := d.persist(ctx, d.employees); err != nil {
		d.log.Warn("Could not write seed users", "error", err)
	}
	return d, nil
}

func (d *Directory) List() []schema.Employee {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneAll(d.employees)
}

// Search matches term against first name, last name, email and department,
// case-insensitively, then narrows by tab.
func (d *Directory) Search(term, tab string) []schema.Employee {
	term = strings.ToLower(strings.TrimSpace(term))

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []schema.Employee{}
	for _, e := range d.employees {
		if term != "" && !matches(e, term) {
			continue
		}
		switch tab {
		case TabActive:
			if e.Status != schema.EmployeeActive {
				continue
			}
		case TabInactive:
			if e.Status != schema.EmployeeInactive {
				continue
			}
		}
		out = append(out, clone(e))
	}
	return out
}

func matches(e schema.Employee, term string) bool {
	for _, field := range []string{e.FirstName, e.LastName, e.Email, e.Department} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (d *Directory) Get(id string) (schema.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := d.indexOf(id); i >= 0 {
		return clone(d.employees[i]), nil
	}
	return schema.Employee{}, errors.Wrapf(pkgengine.ErrNotFound, "user %s", id)
}

// Add appends a new employee.
func (d *Directory) Add(ctx context.Context, form schema.EmployeeForm) (schema.Employee, error) {
	if err := validate(&form); err != nil {
		return schema.Employee{}, err
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	now := d.now().UTC()
	e := fromForm(uuid.NewString(), form, now, now)

	next := append(cloneAll(d.employees), e)
	if err := d.commit(ctx, next); err != nil {
		return schema.Employee{}, err
	}
	d.log.Info("User added", "id", e.ID)
	return clone(e), nil
}

func (d *Directory) Update(ctx context.Context, id string, form schema.EmployeeForm) (schema.Employee, error) {
	if err := validate(&form); err != nil {
		return schema.Employee{}, err
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	i := d.indexOf(id)
	if i < 0 {
		return schema.Employee{}, errors.Wrapf(pkgengine.ErrNotFound, "user %s", id)
	}
	prev := d.employees[i]
	e := fromForm(id, form, prev.CreatedAt, d.stamp(prev.UpdatedAt))
	e.Avatar = prev.Avatar

	next := cloneAll(d.employees)
	next[i] = e
	if err := d.commit(ctx, next); err != nil {
		return schema.Employee{}, err
	}
	return clone(e), nil
}

func (d *Directory) Delete(ctx context.Context, id string) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	i := d.indexOf(id)
	if i < 0 {
		return errors.Wrapf(pkgengine.ErrNotFound, "user %s", id)
	}
	next := cloneAll(d.employees)
	next = append(next[:i], next[i+1:]...)
	return d.commit(ctx, next)
}

// ToggleStatus flips an employee between active and inactive.
func (d *Directory) ToggleStatus(ctx context.Context, id string) (schema.Employee, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	i := d.indexOf(id)
	if i < 0 {
		return schema.Employee{}, errors.Wrapf(pkgengine.ErrNotFound, "user %s", id)
	}
	next := cloneAll(d.employees)
	e := &next[i]
	if e.Status == schema.EmployeeActive {
		e.Status = schema.EmployeeInactive
	} else {
		e.Status = schema.EmployeeActive
	}
	e.UpdatedAt = d.stamp(e.UpdatedAt)
	if err := d.commit(ctx, next); err != nil {
		return schema.Employee{}, err
	}
	d.log.Info("User status changed", "id", id, "status", e.Status)
	return clone(*e), nil
}

func (d *Directory) Counts() Counts {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c := Counts{Total: len(d.employees)}
	for _, e := range d.employees {
		switch e.Status {
		case schema.EmployeeActive:
			c.Active++
		case schema.EmployeeInactive:
			c.Inactive++
		}
	}
	return c
}

func (d *Directory) stamp(prev time.Time) time.Time {
	now := d.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func (d *Directory) indexOf(id string) int {
	for i, e := range d.employees {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (d *Directory) commit(ctx context.Context, next []schema.Employee) error {
	if err := d.persist(context.WithoutCancel(ctx), next); err != nil {
		return err
	}
	d.mu.Lock()
	d.employees = next
	d.mu.Unlock()
	return nil
}

func (d *Directory) persist(ctx context.Context, employees []schema.Employee) error {
	if employees == nil {
		employees = []schema.Employee{}
	}
	data, err := json.Marshal(employees)
	if err != nil {
		return errors.Wrapf(pkgengine.ErrPersistence, "encode users: %v", err)
	}
	if err := d.slots.Save(ctx, pkgengine.SlotUsers, data); err != nil {
		return errors.Wrapf(pkgengine.ErrPersistence, "save users: %v", err)
	}
	return nil
}

func validate(f *schema.EmployeeForm) error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	if f.FirstName == "" || f.LastName == "" || f.Email == "" {
		return errors.Wrap(pkgengine.ErrInvalidRecord, "first name, last name and email are required")
	}

	if f.Role == "" {
		f.Role = schema.RoleEmployee
	}
	if f.Role != schema.RoleEmployee && f.Role != schema.RoleAdmin {
		return errors.Wrapf(pkgengine.ErrInvalidRecord, "unknown role %q", string(f.Role))
	}
	if f.Status == "" {
		f.Status = schema.EmployeeActive
	}
	if f.Status != schema.EmployeeActive && f.Status != schema.EmployeeInactive {
		return errors.Wrapf(pkgengine.ErrInvalidRecord, "unknown status %q", string(f.Status))
	}
	switch f.EmploymentDetails.EmploymentType {
	case "":
		f.EmploymentDetails.EmploymentType = schema.EmploymentFullTime
	case schema.EmploymentFullTime, schema.EmploymentPartTime, schema.EmploymentContract, schema.EmploymentIntern:
	default:
		return errors.Wrapf(pkgengine.ErrInvalidRecord, "unknown employment type %q", string(f.EmploymentDetails.EmploymentType))
	}
	return nil
}

func fromForm(id string, f schema.EmployeeForm, created, updated time.Time) schema.Employee {
	return schema.Employee{
		ID:                id,
		FirstName:         f.FirstName,
		LastName:          f.LastName,
		Email:             f.Email,
		Role:              f.Role,
		Department:        f.Department,
		Position:          f.Position,
		Phone:             f.Phone,
		EmergencyContact:  f.EmergencyContact,
		Address:           f.Address,
		EmploymentDetails: f.EmploymentDetails,
		Status:            f.Status,
		CreatedAt:         created,
		UpdatedAt:         updated,
	}
}

func clone(e schema.Employee) schema.Employee {
	if e.Avatar != nil {
		v := *e.Avatar
		e.Avatar = &v
	}
	return e
}

func cloneAll(in []schema.Employee) []schema.Employee {
	out := make([]schema.Employee, len(in))
	for i, e := range in {
		out[i] = clone(e)
	}
	return out
}
