// Package engine defines the core contract and errors of the certify-one store.
package engine

import (
	"context"

	"github.com/celerix-dev/certify-one/pkg/schema"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("training not found")
	// ErrPersistence is returned when the durable slot could not be written.
	ErrPersistence = errors.New("persistence failure")
	// ErrSlotNotFound is returned when a durable slot holds no value.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrInvalidCredentials is the single login failure; it does not say which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a request carries no valid session token.
	ErrUnauthorized = errors.New("unauthorized")

	ErrInvalidRecord   = schema.ErrInvalidRecord
	ErrUnsupportedKind = schema.ErrUnsupportedKind
)

// Durable slot names.
const (
	SlotTrainings = "certify-one-trainings"
	SlotUsers     = "certify-one-users"
	SlotAuthToken = "auth-token"
	SlotUserData  = "user-data"
	SlotTheme     = "theme"
	SlotFontSize  = "fontSize"
)

// TrainingStore is the primary interface for the training record collection.
// Both the embedded store and the network client implement this contract.
type TrainingStore interface {
	// Add narrows the form into a record, assigns it a fresh id and prepends it.
	Add(ctx context.Context, form schema.FormData) (schema.Record, error)
	// Update rebuilds the record from the form, keeping its id and creation time.
	Update(ctx context.Context, id string, form schema.FormData) (schema.Record, error)
	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error

	// Get returns the record with the given id or ErrNotFound.
	Get(id string) (schema.Record, error)
	// List returns every record, newest first.
	List() ([]schema.Record, error)
	// ListKind returns the records of one variant in collection order.
	ListKind(kind schema.Kind) ([]schema.Record, error)
}
