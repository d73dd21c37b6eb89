package sdk

import (
	"context"

	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/celerix-dev/certify-one/pkg/schema"
)

// --- Functional Interfaces (Interface Segregation) ---

// Reader defines the read operations of the store.
type Reader interface {
	Get(id string) (schema.Record, error)
	List() ([]schema.Record, error)
	ListKind(kind schema.Kind) ([]schema.Record, error)
}

// Writer defines the mutating operations of the store.
type Writer interface {
	Add(ctx context.Context, form schema.FormData) (schema.Record, error)
	Update(ctx context.Context, id string, form schema.FormData) (schema.Record, error)
	Delete(ctx context.Context, id string) error
}

// BulkDeleter is implemented by stores that can remove many records in one write.
type BulkDeleter interface {
	BulkDelete(ctx context.Context, ids []string) (int, error)
}

// Store combines reads and writes. Both the remote Client and the embedded
// engine satisfy it.
type Store interface {
	Reader
	Writer
}

var (
	_ Store = pkgengine.TrainingStore(nil)
	_ Store = (*Client)(nil)
)
