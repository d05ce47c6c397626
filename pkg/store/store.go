// Package store defines the primary persistence contract shared by every
// entity kind, plus the paging, sorting and read-only helpers the backends
// in its sub-packages build on.
package store

import (
	"context"
	"iter"

	"github.com/hrdemo/company/pkg/models"
)

// Repository persists one entity kind in the primary store.
//
// Implementations wrap every backend failure with ErrStoreUnavailable so the
// service layer can tell store failures from index failures.
type Repository[E models.Entity] interface {
	// Save creates the entity when it has no identifier, assigning one, and
	// replaces the stored record otherwise. The returned entity carries the
	// identifier.
	Save(ctx context.Context, entity E) (E, error)

	// FindByID reports found=false for a missing record; it fails only when
	// the store cannot answer.
	FindByID(ctx context.Context, id models.ID) (entity E, found bool, err error)

	// FindAll lazily yields every entity, or only the requested page when
	// page is not nil. Iteration stops at the first error.
	FindAll(ctx context.Context, page *Page) iter.Seq2[E, error]

	// DeleteByID succeeds when the record does not exist.
	DeleteByID(ctx context.Context, id models.ID) error

	Count(ctx context.Context) (int64, error)
}

// Backend is the connection-level side of a store shared by all repositories.
type Backend interface {
	// Migrate prepares tables or key spaces for every entity kind.
	Migrate(ctx context.Context) error
	Close() error
}
