package store

import (
	"context"

	"github.com/hrdemo/company/pkg/models"
)

// ReadOnly wraps a repository and rejects writes while isReadOnly reports
// true. Reads always pass through.
type ReadOnly[E models.Entity] struct {
	Repository[E]
	isReadOnly func() bool
}

// NewReadOnly wraps repo so writes fail with ErrReadOnly while isReadOnly
// returns true. Reads always pass through.
func NewReadOnly[E models.Entity](repo Repository[E], isReadOnly func() bool) *ReadOnly[E] {
	return &ReadOnly[E]{
		Repository: repo,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying repository.
func (r *ReadOnly[E]) Unwrap() Repository[E] {
	return r.Repository
}

func (r *ReadOnly[E]) checkReadOnly() error {
	if r.isReadOnly() {
		return ErrReadOnly
	}
	return nil
}

func (r *ReadOnly[E]) Save(ctx context.Context, entity E) (E, error) {
	if err := r.checkReadOnly(); err != nil {
		var zero E
		return zero, err
	}
	return r.Repository.Save(ctx, entity)
}

func (r *ReadOnly[E]) DeleteByID(ctx context.Context, id models.ID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Repository.DeleteByID(ctx, id)
}
