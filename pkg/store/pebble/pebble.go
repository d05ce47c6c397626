// Package pebble is an embedded store backend on top of a Pebble key value
// database. Each record lives under "<collection>\x00<id>" as CBOR.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/cockroachdb/pebble"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

const separator = 0x00

// DB is the embedded store backend. Entities are CBOR values under
// "<collection>/<id>" keys of one pebble database.
type DB struct {
	db *pebble.DB
}

// Open opens or creates the database directory at path.
func Open(path string, opts *pebble.Options) (*DB, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, store.StoreError("open", err)
	}
	return &DB{db: db}, nil
}

// Migrate is a no-op: key spaces need no preparation.
func (d *DB) Migrate(ctx context.Context) error {
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func recordKey(collection string, id models.ID) []byte {
	key := make([]byte, 0, len(collection)+1+len(id))
	key = append(key, collection...)
	key = append(key, separator)
	return append(key, id...)
}

func collectionBounds(collection string) (lower, upper []byte) {
	lower = append([]byte(collection), separator)
	upper = append([]byte(collection), separator+1)
	return lower, upper
}

// Repository stores one entity kind in a DB.
type Repository[E models.Entity] struct {
	d    *DB
	desc models.Descriptor[E]
}

// NewRepository returns the repository of the kind described by desc.
func NewRepository[E models.Entity](d *DB, desc models.Descriptor[E]) *Repository[E] {
	return &Repository[E]{d: d, desc: desc}
}

func (r *Repository[E]) decode(data []byte) (E, error) {
	e := r.desc.New()
	if err := store.Unmarshal(data, e); err != nil {
		var zero E
		return zero, fmt.Errorf("failed to decode %s: %w", r.desc.Name, err)
	}
	return e, nil
}

func (r *Repository[E]) Save(ctx context.Context, entity E) (E, error) {
	var zero E
	id := entity.GetID()
	if id.IsZero() {
		var err error
		if id, err = store.NewID(); err != nil {
			return zero, store.StoreError("save", err)
		}
	}

	data, err := store.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", r.desc.Name, err)
	}
	saved, err := r.decode(data)
	if err != nil {
		return zero, err
	}
	saved.SetID(id)
	if data, err = store.Marshal(saved); err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", r.desc.Name, err)
	}

	if err := r.d.db.Set(recordKey(r.desc.Collection, id), data, pebble.Sync); err != nil {
		return zero, store.StoreError("save", err)
	}
	return saved, nil
}

func (r *Repository[E]) FindByID(ctx context.Context, id models.ID) (E, bool, error) {
	var zero E
	data, closer, err := r.d.db.Get(recordKey(r.desc.Collection, id))
	if closer != nil {
		defer closer.Close()
	}
	if errors.Is(err, pebble.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, store.StoreError("find", err)
	}
	e, err := r.decode(data)
	if err != nil {
		return zero, false, err
	}
	return e, true, nil
}

// scan yields every record of the collection in key order.
func (r *Repository[E]) scan(ctx context.Context) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		var zero E
		lower, upper := collectionBounds(r.desc.Collection)
		it, err := r.d.db.NewIter(&pebble.IterOptions{
			LowerBound: lower,
			UpperBound: upper,
		})
		if err != nil {
			yield(zero, store.StoreError("scan", err))
			return
		}
		defer it.Close()

		for valid := it.First(); valid; valid = it.Next() {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}
			value, err := it.ValueAndErr()
			if err != nil {
				yield(zero, store.StoreError("scan", err))
				return
			}
			if !yield(r.decode(value)) {
				return
			}
		}
		if err := it.Error(); err != nil {
			yield(zero, store.StoreError("scan", err))
		}
	}
}

func (r *Repository[E]) FindAll(ctx context.Context, page *store.Page) iter.Seq2[E, error] {
	if page == nil {
		return r.scan(ctx)
	}
	items, err := store.Collect(r.scan(ctx))
	if err != nil {
		return store.Failed[E](err)
	}
	if items, err = store.ApplyPage(items, *page); err != nil {
		return store.Failed[E](err)
	}
	return store.Slice(items)
}

func (r *Repository[E]) DeleteByID(ctx context.Context, id models.ID) error {
	if err := r.d.db.Delete(recordKey(r.desc.Collection, id), pebble.Sync); err != nil {
		return store.StoreError("delete", err)
	}
	return nil
}

func (r *Repository[E]) Count(ctx context.Context) (int64, error) {
	lower, upper := collectionBounds(r.desc.Collection)
	it, err := r.d.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return 0, store.StoreError("count", err)
	}
	defer it.Close()

	var n int64
	for valid := it.First(); valid; valid = it.Next() {
		n++
	}
	if err := it.Error(); err != nil {
		return 0, store.StoreError("count", err)
	}
	return n, nil
}
