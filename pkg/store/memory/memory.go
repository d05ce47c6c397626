// Package memory is an in-process store backend for tests and local runs.
// Records are kept CBOR encoded so callers never share memory with the store.
package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

// DB is an in-memory store backend. Values are kept CBOR encoded so callers
// never share memory with the store.
type DB struct {
	mu          sync.RWMutex
	collections map[string]map[models.ID][]byte
}

// New returns an empty store.
func New() *DB {
	return &DB{collections: make(map[string]map[models.ID][]byte)}
}

func (db *DB) Migrate(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, k := range models.Kinds() {
		if db.collections[k.Collection] == nil {
			db.collections[k.Collection] = make(map[models.ID][]byte)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return nil
}

func (db *DB) collection(name string) map[models.ID][]byte {
	c := db.collections[name]
	if c == nil {
		c = make(map[models.ID][]byte)
		db.collections[name] = c
	}
	return c
}

// Repository stores one entity kind in a DB.
type Repository[E models.Entity] struct {
	db   *DB
	desc models.Descriptor[E]
}

// NewRepository returns the repository of the kind described by desc.
func NewRepository[E models.Entity](db *DB, desc models.Descriptor[E]) *Repository[E] {
	return &Repository[E]{db: db, desc: desc}
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

	r.db.mu.Lock()
	r.db.collection(r.desc.Collection)[id] = data
	r.db.mu.Unlock()
	return saved, nil
}

func (r *Repository[E]) FindByID(ctx context.Context, id models.ID) (E, bool, error) {
	var zero E
	r.db.mu.RLock()
	data, ok := r.db.collections[r.desc.Collection][id]
	r.db.mu.RUnlock()
	if !ok {
		return zero, false, nil
	}
	e, err := r.decode(data)
	if err != nil {
		return zero, false, err
	}
	return e, true, nil
}

// snapshot copies the encoded records ordered by identifier.
func (r *Repository[E]) snapshot() [][]byte {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c := r.db.collections[r.desc.Collection]
	ids := make([]models.ID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([][]byte, len(ids))
	for i, id := range ids {
		out[i] = c[id]
	}
	return out
}

func (r *Repository[E]) FindAll(ctx context.Context, page *store.Page) iter.Seq2[E, error] {
	records := r.snapshot()
	if page == nil {
		return func(yield func(E, error) bool) {
			for _, data := range records {
				if err := ctx.Err(); err != nil {
					var zero E
					yield(zero, err)
					return
				}
				if !yield(r.decode(data)) {
					return
				}
			}
		}
	}

	items := make([]E, 0, len(records))
	for _, data := range records {
		e, err := r.decode(data)
		if err != nil {
			return store.Failed[E](err)
		}
		items = append(items, e)
	}
	items, err := store.ApplyPage(items, *page)
	if err != nil {
		return store.Failed[E](err)
	}
	return store.Slice(items)
}

func (r *Repository[E]) DeleteByID(ctx context.Context, id models.ID) error {
	r.db.mu.Lock()
	delete(r.db.collections[r.desc.Collection], id)
	r.db.mu.Unlock()
	return nil
}

func (r *Repository[E]) Count(ctx context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.collections[r.desc.Collection])), nil
}
