package surrealdb

import (
	"context"
	"fmt"
	"iter"

	"github.com/surrealdb/surrealdb.go/contrib/surrealql"
	sdbmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

// batchSize bounds each round trip of an unpaged FindAll.
const batchSize = 100

// Repository stores one entity kind in its own SurrealDB table.
type Repository[E models.Entity] struct {
	d    *DB
	desc models.Descriptor[E]
}

// NewRepository returns the repository of the kind described by desc.
func NewRepository[E models.Entity](d *DB, desc models.Descriptor[E]) *Repository[E] {
	return &Repository[E]{d: d, desc: desc}
}

func (r *Repository[E]) table() sdbmodels.Table {
	return sdbmodels.Table(r.desc.Collection)
}

func (r *Repository[E]) recordID(id models.ID) sdbmodels.RecordID {
	return sdbmodels.NewRecordID(r.desc.Collection, string(id))
}

// content copies entity without its identifier; the record id carries it.
func (r *Repository[E]) content(entity E) (E, error) {
	var zero E
	data, err := store.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s: %w", r.desc.Name, err)
	}
	clone := r.desc.New()
	if err := store.Unmarshal(data, clone); err != nil {
		return zero, fmt.Errorf("failed to copy %s: %w", r.desc.Name, err)
	}
	clone.SetID("")
	return clone, nil
}

func (r *Repository[E]) Save(ctx context.Context, entity E) (E, error) {
	var zero E
	data, err := r.content(entity)
	if err != nil {
		return zero, err
	}

	sql := "UPSERT $rid CONTENT $data"
	id := entity.GetID()
	if id.IsZero() {
		if id, err = store.NewID(); err != nil {
			return zero, store.StoreError("save "+r.desc.Collection, err)
		}
		sql = "CREATE $rid CONTENT $data"
	}
	vars := map[string]any{"rid": r.recordID(id), "data": data}

	saved, err := query[[]E](ctx, r.d.db, "save "+r.desc.Collection, sql, vars)
	if err != nil {
		return zero, err
	}
	if len(saved) != 1 {
		return zero, store.StoreError("save "+r.desc.Collection, fmt.Errorf("expected one record, got %d", len(saved)))
	}
	return saved[0], nil
}

func (r *Repository[E]) FindByID(ctx context.Context, id models.ID) (E, bool, error) {
	var zero E
	if id.IsZero() {
		return zero, false, nil
	}
	sql, vars := surrealql.Select(r.recordID(id)).Build()
	found, err := query[[]E](ctx, r.d.db, "find "+r.desc.Collection, sql, vars)
	if err != nil {
		return zero, false, err
	}
	if len(found) == 0 {
		return zero, false, nil
	}
	return found[0], true, nil
}

func (r *Repository[E]) selectPage(page store.Page) (string, map[string]any) {
	q := surrealql.Select(r.table())
	byID := false
	for _, o := range page.Sort {
		if o.Field == "id" {
			byID = true
		}
		if o.Desc {
			q = q.OrderByDesc(o.Field)
		} else {
			q = q.OrderBy(o.Field)
		}
	}
	if !byID {
		q = q.OrderBy("id")
	}
	return q.Start(page.Offset()).Limit(page.Size).Build()
}

func (r *Repository[E]) FindAll(ctx context.Context, page *store.Page) iter.Seq2[E, error] {
	if page != nil {
		sql, vars := r.selectPage(*page)
		items, err := query[[]E](ctx, r.d.db, "find all "+r.desc.Collection, sql, vars)
		if err != nil {
			return store.Failed[E](err)
		}
		return store.Slice(items)
	}

	return func(yield func(E, error) bool) {
		var zero E
		for start := 0; ; start += batchSize {
			sql, vars := r.selectPage(store.Page{Number: start / batchSize, Size: batchSize})
			batch, err := query[[]E](ctx, r.d.db, "find all "+r.desc.Collection, sql, vars)
			if err != nil {
				yield(zero, err)
				return
			}
			for _, item := range batch {
				if !yield(item, nil) {
					return
				}
			}
			if len(batch) < batchSize {
				return
			}
		}
	}
}

func (r *Repository[E]) DeleteByID(ctx context.Context, id models.ID) error {
	if id.IsZero() {
		return nil
	}
	sql, vars := surrealql.Delete(r.recordID(id)).Build()
	_, err := query[any](ctx, r.d.db, "delete "+r.desc.Collection, sql, vars)
	return err
}

type countRow struct {
	Total int64 `json:"total"`
}

func (r *Repository[E]) Count(ctx context.Context) (int64, error) {
	sql, vars := surrealql.Select(r.table()).Field("count() AS total").GroupAll().Build()
	rows, err := query[[]countRow](ctx, r.d.db, "count "+r.desc.Collection, sql, vars)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
