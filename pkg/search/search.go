// Package search mirrors entities into a text search index. Backends store
// analysed JSON documents per entity kind and evaluate parsed queries; Index
// gives them a typed face per entity.
package search

import (
	"context"
	"iter"

	"github.com/goccy/go-json"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

// Document is an entity ready for indexing.
type Document struct {
	ID     models.ID
	Body   []byte
	Fields []Field
}

// Hit is one search result. Score counts the matched terms.
type Hit struct {
	ID    models.ID
	Body  []byte
	Score int64
}

// Backend stores documents grouped by kind. Search orders hits by score
// descending, then identifier; a limit of zero or less means no limit.
type Backend interface {
	Migrate(ctx context.Context) error
	Put(ctx context.Context, kind string, doc Document) error
	Delete(ctx context.Context, kind string, id models.ID) error
	Search(ctx context.Context, kind string, q Query, offset, limit int) ([]Hit, error)
	CountMatches(ctx context.Context, kind string, q Query) (int64, error)
	Count(ctx context.Context, kind string) (int64, error)
	Clear(ctx context.Context, kind string) error
	Close() error
}

// Index is the search repository of one entity kind.
type Index[E models.Entity] struct {
	b    Backend
	desc models.Descriptor[E]
}

// NewIndex binds backend b to the entity kind described by desc.
func NewIndex[E models.Entity](b Backend, desc models.Descriptor[E]) *Index[E] {
	return &Index[E]{b: b, desc: desc}
}

func (x *Index[E]) kind() string {
	return x.desc.Collection
}

// Save upserts the entity under its identifier.
func (x *Index[E]) Save(ctx context.Context, entity E) error {
	body, err := json.Marshal(entity)
	if err != nil {
		return store.IndexError("encode "+x.kind(), err)
	}
	fields, err := Analyze(body)
	if err != nil {
		return store.IndexError("analyze "+x.kind(), err)
	}
	doc := Document{ID: entity.GetID(), Body: body, Fields: fields}
	return store.IndexError("save "+x.kind(), x.b.Put(ctx, x.kind(), doc))
}

// DeleteByID removes the document of id. Removing a missing document
// succeeds.
func (x *Index[E]) DeleteByID(ctx context.Context, id models.ID) error {
	return store.IndexError("delete "+x.kind(), x.b.Delete(ctx, x.kind(), id))
}

func (x *Index[E]) parse(query string) (Query, error) {
	q, err := Parse(query)
	if err != nil {
		return nil, models.NewValidationError(x.desc.Name, models.KeyQuery, err.Error())
	}
	return q, nil
}

// Search yields matching entities in relevance order, bounded to page when it
// is not nil. Sort keys of the page are ignored. A malformed query yields a
// validation error before the backend is called.
func (x *Index[E]) Search(ctx context.Context, query string, page *store.Page) iter.Seq2[E, error] {
	q, err := x.parse(query)
	if err != nil {
		return store.Failed[E](err)
	}
	offset, limit := 0, 0
	if page != nil {
		offset, limit = page.Offset(), page.Size
	}
	hits, err := x.b.Search(ctx, x.kind(), q, offset, limit)
	if err != nil {
		return store.Failed[E](store.IndexError("search "+x.kind(), err))
	}
	return func(yield func(E, error) bool) {
		for _, h := range hits {
			e := x.desc.New()
			if err := json.Unmarshal(h.Body, e); err != nil {
				var zero E
				yield(zero, store.IndexError("decode "+x.kind(), err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// CountMatches counts the documents matching query.
func (x *Index[E]) CountMatches(ctx context.Context, query string) (int64, error) {
	q, err := x.parse(query)
	if err != nil {
		return 0, err
	}
	n, err := x.b.CountMatches(ctx, x.kind(), q)
	return n, store.IndexError("count matches "+x.kind(), err)
}

// Count is the number of indexed documents of the kind.
func (x *Index[E]) Count(ctx context.Context) (int64, error) {
	n, err := x.b.Count(ctx, x.kind())
	return n, store.IndexError("count "+x.kind(), err)
}

// Clear drops every document of the kind.
func (x *Index[E]) Clear(ctx context.Context) error {
	return store.IndexError("clear "+x.kind(), x.b.Clear(ctx, x.kind()))
}
