// Package memindex evaluates search queries against documents held in
// memory. It backs tests and local runs.
package memindex

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/search"
)

type entry struct {
	body   []byte
	fields map[string][]string
}

// Index keeps token sets of every document in memory. It is meant for tests
// and local development; nothing survives a restart.
type Index struct {
	mu    sync.RWMutex
	kinds map[string]map[models.ID]entry
}

func New() *Index {
	return &Index{kinds: make(map[string]map[models.ID]entry)}
}

func (x *Index) Migrate(ctx context.Context) error { return nil }
func (x *Index) Close() error                      { return nil }

func (x *Index) Put(ctx context.Context, kind string, doc search.Document) error {
	e := entry{body: slices.Clone(doc.Body), fields: make(map[string][]string, len(doc.Fields))}
	for _, f := range doc.Fields {
		e.fields[f.Name] = slices.Clone(f.Tokens)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	docs := x.kinds[kind]
	if docs == nil {
		docs = make(map[models.ID]entry)
		x.kinds[kind] = docs
	}
	docs[doc.ID] = e
	return nil
}

func (x *Index) Delete(ctx context.Context, kind string, id models.ID) error {
	x.mu.Lock()
	delete(x.kinds[kind], id)
	x.mu.Unlock()
	return nil
}

func (x *Index) Clear(ctx context.Context, kind string) error {
	x.mu.Lock()
	delete(x.kinds, kind)
	x.mu.Unlock()
	return nil
}

func (x *Index) Count(ctx context.Context, kind string) (int64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return int64(len(x.kinds[kind])), nil
}

func (x *Index) matches(kind string, q search.Query) []search.Hit {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var hits []search.Hit
	for id, e := range x.kinds[kind] {
		if ok, score := eval(q, e); ok {
			hits = append(hits, search.Hit{ID: id, Body: slices.Clone(e.body), Score: score})
		}
	}
	slices.SortFunc(hits, func(a, b search.Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return hits
}

func (x *Index) Search(ctx context.Context, kind string, q search.Query, offset, limit int) ([]search.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := x.matches(kind, q)
	if offset >= len(hits) {
		return nil, nil
	}
	hits = hits[offset:]
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

func (x *Index) CountMatches(ctx context.Context, kind string, q search.Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(x.matches(kind, q))), nil
}

func eval(q search.Query, e entry) (bool, int64) {
	switch q := q.(type) {
	case search.MatchAll:
		return true, 1
	case search.Term:
		if hasToken(q, e) {
			return true, 1
		}
		return false, 0
	case search.Bool:
		var score int64
		for _, c := range q.MustNot {
			if ok, _ := eval(c, e); ok {
				return false, 0
			}
		}
		for _, c := range q.Must {
			ok, s := eval(c, e)
			if !ok {
				return false, 0
			}
			score += s
		}
		anyShould := false
		for _, c := range q.Should {
			if ok, s := eval(c, e); ok {
				anyShould = true
				score += s
			}
		}
		if len(q.Must) == 0 && len(q.Should) > 0 && !anyShould {
			return false, 0
		}
		return true, score
	}
	return false, 0
}

func hasToken(t search.Term, e entry) bool {
	if t.Field != "" {
		return slices.ContainsFunc(e.fields[t.Field], t.MatchToken)
	}
	for _, tokens := range e.fields {
		if slices.ContainsFunc(tokens, t.MatchToken) {
			return true
		}
	}
	return false
}
