// Package service keeps the primary store and the search index of one entity
// kind in step.
//
// Writes go to the store first and to the index second. A failed store write
// never reaches the index; a failed index write leaves the store write in
// place and is reported with store.ErrIndexUnavailable. Reads go to the store
// and searches to the index, without cross checking one against the other.
package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

// Index is the search side of an entity kind, see search.Index.
type Index[E models.Entity] interface {
	Save(ctx context.Context, entity E) error
	DeleteByID(ctx context.Context, id models.ID) error
	Search(ctx context.Context, query string, page *store.Page) iter.Seq2[E, error]
	CountMatches(ctx context.Context, query string) (int64, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

// Service is the synchronizing layer of one entity kind. It validates input,
// writes to the store and then the index, and serves reads from the store and
// searches from the index.
type Service[E models.Entity] struct {
	desc  models.Descriptor[E]
	repo  store.Repository[E]
	index Index[E]
	log   zerolog.Logger
	now   func() time.Time
}

// Option configures a Service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for audit fields and retention checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns the service of the kind described by desc over repo and index.
func New[E models.Entity](desc models.Descriptor[E], repo store.Repository[E], index Index[E], log zerolog.Logger, opts ...Option) *Service[E] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service[E]{
		desc:  desc,
		repo:  repo,
		index: index,
		log:   log.With().Str("kind", desc.Name).Logger(),
		now:   o.now,
	}
}

// Meta describes the entity kind of the service.
func (s *Service[E]) Meta() models.Meta {
	return s.desc.Meta
}

// NewEntity returns an empty entity of the kind.
func (s *Service[E]) NewEntity() E {
	return s.desc.New()
}

func (s *Service[E]) observe(op string, start time.Time, id models.ID, err error) {
	operationsTotal.WithLabelValues(s.desc.Name, op, outcome(err)).Inc()
	operationDuration.WithLabelValues(s.desc.Name, op).Observe(time.Since(start).Seconds())

	ev := s.log.Debug()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev = ev.Str("op", op)
	if !id.IsZero() {
		ev = ev.Str("id", id.String())
	}
	ev.Dur("took", time.Since(start)).Msg("service call")
}

// Create saves an entity that has no identifier yet.
func (s *Service[E]) Create(ctx context.Context, entity E) (saved E, err error) {
	start := time.Now()
	defer func() { s.observe("create", start, saved.GetID(), err) }()

	var zero E
	if !entity.GetID().IsZero() {
		return zero, models.NewValidationError(s.desc.Name, models.KeyIDExists, fmt.Sprintf("a new %s cannot already have an ID", s.desc.Name))
	}
	if err := s.check(entity); err != nil {
		return zero, err
	}
	return s.save(ctx, entity)
}

// Update replaces an existing entity.
func (s *Service[E]) Update(ctx context.Context, entity E) (saved E, err error) {
	start := time.Now()
	id := entity.GetID()
	defer func() { s.observe("update", start, id, err) }()

	var zero E
	if id.IsZero() {
		return zero, models.NewValidationError(s.desc.Name, models.KeyIDNull, "invalid id")
	}
	if err := s.check(entity); err != nil {
		return zero, err
	}
	stored, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, fmt.Errorf("%s %s: %w", s.desc.Name, id, store.ErrNotFound)
	}
	if a, ok := any(entity).(models.Auditable); ok {
		a.KeepCreated(stored)
	}
	return s.save(ctx, entity)
}

// Save writes to the store, then indexes what the store returned. The
// returned entity is the stored one even when the index step fails.
func (s *Service[E]) Save(ctx context.Context, entity E) (saved E, err error) {
	start := time.Now()
	defer func() { s.observe("save", start, saved.GetID(), err) }()

	if err := s.check(entity); err != nil {
		var zero E
		return zero, err
	}
	return s.save(ctx, entity)
}

func (s *Service[E]) check(entity E) error {
	if n, ok := any(entity).(models.Normalizer); ok {
		n.Normalize(s.now())
	}
	return entity.Validate()
}

// save runs the dual write on an already checked entity.
func (s *Service[E]) save(ctx context.Context, entity E) (E, error) {
	var zero E
	saved, err := s.repo.Save(ctx, entity)
	if err != nil {
		return zero, err
	}
	if err := s.index.Save(ctx, saved); err != nil {
		indexWriteFailures.WithLabelValues(s.desc.Name, "save").Inc()
		s.log.Error().Err(err).Str("id", saved.GetID().String()).Msg("stored but not indexed")
		return saved, err
	}
	return saved, nil
}

// Delete removes the entity from the store, then from the index. Deleting a
// missing entity succeeds. A store failure leaves the index untouched.
func (s *Service[E]) Delete(ctx context.Context, id models.ID) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, id, err) }()

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	if err := s.index.DeleteByID(ctx, id); err != nil {
		indexWriteFailures.WithLabelValues(s.desc.Name, "delete").Inc()
		return err
	}
	return nil
}

// FindAll streams entities from the store, or one page of them.
func (s *Service[E]) FindAll(ctx context.Context, page *store.Page) iter.Seq2[E, error] {
	if page != nil {
		if err := page.Check(s.desc.Meta); err != nil {
			return s.observed("find_all", store.Failed[E](err))
		}
	}
	return s.observed("find_all", s.repo.FindAll(ctx, page))
}

// FindOne reads one entity from the store. A missing entity is reported with
// found false and no error.
func (s *Service[E]) FindOne(ctx context.Context, id models.ID) (entity E, found bool, err error) {
	start := time.Now()
	defer func() { s.observe("find_one", start, id, err) }()
	return s.repo.FindByID(ctx, id)
}

// Search queries the index only.
func (s *Service[E]) Search(ctx context.Context, query string, page *store.Page) iter.Seq2[E, error] {
	if page != nil {
		if err := page.Check(s.desc.Meta); err != nil {
			return s.observed("search", store.Failed[E](err))
		}
	}
	return s.observed("search", s.index.Search(ctx, query, page))
}

// observed records op once the caller stops iterating seq, with the first
// error seq produced.
func (s *Service[E]) observed(op string, seq iter.Seq2[E, error]) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		start := time.Now()
		var first error
		defer func() { s.observe(op, start, "", first) }()
		for e, err := range seq {
			if err != nil && first == nil {
				first = err
			}
			if !yield(e, err) {
				return
			}
		}
	}
}

// SearchMatches counts the index documents matching query.
func (s *Service[E]) SearchMatches(ctx context.Context, query string) (n int64, err error) {
	start := time.Now()
	defer func() { s.observe("search_matches", start, "", err) }()
	return s.index.CountMatches(ctx, query)
}

// CountAll counts store records.
func (s *Service[E]) CountAll(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { s.observe("count_all", start, "", err) }()
	return s.repo.Count(ctx)
}

// SearchCount counts index documents.
func (s *Service[E]) SearchCount(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { s.observe("search_count", start, "", err) }()
	return s.index.Count(ctx)
}
