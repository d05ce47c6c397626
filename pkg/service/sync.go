package service

import (
	"context"
	"errors"
	"fmt"
)

// SyncStatus compares the store and the index of one kind. A difference
// between the counts is sync lag.
type SyncStatus struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Store int64  `json:"store"`
	Index int64  `json:"index"`
	Error string `json:"error,omitempty"`
}

// InSync reports whether store and index hold the same number of entities.
func (s SyncStatus) InSync() bool {
	return s.Error == "" && s.Store == s.Index
}

// Status reads both counts and publishes them as gauges. A failing side is
// reported in Error rather than aborting the other.
func (s *Service[E]) Status(ctx context.Context) SyncStatus {
	st := SyncStatus{Kind: s.desc.Name, Path: s.desc.Path}
	var errs []error
	n, err := s.CountAll(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		st.Store = n
		documents.WithLabelValues(s.desc.Name, "store").Set(float64(n))
	}
	if n, err = s.SearchCount(ctx); err != nil {
		errs = append(errs, err)
	} else {
		st.Index = n
		documents.WithLabelValues(s.desc.Name, "index").Set(float64(n))
	}
	if err := errors.Join(errs...); err != nil {
		st.Error = err.Error()
	}
	return st
}

// ReindexResult summarises one rebuild of an index.
type ReindexResult struct {
	Kind    string `json:"kind"`
	Indexed int    `json:"indexed"`
	Failed  int    `json:"failed"`
}

// Reindex rebuilds the index of the kind from the store. Records that fail to
// index are logged and skipped; a store failure ends the run.
func (s *Service[E]) Reindex(ctx context.Context) (ReindexResult, error) {
	res := ReindexResult{Kind: s.desc.Name}
	log := s.log.With().Str("op", "reindex").Logger()

	if err := s.index.Clear(ctx); err != nil {
		return res, err
	}
	for entity, err := range s.repo.FindAll(ctx, nil) {
		if err != nil {
			return res, fmt.Errorf("reindex %s: %w", s.desc.Name, err)
		}
		if err := s.index.Save(ctx, entity); err != nil {
			res.Failed++
			reindexedTotal.WithLabelValues(s.desc.Name, "failed").Inc()
			log.Warn().Err(err).Str("id", entity.GetID().String()).Msg("failed to index record")
			continue
		}
		res.Indexed++
		reindexedTotal.WithLabelValues(s.desc.Name, "ok").Inc()
	}
	log.Info().Int("indexed", res.Indexed).Int("failed", res.Failed).Msg("reindex finished")
	return res, nil
}
