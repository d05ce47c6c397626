package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

var (
	operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "company",
		Subsystem: "service",
		Name:      "operations_total",
		Help:      "Service operations by entity kind, operation and outcome.",
	}, []string{"kind", "op", "outcome"})

	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "company",
		Subsystem: "service",
		Name:      "operation_duration_seconds",
		Help:      "Latency of service operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind", "op"})

	indexWriteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "company",
		Subsystem: "service",
		Name:      "index_write_failures_total",
		Help:      "Writes kept in the store whose index step failed.",
	}, []string{"kind", "op"})

	documents = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "company",
		Subsystem: "sync",
		Name:      "documents",
		Help:      "Documents per kind in the store and in the search index.",
	}, []string{"kind", "backend"})

	reindexedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "company",
		Subsystem: "reindex",
		Name:      "documents_total",
		Help:      "Documents replayed into the index by outcome.",
	}, []string{"kind", "outcome"})

	cleanupDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "company",
		Subsystem: "cleanup",
		Name:      "users_deleted_total",
		Help:      "Non activated users removed by the cleanup job.",
	})

	cleanupFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "company",
		Subsystem: "cleanup",
		Name:      "failures_total",
		Help:      "Cleanup deletions or scans that failed.",
	})
)

// Collectors returns every metric of the package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		operationsTotal,
		operationDuration,
		indexWriteFailures,
		documents,
		reindexedTotal,
		cleanupDeletedTotal,
		cleanupFailuresTotal,
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if _, ok := models.AsValidationError(err); ok {
		return "invalid"
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrReadOnly):
		return "read_only"
	case errors.Is(err, store.ErrStoreUnavailable):
		return "store_error"
	case errors.Is(err, store.ErrIndexUnavailable):
		return "index_error"
	}
	return "error"
}
