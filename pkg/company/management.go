package company

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrdemo/company/pkg/service"
)

// errBusy rejects a rebuild while another one runs.
var errBusy = errors.New("a reindex is already running")

// Health is the body of the health endpoints.
type Health struct {
	Status   string `json:"status"`
	ReadOnly bool   `json:"readOnly"`
	Store    string `json:"store"`
	Index    string `json:"index"`
	Time     int64  `json:"time"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, a.log, http.StatusOK, Health{
		Status:   "UP",
		ReadOnly: a.IsReadOnly(),
		Store:    a.config.Store,
		Index:    a.config.Index,
		Time:     a.now().Unix(),
	})
}

func (a *App) handleSync(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, a.log, http.StatusOK, a.Status(r.Context()))
}

// handleReindex rebuilds one kind, or all of them without a path, with store
// writes rejected for the duration.
func (a *App) handleReindex(w http.ResponseWriter, r *http.Request) {
	var paths []string
	if p := mux.Vars(r)["path"]; p != "" {
		paths = append(paths, p)
	}
	targets, err := a.targets(paths)
	if err != nil {
		respondError(w, a.log, "", err)
		return
	}

	if !a.reindexing.TryLock() {
		w.Header().Set(HeaderError, "error."+KeyBusy)
		respondJSON(w, a.log, http.StatusConflict, ErrorBody{
			Error:    errBusy.Error(),
			ErrorKey: KeyBusy,
			Status:   http.StatusConflict,
		})
		return
	}
	defer a.reindexing.Unlock()

	wasReadOnly := a.IsReadOnly()
	a.SetReadOnly(true)
	defer a.SetReadOnly(wasReadOnly)

	start := time.Now()
	results, err := reindex(r.Context(), targets)
	if err != nil {
		respondError(w, a.log, "", err)
		return
	}
	a.log.Info().Strs("kinds", paths).Dur("took", time.Since(start)).Msg("reindex finished")
	respondJSON(w, a.log, http.StatusOK, results)
}

// registry collects the service metrics and the Go runtime ones.
func registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(service.Collectors()...)
	reg.MustRegister(httpRequests, httpDuration)
	return reg
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
