package company

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/hrdemo/company/pkg/schedule"
)

// Router builds the HTTP surface: one resource per entity kind under /api,
// health, metrics and management endpoints.
func (a *App) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(accessLog(a.log))

	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", metricsHandler(registry())).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/management/sync", a.handleSync).Methods(http.MethodGet)
	api.HandleFunc("/management/reindex", a.handleReindex).Methods(http.MethodPost)
	api.HandleFunc("/management/reindex/{path}", a.handleReindex).Methods(http.MethodPost)
	for _, k := range a.kinds {
		k.routes(api)
	}
	return router
}

// CleanupJob removes stale registrations on the configured schedule.
func (a *App) CleanupJob() schedule.Job {
	return schedule.Job{
		Name: "remove-not-activated-users",
		Expr: a.config.CleanupSchedule,
		Run: func(ctx context.Context) {
			a.Cleanup(ctx)
		},
	}
}

// Run serves HTTP until ctx is done, with the cleanup job on its own
// goroutine, then shuts down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	if a.config.AutoMigrate {
		if err := a.Migrate(ctx); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(a.config.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	jobCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	jobDone := make(chan struct{})
	go func() {
		defer close(jobDone)
		if a.config.CleanupSchedule == "" {
			return
		}
		if err := schedule.New(a.log).Run(jobCtx, a.CleanupJob()); err != nil {
			a.log.Error().Err(err).Msg("cleanup schedule stopped")
		}
	}()

	a.log.Info().Str("addr", server.Addr).Str("store", a.config.Store).Str("index", a.config.Index).
		Bool("readOnly", a.IsReadOnly()).Msg("starting server")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var err error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
	case err = <-serverErr:
		err = fmt.Errorf("server failed: %w", err)
	}
	stopJobs()
	<-jobDone
	return err
}
