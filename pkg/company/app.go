// Package company is the HR demo application: ten entity kinds exposed over
// REST, each kept in a document store and mirrored into a search index.
package company

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/search"
	"github.com/hrdemo/company/pkg/search/memindex"
	"github.com/hrdemo/company/pkg/search/sqlindex"
	"github.com/hrdemo/company/pkg/service"
	"github.com/hrdemo/company/pkg/store"
	"github.com/hrdemo/company/pkg/store/memory"
	"github.com/hrdemo/company/pkg/store/pebble"
	"github.com/hrdemo/company/pkg/store/surrealdb"
)

// kind is the type independent face of one entity resource.
type kind interface {
	Meta() models.Meta
	Status(ctx context.Context) service.SyncStatus
	Reindex(ctx context.Context) (service.ReindexResult, error)
	routes(api *mux.Router)
}

// App owns the store and index backends and one resource per entity kind.
// It is shared by the HTTP server, the cleanup job and the CLI commands.
type App struct {
	config Config
	log    zerolog.Logger
	now    func() time.Time

	store store.Backend
	index search.Backend

	kinds []kind
	users *service.Service[*models.User]

	readOnly   atomic.Bool
	reindexing sync.Mutex
}

// New opens the configured backends and builds a resource per entity kind.
func New(ctx context.Context, config Config, log zerolog.Logger) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	st, err := openStore(ctx, config, log)
	if err != nil {
		return nil, err
	}
	ix, err := openIndex(config, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	app := &App{
		config: config,
		log:    log,
		now:    time.Now,
		store:  st,
		index:  ix,
	}
	app.readOnly.Store(config.ReadOnly)
	if err := app.register(); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func openStore(ctx context.Context, config Config, log zerolog.Logger) (store.Backend, error) {
	switch config.Store {
	case StoreMemory:
		return memory.New(), nil
	case StorePebble:
		db, err := pebble.Open(config.PebblePath, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open pebble store: %w", err)
		}
		log.Info().Str("path", config.PebblePath).Msg("pebble store opened")
		return db, nil
	case StoreSurrealDB:
		db, err := surrealdb.Open(ctx, surrealdb.Config{
			URL:       config.SurrealDB.URL,
			Namespace: config.SurrealDB.Namespace,
			Database:  config.SurrealDB.Database,
			Username:  config.SurrealDB.Username,
			Password:  config.SurrealDB.Password,
			Transport: config.SurrealDB.Transport,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown store %q", config.Store)
}

func openIndex(config Config, log zerolog.Logger) (search.Backend, error) {
	if config.Index == IndexMemory {
		return memindex.New(), nil
	}
	return sqlindex.Open(config.Index, config.IndexDSN, log)
}

func (a *App) register() error {
	var errs []error
	add := func(err error) { errs = append(errs, err) }

	add(addKind(a, models.AccommodationKind))
	add(addKind(a, models.CountryKind))
	add(addKind(a, models.DepartmentKind))
	add(addKind(a, models.EmployeeKind))
	add(addKind(a, models.JobKind))
	add(addKind(a, models.JobHistoryKind))
	add(addKind(a, models.LocationKind))
	add(addKind(a, models.RegionKind))
	add(addKind(a, models.TaskKind))
	add(addKind(a, models.UserKind))
	return errors.Join(errs...)
}

func addKind[E models.Entity](a *App, desc models.Descriptor[E]) error {
	repo, err := repository(a.store, desc)
	if err != nil {
		return err
	}
	svc := service.New(desc,
		store.NewReadOnly(repo, a.IsReadOnly),
		search.NewIndex(a.index, desc),
		a.log,
		service.WithClock(func() time.Time { return a.now() }),
	)
	if users, ok := any(svc).(*service.Service[*models.User]); ok {
		a.users = users
	}
	a.kinds = append(a.kinds, &Resource[E]{Service: svc, log: a.log})
	return nil
}

func repository[E models.Entity](backend store.Backend, desc models.Descriptor[E]) (store.Repository[E], error) {
	switch db := backend.(type) {
	case *memory.DB:
		return memory.NewRepository(db, desc), nil
	case *pebble.DB:
		return pebble.NewRepository(db, desc), nil
	case *surrealdb.DB:
		return surrealdb.NewRepository(db, desc), nil
	}
	return nil, fmt.Errorf("no %s repository for store %T", desc.Name, backend)
}

func (a *App) kindByPath(path string) (kind, bool) {
	meta, ok := models.KindByPath(path)
	if !ok {
		return nil, false
	}
	for _, k := range a.kinds {
		if k.Meta().Name == meta.Name {
			return k, true
		}
	}
	return nil, false
}

// Migrate prepares the store and the index.
func (a *App) Migrate(ctx context.Context) error {
	a.log.Info().Msg("running migrations")
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}
	if err := a.index.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate search index: %w", err)
	}
	a.log.Info().Msg("migrations completed")
	return nil
}

// Status reports store and index counts of every kind.
func (a *App) Status(ctx context.Context) []service.SyncStatus {
	out := make([]service.SyncStatus, 0, len(a.kinds))
	for _, k := range a.kinds {
		out = append(out, k.Status(ctx))
	}
	return out
}

// Reindex rebuilds the index of the kinds named by path, or of every kind
// when none is named. Only one rebuild runs at a time.
func (a *App) Reindex(ctx context.Context, paths ...string) ([]service.ReindexResult, error) {
	targets, err := a.targets(paths)
	if err != nil {
		return nil, err
	}
	a.reindexing.Lock()
	defer a.reindexing.Unlock()
	return reindex(ctx, targets)
}

func (a *App) targets(paths []string) ([]kind, error) {
	if len(paths) == 0 {
		return a.kinds, nil
	}
	var out []kind
	for _, p := range paths {
		k, ok := a.kindByPath(p)
		if !ok {
			return nil, fmt.Errorf("unknown entity %q: %w", p, store.ErrNotFound)
		}
		out = append(out, k)
	}
	return out, nil
}

func reindex(ctx context.Context, kinds []kind) ([]service.ReindexResult, error) {
	var results []service.ReindexResult
	for _, k := range kinds {
		res, err := k.Reindex(ctx)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Cleanup removes stale user registrations once.
func (a *App) Cleanup(ctx context.Context) int {
	return service.RemoveNotActivatedUsers(ctx, a.users)
}

// Close closes the index, then the store.
func (a *App) Close() error {
	var errs []error
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// SetReadOnly toggles rejection of store writes at runtime.
func (a *App) SetReadOnly(readOnly bool) {
	if a.readOnly.Swap(readOnly) != readOnly {
		a.log.Info().Bool("readOnly", readOnly).Msg("read-only mode changed")
	}
}

// IsReadOnly reports whether store writes are currently rejected.
func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}
