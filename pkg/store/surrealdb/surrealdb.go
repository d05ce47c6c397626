// Package surrealdb is the default store backend. Every entity kind lives in
// its own SurrealDB table, keyed by the same time ordered identifiers the
// other backends generate.
package surrealdb

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/store"
)

const (
	TransportGorilla = "gorillaws"
	TransportGWS     = "gws"
)

// Config holds the connection settings of Open.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	// Transport selects the WebSocket implementation, TransportGorilla or
	// TransportGWS.
	Transport string
}

// DB is a signed in SurrealDB connection scoped to one namespace and database.
type DB struct {
	db  *surrealdb.DB
	log zerolog.Logger
}

// Open connects, signs in and selects the namespace and database.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*DB, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	var conn connection.Connection
	switch cfg.Transport {
	case "", TransportGorilla:
		conn = gorillaws.New(conf)
	case TransportGWS:
		conn = gws.New(conf)
	default:
		return nil, fmt.Errorf("unknown surrealdb transport %q", cfg.Transport)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, store.StoreError("connect", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, store.StoreError("use", err)
	}

	log.Info().Str("url", u.Redacted()).Str("ns", cfg.Namespace).Str("db", cfg.Database).
		Str("transport", cfg.Transport).Msg("connected to SurrealDB")
	return &DB{db: db, log: log}, nil
}

// FromDB wraps an already connected client.
func FromDB(db *surrealdb.DB, log zerolog.Logger) *DB {
	return &DB{db: db, log: log}
}

// Migrate defines one schemaless table per entity kind.
func (d *DB) Migrate(ctx context.Context) error {
	for _, k := range models.Kinds() {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", k.Collection)
		if _, err := query[any](ctx, d.db, "migrate "+k.Collection, sql, nil); err != nil {
			return err
		}
		d.log.Debug().Str("table", k.Collection).Msg("table defined")
	}
	return nil
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.db.Close(context.Background())
}

// query runs a single statement and returns its result.
func query[T any](ctx context.Context, db *surrealdb.DB, op, sql string, vars map[string]any) (T, error) {
	var zero T
	res, err := surrealdb.Query[T](ctx, db, sql, vars)
	if err != nil {
		return zero, store.StoreError(op, err)
	}
	if res == nil || len(*res) == 0 {
		return zero, nil
	}
	return (*res)[0].Result, nil
}
