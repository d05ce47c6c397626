// Package sqlindex keeps the search index in SQL tables through GORM:
// PostgreSQL in production and SQLite for embedded runs and tests.
//
// Documents live in search_documents and every (field, token) pair of a
// document in search_terms. Parsed queries compile to EXISTS sub-queries over
// the terms table, so both dialects run the same statements.
package sqlindex

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/search"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const termBatchSize = 500

type document struct {
	Kind      string `gorm:"primaryKey;size:64"`
	ID        string `gorm:"primaryKey;size:128"`
	Body      string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (document) TableName() string { return "search_documents" }

type term struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	Kind  string `gorm:"size:64;not null;index:idx_search_terms_lookup,priority:1;index:idx_search_terms_doc,priority:1"`
	DocID string `gorm:"size:128;not null;index:idx_search_terms_doc,priority:2"`
	Field string `gorm:"size:255;not null;index:idx_search_terms_lookup,priority:2"`
	Token string `gorm:"type:text;not null"`
}

func (term) TableName() string { return "search_terms" }

// Index stores documents and their tokens in SQL tables through gorm. Queries
// compile to portable SQL so Postgres and SQLite behave the same.
type Index struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects with the named driver. For SQLite the DSN is a file path.
func Open(driver, dsn string, log zerolog.Logger) (*Index, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown index driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info().Str("driver", driver).Msg("search index connected")
	return &Index{db: db, log: log}, nil
}

func (x *Index) Migrate(ctx context.Context) error {
	return x.db.WithContext(ctx).AutoMigrate(&document{}, &term{})
}

func (x *Index) Close() error {
	sqlDB, err := x.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (x *Index) Put(ctx context.Context, kind string, doc search.Document) error {
	var terms []term
	for _, f := range doc.Fields {
		for _, tok := range f.Tokens {
			terms = append(terms, term{Kind: kind, DocID: string(doc.ID), Field: f.Name, Token: tok})
		}
	}

	return x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ? AND doc_id = ?", kind, string(doc.ID)).Delete(&term{}).Error; err != nil {
			return err
		}
		row := document{Kind: kind, ID: string(doc.ID), Body: string(doc.Body), UpdatedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return err
		}
		if len(terms) == 0 {
			return nil
		}
		return tx.CreateInBatches(terms, termBatchSize).Error
	})
}

func (x *Index) Delete(ctx context.Context, kind string, id models.ID) error {
	return x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ? AND doc_id = ?", kind, string(id)).Delete(&term{}).Error; err != nil {
			return err
		}
		return tx.Where("kind = ? AND id = ?", kind, string(id)).Delete(&document{}).Error
	})
}

func (x *Index) Clear(ctx context.Context, kind string) error {
	return x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ?", kind).Delete(&term{}).Error; err != nil {
			return err
		}
		return tx.Where("kind = ?", kind).Delete(&document{}).Error
	})
}

func (x *Index) Count(ctx context.Context, kind string) (int64, error) {
	var n int64
	err := x.db.WithContext(ctx).Model(&document{}).Where("kind = ?", kind).Count(&n).Error
	return n, err
}

type hitRow struct {
	ID    string
	Body  string
	Score int64
}

func (x *Index) Search(ctx context.Context, kind string, q search.Query, offset, limit int) ([]search.Hit, error) {
	stmt := searchStatement(kind, q, offset, limit)
	var rows []hitRow
	if err := x.db.WithContext(ctx).Raw(stmt.SQL, stmt.Vars...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if limit <= 0 {
		rows = rows[min(offset, len(rows)):]
	}
	hits := make([]search.Hit, len(rows))
	for i, r := range rows {
		hits[i] = search.Hit{ID: models.ID(r.ID), Body: []byte(r.Body), Score: r.Score}
	}
	x.log.Debug().Str("kind", kind).Str("query", q.String()).Int("hits", len(hits)).Msg("search")
	return hits, nil
}

func (x *Index) CountMatches(ctx context.Context, kind string, q search.Query) (int64, error) {
	stmt := countStatement(kind, q)
	var n int64
	err := x.db.WithContext(ctx).Raw(stmt.SQL, stmt.Vars...).Scan(&n).Error
	return n, err
}
