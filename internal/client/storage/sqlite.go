package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/migrations"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// SQLiteKV keeps values in the metadata table.
type SQLiteKV struct {
	db *sql.DB
}

var _ KV = (*SQLiteKV)(nil)

func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// OpenSQLite opens (or creates) the database at dsn and migrates it.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if isMemoryDSN(dsn) {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return NewSQLiteKV(db), nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func (k *SQLiteKV) Load(ctx context.Context) (map[string][]byte, error) {
	return metadata.NewSQLiteRepository(k.db).List(ctx)
}

func (k *SQLiteKV) SetMany(ctx context.Context, entries ...Entry) error {
	return dbx.WithTx(ctx, k.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, e := range entries {
			if err := repo.Set(ctx, e.Key, e.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (k *SQLiteKV) DeleteMany(ctx context.Context, keys ...string) error {
	return metadata.NewSQLiteRepository(k.db).Delete(ctx, keys...)
}

func (k *SQLiteKV) Close() error {
	return k.db.Close()
}
