package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/storage/migrations"
	"github.com/dmitrijs2005/nutrikeeper/internal/cryptox"
	"github.com/dmitrijs2005/nutrikeeper/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Backends bundles the three key/value stores that share one database.
type Backends struct {
	db *sql.DB

	// Local is the web local-storage equivalent.
	Local *SQLiteRepository
	// Async is general client storage.
	Async *SQLiteRepository
	// Secure is the encrypted secure store used on native platforms.
	Secure *SecureStore
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the database at dsn, applies migrations and
// returns the backends bound to it.
func Open(ctx context.Context, dsn string, deviceSecret []byte) (*Backends, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return NewBackends(db, deviceSecret), nil
}

// NewBackends binds the stores to an already migrated database.
func NewBackends(db *sql.DB, deviceSecret []byte) *Backends {
	return &Backends{
		db:     db,
		Local:  NewSQLiteRepository(db, TableLocalStorage),
		Async:  NewSQLiteRepository(db, TableAsyncStorage),
		Secure: NewSecureStore(db, deviceSecret),
	}
}

func (b *Backends) DB() *sql.DB { return b.db }

func (b *Backends) Close() error {
	return b.db.Close()
}

// LoadDeviceSecret reads the per-install secret from path, generating a
// random one on first use.
func LoadDeviceSecret(path string) ([]byte, error) {
	return filex.ReadOrCreate(path, func() ([]byte, error) {
		return cryptox.RandomBytes(cryptox.KeySize)
	})
}
