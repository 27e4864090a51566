package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const fileName = "pokechu.db"

// Per-connection pragmas ride on the DSN so every pooled connection gets them.
const dsnPragmas = "?_pragma=busy_timeout%3d1000&_pragma=foreign_keys%3don"

// DB wraps the sqlite handle shared by the key-value and response repositories.
type DB struct {
	handler  *sql.DB
	log      zerolog.Logger
	lock     sync.RWMutex
	squirrel sq.StatementBuilderType
}

// NewDB opens the database inside dir, creating both when missing, and
// brings its schema up to date.
func NewDB(dir string, log zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create data dir %s", dir)
	}

	handler, err := sql.Open("sqlite", filepath.Join(dir, fileName)+dsnPragmas)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}

	db := &DB{
		handler:  handler,
		log:      log.With().Str("module", "database").Logger(),
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}

	ctx := context.Background()
	if _, err := handler.ExecContext(ctx, "PRAGMA journal_mode = wal"); err != nil {
		handler.Close()
		return nil, errors.Wrap(err, "unable to enable WAL mode")
	}

	if err := db.migrate(ctx); err != nil {
		handler.Close()
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	db.log.Debug().Str("path", filepath.Join(dir, fileName)).Msg("database ready")
	return db, nil
}

// Migrate brings the schema up to date using PRAGMA user_version.
func (db *DB) Migrate() error {
	return db.migrate(context.Background())
}

func (db *DB) migrate(ctx context.Context) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	current, err := db.version(ctx)
	if err != nil {
		return err
	}

	target := len(migrations)
	switch {
	case current == target:
		return nil
	case current > target:
		return errors.Errorf("database schema version (%d) is newer than supported (%d)", current, target)
	}

	db.log.Info().Int("from", current).Int("to", target).Msg("upgrading database schema")

	tx, err := db.handler.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	steps := migrations[current:]
	if current == 0 {
		steps = append([]string{schema}, migrations[1:]...)
	}
	for i, stmt := range steps {
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to apply schema step %d", current+i+1)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return errors.Wrap(err, "failed to bump schema version")
	}

	return tx.Commit()
}

func (db *DB) version(ctx context.Context) (int, error) {
	var v int
	if err := db.handler.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, errors.Wrap(err, "failed to query schema version")
	}
	return v, nil
}

// Ping verifies the database answers queries at the current schema version.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.handler.PingContext(ctx); err != nil {
		return errors.Wrap(err, "database unreachable")
	}
	v, err := db.version(ctx)
	if err != nil {
		return err
	}
	if v != len(migrations) {
		return errors.Errorf("database schema version %d, want %d", v, len(migrations))
	}
	return nil
}

// Close runs the query planner optimization and closes the handle.
func (db *DB) Close() error {
	if _, err := db.handler.Exec(`PRAGMA optimize`); err != nil {
		db.log.Debug().Err(err).Msg("query planner optimization")
	}
	return db.handler.Close()
}

// BeginTx starts a transaction on the shared handle.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.handler.BeginTx(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return tx, nil
}
