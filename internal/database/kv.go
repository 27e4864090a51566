package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
)

// KVRepo implements domain.KVRepository
type KVRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewKVRepo creates a new key-value repository
func NewKVRepo(log zerolog.Logger, db *DB) domain.KVRepository {
	return &KVRepo{
		log: log.With().Str("repo", "kv").Logger(),
		db:  db,
	}
}

// Get returns the raw value stored under key.
func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	queryBuilder := r.db.squirrel.
		Select("value").
		From("kv").
		Where(sq.Eq{"key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return "", false, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Get")

	var value string
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "error executing query")
	}

	return value, true, nil
}

// Set inserts or replaces the value stored under key.
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	queryBuilder := r.db.squirrel.
		Replace("kv").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC().Format(time.RFC3339Nano))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Str("key", key).Msg("Set")

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// Delete removes every given key.
func (r *KVRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	queryBuilder := r.db.squirrel.
		Delete("kv").
		Where(sq.Eq{"key": keys})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building delete query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Delete")

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing delete query")
	}

	return nil
}
