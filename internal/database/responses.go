package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
)

// ResponseRepo implements domain.ResponseRepository
type ResponseRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewResponseRepo creates a new response store repository
func NewResponseRepo(log zerolog.Logger, db *DB) domain.ResponseRepository {
	return &ResponseRepo{
		log: log.With().Str("repo", "responses").Logger(),
		db:  db,
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *ResponseRepo) open(ctx context.Context, ex execer, store string) error {
	query, args, err := r.db.squirrel.
		Insert("stores").
		Options("OR IGNORE").
		Columns("name", "created_at").
		Values(store, time.Now().UTC().Format(time.RFC3339Nano)).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Open")

	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "error opening store %s", store)
	}
	return nil
}

// Open creates the named store if it does not exist yet.
func (r *ResponseRepo) Open(ctx context.Context, store string) error {
	return r.open(ctx, r.db.handler, store)
}

// Match returns the response stored for url, or nil when there is none.
func (r *ResponseRepo) Match(ctx context.Context, store, url string) (*domain.StoredResponse, error) {
	queryBuilder := r.db.squirrel.
		Select("status", "header", "body", "stored_at").
		From("responses").
		Where(sq.Eq{"store": store, "url": url})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Match")

	var (
		header   string
		storedAt string
		resp     = &domain.StoredResponse{URL: url}
	)
	err = r.db.handler.QueryRowContext(ctx, query, args...).Scan(&resp.Status, &header, &resp.Body, &storedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "error executing query")
	}

	resp.Header = http.Header{}
	if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
		r.log.Debug().Err(err).Str("url", url).Msg("discarding unreadable stored header")
		resp.Header = http.Header{}
	}
	if t, err := time.Parse(time.RFC3339Nano, storedAt); err == nil {
		resp.StoredAt = t
	}

	return resp, nil
}

// Put writes resp into store, replacing any previous entry for the same URL.
func (r *ResponseRepo) Put(ctx context.Context, store string, resp *domain.StoredResponse) error {
	header, err := json.Marshal(resp.Header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}

	storedAt := resp.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.open(ctx, tx, store); err != nil {
		return err
	}

	query, args, err := r.db.squirrel.
		Replace("responses").
		Columns("store", "url", "status", "header", "body", "stored_at").
		Values(store, resp.URL, resp.Status, string(header), resp.Body, storedAt.UTC().Format(time.RFC3339Nano)).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("store", store).Str("url", resp.URL).Int("bytes", len(resp.Body)).Msg("Put")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return tx.Commit()
}

// Stores lists every store name.
func (r *ResponseRepo) Stores(ctx context.Context) ([]string, error) {
	query, args, err := r.db.squirrel.
		Select("name").
		From("stores").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return names, nil
}

// DeleteStore drops a store and every response in it. It reports whether
// the store existed.
func (r *ResponseRepo) DeleteStore(ctx context.Context, store string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query, args, err := r.db.squirrel.Delete("responses").Where(sq.Eq{"store": store}).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "error building delete query")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, errors.Wrap(err, "error deleting responses")
	}

	query, args, err = r.db.squirrel.Delete("stores").Where(sq.Eq{"name": store}).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "error building delete query")
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "error deleting store")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "error reading affected rows")
	}

	r.log.Debug().Str("store", store).Bool("existed", n > 0).Msg("deleted store")

	return n > 0, tx.Commit()
}
