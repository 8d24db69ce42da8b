package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight/core"
)

const (
	selectEvents = `SELECT id, event_type, machine_name, notes, timestamp, city, duration_minutes, embedding
		FROM manufacturing_events ORDER BY id ASC`
	selectEvent = `SELECT id, event_type, machine_name, notes, timestamp, city, duration_minutes, embedding
		FROM manufacturing_events WHERE id = ?`
	selectEmbeddings = `SELECT id, event_type, embedding
		FROM manufacturing_events WHERE embedding IS NOT NULL ORDER BY id ASC`
)

// Options tunes the connection pool and per-query timeout.
type Options struct {
	QueryTimeout    time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Logger          *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		QueryTimeout:    15 * time.Second,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = d.QueryTimeout
	}
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = d.MaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = d.MaxIdleConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = d.ConnMaxLifetime
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// DB implements Store over a sqlx pool. The pool is the only shared handle;
// each call checks out its own connection.
type DB struct {
	db           *sqlx.DB
	dialect      Dialect
	queryTimeout time.Duration
	readOnlyTx   bool
	log          *zap.Logger
}

func newDB(db *sqlx.DB, dialect Dialect, readOnlyTx bool, opts Options) *DB {
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	return &DB{
		db:           db,
		dialect:      dialect,
		queryTimeout: opts.QueryTimeout,
		readOnlyTx:   readOnlyTx,
		log:          opts.Logger.Named("store"),
	}
}

func (s *DB) Dialect() Dialect {
	return s.dialect
}

func (s *DB) Close() error {
	return s.db.Close()
}

// ExecuteRead runs query on a freshly acquired connection. Named parameters
// (":name") are bound from params; an empty params map sends the query as is.
func (s *DB) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	query, args, err := s.bind(query, params)
	if err != nil {
		return nil, err
	}

	var out []Row
	err = s.withQueryer(ctx, func(ctx context.Context, q sqlx.QueryerContext) error {
		rows, err := q.QueryxContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()

		out, err = scanRows(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DB) ListEvents(ctx context.Context) ([]core.Event, error) {
	var rows []eventRow
	err := s.withQueryer(ctx, func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.SelectContext(ctx, q, &rows, selectEvents)
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]core.Event, 0, len(rows))
	for _, r := range rows {
		ev, err := r.toEvent()
		if err != nil {
			s.log.Warn("skipping malformed embedding", zap.Int64("event_id", r.ID), zap.Error(err))
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *DB) GetEvent(ctx context.Context, id int64) (*core.Event, error) {
	var row eventRow
	err := s.withQueryer(ctx, func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.GetContext(ctx, q, &row, s.db.Rebind(selectEvent), id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}

	ev, err := row.toEvent()
	if err != nil {
		s.log.Warn("skipping malformed embedding", zap.Int64("event_id", id), zap.Error(err))
	}
	return &ev, nil
}

// EmbeddingRecords returns the raw embedding text of every embedded event.
// Parsing is left to the caller.
func (s *DB) EmbeddingRecords(ctx context.Context) ([]core.EmbeddingRecord, error) {
	var rows []struct {
		ID        int64          `db:"id"`
		EventType sql.NullString `db:"event_type"`
		Embedding sql.NullString `db:"embedding"`
	}
	err := s.withQueryer(ctx, func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.SelectContext(ctx, q, &rows, selectEmbeddings)
	})
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}

	records := make([]core.EmbeddingRecord, len(rows))
	for i, r := range rows {
		records[i] = core.EmbeddingRecord{ID: r.ID, EventType: r.EventType.String, Raw: r.Embedding.String}
	}
	return records, nil
}

func (s *DB) bind(query string, params map[string]any) (string, []any, error) {
	if len(params) == 0 {
		return query, nil, nil
	}
	q, args, err := sqlx.Named(query, params)
	if err != nil {
		return "", nil, fmt.Errorf("bind params: %w", err)
	}
	return s.db.Rebind(q), args, nil
}

// withQueryer checks out one connection for the duration of fn, inside a
// read-only transaction where the dialect supports it.
func (s *DB) withQueryer(ctx context.Context, fn func(context.Context, sqlx.QueryerContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if !s.readOnlyTx {
		return fn(ctx, conn)
	}

	tx, err := conn.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read-only tx: %w", err)
	}
	defer tx.Rollback()

	return fn(ctx, tx)
}
