package store

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// NewPostgres opens a pgx-backed pool. Queries run inside read-only
// transactions; the role behind dsn should itself be read-only.
func NewPostgres(dsn string, opts Options) (*DB, error) {
	opts = opts.withDefaults()

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := newDB(db, Postgres, true, opts)
	s.log.Info("opened postgres store")
	return s, nil
}
