package store

import (
	"fmt"
	"strings"
)

// New opens a store based on the DSN.
// - Empty DSN: SQLite at data/mfginsight.db
// - postgres:// or postgresql://: PostgreSQL
// - Anything else: SQLite at the specified path
func New(dsn string, opts Options) (*DB, error) {
	if IsPostgresDSN(dsn) {
		s, err := NewPostgres(dsn, opts)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	}

	return NewSQLite(dsn, opts)
}

func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
