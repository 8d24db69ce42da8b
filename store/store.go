// Package store reads manufacturing events from a relational store. All
// access is read-only; every call acquires its own pooled connection and
// releases it before returning.
package store

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/hubenschmidt/go-mfginsight/core"
)

// ErrNotFound is returned when an event does not exist.
var ErrNotFound = core.ErrNotFound

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Row is one result row with its column order preserved.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r Row) Get(col string) (any, bool) {
	for i, c := range r.Columns {
		if c == col {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON encodes the row as an object whose keys follow column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Reader executes a read query with optional named (:name) parameters.
type Reader interface {
	ExecuteRead(ctx context.Context, query string, params map[string]any) ([]Row, error)
}

// EventReader provides typed event reads.
type EventReader interface {
	ListEvents(ctx context.Context) ([]core.Event, error)
	GetEvent(ctx context.Context, id int64) (*core.Event, error)
	EmbeddingRecords(ctx context.Context) ([]core.EmbeddingRecord, error)
}

// Store is the full accessor backed by one connection pool.
type Store interface {
	Reader
	EventReader
	Dialect() Dialect
	Close() error
}
