package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hubenschmidt/go-mfginsight/core"
)

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func isDecimal(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "NUMERIC", "DECIMAL":
		return true
	}
	return false
}

// normalize converts driver values to portable forms: temporal values to
// ISO-8601 text, decimals to float64 and raw bytes to strings.
func normalize(v any, dbType string) any {
	switch x := v.(type) {
	case time.Time:
		return formatTime(x)
	case []byte:
		return normalize(string(x), dbType)
	case string:
		if isDecimal(dbType) {
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f
			}
		}
		return x
	case float32:
		return float64(x)
	default:
		return v
	}
}

func scanRows(rows *sqlx.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}

	out := make([]Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i := range vals {
			vals[i] = normalize(vals[i], types[i].DatabaseTypeName())
		}
		out = append(out, Row{Columns: cols, Values: vals})
	}
	return out, rows.Err()
}

// isoTime scans timestamps stored either natively or as text.
type isoTime string

func (t *isoTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = isoTime(formatTime(v))
	case string:
		*t = isoTime(v)
	case []byte:
		*t = isoTime(string(v))
	case nil:
		*t = ""
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

type eventRow struct {
	ID              int64           `db:"id"`
	EventType       string          `db:"event_type"`
	MachineName     sql.NullString  `db:"machine_name"`
	Notes           sql.NullString  `db:"notes"`
	Timestamp       isoTime         `db:"timestamp"`
	City            sql.NullString  `db:"city"`
	DurationMinutes sql.NullFloat64 `db:"duration_minutes"`
	Embedding       sql.NullString  `db:"embedding"`
}

// toEvent converts a scanned row. A malformed embedding leaves the event
// without a vector rather than failing the read.
func (r eventRow) toEvent() (core.Event, error) {
	ev := core.Event{
		ID:              r.ID,
		EventType:       r.EventType,
		MachineName:     r.MachineName.String,
		Timestamp:       string(r.Timestamp),
		City:            r.City.String,
		DurationMinutes: r.DurationMinutes.Float64,
	}
	if r.Notes.Valid {
		notes := r.Notes.String
		ev.Notes = &notes
	}
	if !r.Embedding.Valid || r.Embedding.String == "" {
		return ev, nil
	}
	vec, err := core.ParseEmbedding(r.Embedding.String)
	if err != nil {
		return ev, fmt.Errorf("event %d: %w", r.ID, err)
	}
	ev.Embedding = vec
	return ev, nil
}

// EventFromRow maps a normalized row carrying event columns to an Event.
// Columns may be prefixed, e.g. "e1_" for joined pairs.
func EventFromRow(r Row, prefix string) (core.Event, error) {
	get := func(col string) any {
		v, _ := r.Get(prefix + col)
		return v
	}

	id, ok := asInt64(get("id"))
	if !ok {
		return core.Event{}, fmt.Errorf("row has no %sid column", prefix)
	}

	ev := core.Event{
		ID:              id,
		EventType:       asString(get("event_type")),
		MachineName:     asString(get("machine_name")),
		Timestamp:       asString(get("timestamp")),
		City:            asString(get("city")),
		DurationMinutes: AsFloat64(get("duration_minutes")),
	}
	if n := get("notes"); n != nil {
		notes := asString(n)
		ev.Notes = &notes
	}
	if raw := asString(get("embedding")); raw != "" {
		vec, err := core.ParseEmbedding(raw)
		if err != nil {
			return ev, fmt.Errorf("event %d: %w", id, err)
		}
		ev.Embedding = vec
	}
	return ev, nil
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// AsFloat64 converts a normalized numeric value to float64, returning 0 for
// anything else.
func AsFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
