// Package sqlgen turns a natural-language question into a single read-only
// query against the manufacturing_events table.
package sqlgen

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/llm"
)

const SystemPrompt = "You are a helpful assistant for a manufacturing events database. " +
	"Given a user's question, generate a valid SQL SELECT query for a PostgreSQL database. " +
	"The table is 'manufacturing_events' with columns: id, event_type, duration_minutes, timestamp, notes, embedding, city, machine_name. " +
	"Only return the SQL query, nothing else."

var eventTypeEquality = regexp.MustCompile(`\bevent_type\s*=\s*'([A-Za-z]+)'`)

type Synthesizer struct {
	completer llm.Completer
	log       *zap.Logger
}

func NewSynthesizer(completer llm.Completer, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{completer: completer, log: log.Named("sqlgen")}
}

// Prompt joins the schema instruction and the question.
func Prompt(question string) string {
	return SystemPrompt + "\n\n" + question
}

// SynthesizeQuery asks the model for SQL, strips code fences, rewrites
// event_type equality to ILIKE and rejects anything that is not a SELECT.
func (s *Synthesizer) SynthesizeQuery(ctx context.Context, question string) (string, error) {
	raw, err := s.completer.Complete(ctx, Prompt(question))
	if err != nil {
		return "", core.NewError(core.KindGeneration, "sqlgen.complete", err)
	}

	sql := PatchILike(StripFences(raw))
	s.log.Debug("synthesized query", zap.String("sql", sql))

	if err := Validate(sql); err != nil {
		return "", err
	}
	return sql, nil
}

// StripFences removes a leading ```sql (or bare ```) fence and a trailing
// ``` fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```sql"):
		s = s[len("```sql"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// PatchILike rewrites event_type = 'Literal' to event_type ILIKE 'Literal'.
// Only purely alphabetic literals on the event_type column are touched.
func PatchILike(sql string) string {
	return eventTypeEquality.ReplaceAllString(sql, "event_type ILIKE '$1'")
}

// Validate accepts text whose trimmed, lower-cased form begins with
// "select". The store role must still be read-only.
func Validate(sql string) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(sql)), "select") {
		return core.NewError(core.KindValidation, "sqlgen.validate", core.ErrNotSelect)
	}
	return nil
}
