package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/enrich"
	"github.com/hubenschmidt/go-mfginsight/monitor"
	"github.com/hubenschmidt/go-mfginsight/render"
	"github.com/hubenschmidt/go-mfginsight/sqlgen"
	"github.com/hubenschmidt/go-mfginsight/store"
)

// scriptedCompleter answers SQL prompts with sql and everything else with
// answer, unless the matching error is set.
type scriptedCompleter struct {
	mu      sync.Mutex
	sql     string
	sqlErr  error
	answer  string
	sumErr  error
	prompts []string
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.HasPrefix(prompt, sqlgen.SystemPrompt) {
		return c.sql, c.sqlErr
	}
	return c.answer, c.sumErr
}

type fakeReader struct {
	gotQuery string
	rows     []store.Row
	err      error
}

func (r *fakeReader) ExecuteRead(_ context.Context, query string, _ map[string]any) ([]store.Row, error) {
	r.gotQuery = query
	return r.rows, r.err
}

type memoryFailures struct {
	msgs []string
}

func (m *memoryFailures) Record(msg string) {
	m.msgs = append(m.msgs, msg)
}

type panickyFailures struct{}

func (panickyFailures) Record(string) { panic("disk full") }

type staticSource struct {
	name string
	ref  *enrich.Reference
}

func (s staticSource) Name() string    { return s.name }
func (s staticSource) Heading() string { return s.name + " Heading" }
func (s staticSource) Describe(ref *enrich.Reference) string {
	if ref == nil {
		return "nothing from " + s.name
	}
	return s.name + ": " + ref.Title
}
func (s staticSource) Lookup(context.Context, string) (*enrich.Reference, bool) {
	return s.ref, s.ref != nil
}

func jamRows() []store.Row {
	return []store.Row{
		{Columns: []string{"id", "event_type"}, Values: []any{int64(1), "Jam"}},
		{Columns: []string{"id", "event_type"}, Values: []any{int64(7), "Jam"}},
	}
}

func events(n int) []core.Event {
	out := make([]core.Event, n)
	for i := range out {
		out[i] = core.Event{ID: int64(i + 1), EventType: "Jam", Embedding: []float64{0.1, 0.2}}
	}
	return out
}

type fixture struct {
	completer *scriptedCompleter
	reader    *fakeReader
	failures  *memoryFailures
	registry  *enrich.Registry
}

func newFixture() *fixture {
	reg := enrich.NewRegistry(nil, nil)
	reg.Register(staticSource{name: "Wiki", ref: &enrich.Reference{Title: "Jam (machine)"}})
	reg.Register(staticSource{name: "Search"})
	return &fixture{
		completer: &scriptedCompleter{
			sql:    "```sql\nSELECT id, event_type FROM manufacturing_events WHERE event_type = 'Jam'\n```",
			answer: "# Summary\n* two jams",
		},
		reader:   &fakeReader{rows: jamRows()},
		failures: &memoryFailures{},
		registry: reg,
	}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	return New(Deps{
		Synthesizer: sqlgen.NewSynthesizer(f.completer, nil),
		Reader:      f.reader,
		Completer:   f.completer,
		Enricher:    f.registry,
		Failures:    f.failures,
	}, append([]Option{WithMetrics(monitor.NewManager())}, opts...)...)
}

func assertInvariants(t *testing.T, res Result) {
	t.Helper()
	assert.Contains(t, []float64{ConfidenceLocal, ConfidenceModel}, res.Confidence)
	assert.Contains(t, []Source{SourceLocal, SourceSQL, SourceFallback}, res.Source)
	require.NotNil(t, res.RAGLatency)
	assert.GreaterOrEqual(t, *res.RAGLatency, 0.0)
	assert.Greater(t, res.Timestamp, 0.0)
}

func TestAnswerSQLTier(t *testing.T) {
	f := newFixture()
	res := f.orchestrator().Answer(context.Background(), events(3), "How many jams?")

	assertInvariants(t, res)
	assert.Equal(t, SourceSQL, res.Source)
	assert.Equal(t, ConfidenceModel, res.Confidence)
	require.NotNil(t, res.RAGRecall)
	assert.Equal(t, 2, *res.RAGRecall)
	assert.Equal(t, jamRows(), res.Data)
	assert.Equal(t, "SELECT id, event_type FROM manufacturing_events WHERE event_type ILIKE 'Jam'", f.reader.gotQuery)
	assert.Contains(t, res.Summary, "Summary Report:")
	assert.Contains(t, res.Summary, "• two jams")
	assert.Contains(t, res.Summary, "RAG METRICS")
	assert.Empty(t, f.failures.msgs)

	require.Len(t, f.completer.prompts, 2)
	summaryPrompt := f.completer.prompts[1]
	assert.True(t, strings.HasPrefix(summaryPrompt, "User question: How many jams?\n\nDatabase Results:\n[{\"id\":1,"))
	assert.Contains(t, summaryPrompt, "8. **Future Trends**")
}

func TestAnswerLocalMode(t *testing.T) {
	f := newFixture()
	res := f.orchestrator(WithLocalMode(true)).Answer(context.Background(), nil, "anything")

	assertInvariants(t, res)
	assert.Equal(t, "Found 0 events. Most common: ... (local mode fallback)", res.Summary)
	assert.Equal(t, SourceLocal, res.Source)
	assert.Equal(t, ConfidenceLocal, res.Confidence)
	assert.Nil(t, res.RAGRecall)
	assert.Empty(t, f.completer.prompts)
	assert.Empty(t, f.failures.msgs)
}

func TestAnswerNonSelectNeverUsesSQLSource(t *testing.T) {
	f := newFixture()
	f.completer.sql = "DELETE FROM manufacturing_events"

	res := f.orchestrator().Answer(context.Background(), events(4), "Remove jams")

	assertInvariants(t, res)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Empty(t, f.reader.gotQuery)
	require.NotNil(t, res.RAGRecall)
	assert.Equal(t, 4, *res.RAGRecall)
	assert.Equal(t, "• Summary\n• two jams", res.Summary)

	require.Len(t, f.failures.msgs, 1)
	assert.Contains(t, f.failures.msgs[0], core.ErrNotSelect.Error())

	fallbackPrompt := f.completer.prompts[len(f.completer.prompts)-1]
	assert.Contains(t, fallbackPrompt, "Question: Remove jams")
	assert.Contains(t, fallbackPrompt, "Wiki Heading: Wiki: Jam (machine)\n")
	assert.Contains(t, fallbackPrompt, "Search Heading: nothing from Search\n")
	assert.Contains(t, fallbackPrompt, "10. **Implementation Roadmap**")
	assert.NotContains(t, fallbackPrompt, "embedding")
}

func TestAnswerExecutionFailureFallsBack(t *testing.T) {
	f := newFixture()
	f.reader.err = errors.New("relation does not exist")

	res := f.orchestrator().Answer(context.Background(), events(2), "q")

	assert.Equal(t, SourceFallback, res.Source)
	require.Len(t, f.failures.msgs, 1)
	assert.Contains(t, f.failures.msgs[0], "relation does not exist")
}

func TestAnswerAllModelCallsFail(t *testing.T) {
	f := newFixture()
	f.completer.sqlErr = errors.New("API error (status 503)")
	f.completer.sumErr = errors.New("API error (status 503)")

	res := f.orchestrator().Answer(context.Background(), events(5), "q")

	assertInvariants(t, res)
	assert.Equal(t, SourceLocal, res.Source)
	assert.Equal(t, "Found 5 events. Most common: ... (local mode fallback)", res.Summary)
	assert.Len(t, f.failures.msgs, 2)
}

func TestAnswerWithoutDependencies(t *testing.T) {
	failures := &memoryFailures{}
	res := New(Deps{Failures: failures}).Answer(context.Background(), events(1), "q")

	assert.Equal(t, SourceLocal, res.Source)
	require.Len(t, failures.msgs, 2)
	assert.Contains(t, failures.msgs[0], ErrNoSynthesizer.Error())
	assert.Contains(t, failures.msgs[1], ErrNoCompleter.Error())
}

func TestAnswerCancelledCaller(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.orchestrator().Answer(ctx, events(2), "q")
	assert.Equal(t, SourceLocal, res.Source)
	assert.Len(t, f.failures.msgs, 2)
}

func TestAnswerSurvivesPanickingFailureLog(t *testing.T) {
	f := newFixture()
	f.completer.sqlErr = errors.New("boom")

	o := New(Deps{
		Synthesizer: sqlgen.NewSynthesizer(f.completer, nil),
		Reader:      f.reader,
		Completer:   f.completer,
		Failures:    panickyFailures{},
	})
	var res Result
	require.NotPanics(t, func() { res = o.Answer(context.Background(), nil, "q") })
	assert.Equal(t, SourceFallback, res.Source)
}

func TestAnswerLatencyFromEntry(t *testing.T) {
	f := newFixture()
	base := time.Unix(1_700_000_000, 0)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 500 * time.Millisecond)
	}

	res := f.orchestrator(withClock(clock), WithRenderer(render.Markdown{})).Answer(context.Background(), nil, "q")
	require.NotNil(t, res.RAGLatency)
	assert.InDelta(t, 0.5, *res.RAGLatency, 1e-9)
	assert.Contains(t, res.Summary, "Latency: 0.50s")
}

func TestWithLeavesOriginalUntouched(t *testing.T) {
	f := newFixture()
	base := f.orchestrator()
	local := base.With(WithLocalMode(true))

	assert.Equal(t, SourceLocal, local.Answer(context.Background(), nil, "q").Source)
	assert.Equal(t, SourceSQL, base.Answer(context.Background(), nil, "q").Source)
}

// stallingCompleter never answers SQL prompts before the context ends.
type stallingCompleter struct {
	answer string
}

func (c stallingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.HasPrefix(prompt, sqlgen.SystemPrompt) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.answer, nil
}

func TestAnswerTierTimeoutFallsThrough(t *testing.T) {
	f := newFixture()
	completer := stallingCompleter{answer: "* fine"}
	o := New(Deps{
		Synthesizer: sqlgen.NewSynthesizer(completer, nil),
		Reader:      f.reader,
		Completer:   completer,
		Failures:    f.failures,
	}, WithTierTimeout(10*time.Millisecond))

	start := time.Now()
	res := o.Answer(context.Background(), events(2), "q")

	assertInvariants(t, res)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Less(t, time.Since(start), 5*time.Second)
	require.Len(t, f.failures.msgs, 1)
	assert.Contains(t, f.failures.msgs[0], context.DeadlineExceeded.Error())
}

func TestResultDataKey(t *testing.T) {
	f := newFixture()
	f.reader.rows = nil
	sqlRes := f.orchestrator().Answer(context.Background(), nil, "q")
	require.Equal(t, SourceSQL, sqlRes.Source)

	body, err := json.Marshal(sqlRes)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"data":[]`)

	local := f.orchestrator(WithLocalMode(true)).Answer(context.Background(), nil, "q")
	body, err = json.Marshal(local)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"data"`)
}
