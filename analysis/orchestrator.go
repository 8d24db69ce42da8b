// Package analysis answers questions about manufacturing events through a
// chain of progressively simpler tiers: generated SQL with a model summary,
// then a model summary over the raw events and external references, then a
// static local summary. Answer always produces a result.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/enrich"
	"github.com/hubenschmidt/go-mfginsight/llm"
	"github.com/hubenschmidt/go-mfginsight/monitor"
	"github.com/hubenschmidt/go-mfginsight/render"
	"github.com/hubenschmidt/go-mfginsight/store"
)

const DefaultTierTimeout = 90 * time.Second

var (
	ErrNoCompleter   = errors.New("no completion client configured")
	ErrNoSynthesizer = errors.New("no query synthesizer configured")
	ErrNoReader      = errors.New("no store configured")
)

type Synthesizer interface {
	SynthesizeQuery(ctx context.Context, question string) (string, error)
}

type Enricher interface {
	LookupAll(ctx context.Context, query string) []enrich.Finding
}

// Renderer formats model answers. It does not influence tier selection.
type Renderer interface {
	SQLReport(answer string, rows []store.Row, m render.Metrics) string
	FallbackReport(answer string) string
}

// FailureLog receives one message per failed tier. Record must not block
// for long and must not panic.
type FailureLog interface {
	Record(msg string)
}

// Deps are the collaborators of an Orchestrator. Any may be nil; a tier
// whose dependency is missing fails and falls through.
type Deps struct {
	Synthesizer Synthesizer
	Reader      store.Reader
	Completer   llm.Completer
	Enricher    Enricher
	Renderer    Renderer
	Failures    FailureLog
}

type Orchestrator struct {
	deps        Deps
	localMode   bool
	tierTimeout time.Duration
	log         *zap.Logger
	metrics     *monitor.Manager
	now         func() time.Time
}

type Option func(*Orchestrator)

// WithLocalMode skips every model call and answers with the local summary.
func WithLocalMode(on bool) Option {
	return func(o *Orchestrator) { o.localMode = on }
}

func WithTierTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.tierTimeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l.Named("analysis")
		}
	}
}

func WithMetrics(m *monitor.Manager) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithRenderer(r Renderer) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.deps.Renderer = r
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(deps Deps, opts ...Option) *Orchestrator {
	if deps.Renderer == nil {
		deps.Renderer = render.HTML{}
	}
	o := &Orchestrator{
		deps:        deps,
		tierTimeout: DefaultTierTimeout,
		log:         zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// With returns a copy of o with opts applied.
func (o *Orchestrator) With(opts ...Option) *Orchestrator {
	c := *o
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// outcome is what a tier hands back: either succeeded or failed.
type outcome interface {
	isOutcome()
}

type succeeded struct {
	result Result
}

type failed struct {
	err error
}

func (succeeded) isOutcome() {}
func (failed) isOutcome()    {}

type tier struct {
	name string
	run  func(ctx context.Context, req request) outcome
}

type request struct {
	id       string
	events   []core.Event
	question string
	start    time.Time
}

// Answer walks the tiers in order and returns the first success. Failures
// are written to the failure log before moving on; the last tier cannot
// fail.
func (o *Orchestrator) Answer(ctx context.Context, events []core.Event, question string) Result {
	req := request{
		id:       uuid.NewString(),
		events:   events,
		question: question,
		start:    o.now(),
	}
	log := o.log.With(zap.String("request_id", req.id))

	if o.localMode {
		o.metrics.RecordTier("local_mode", monitor.OutcomeOK)
		return o.finish(log, o.localResult(req))
	}

	tiers := []tier{
		{name: "sql", run: o.sqlTier},
		{name: "fallback", run: o.fallbackTier},
	}
	for _, t := range tiers {
		tctx, cancel := context.WithTimeout(ctx, o.tierTimeout)
		out := t.run(tctx, req)
		cancel()

		switch out := out.(type) {
		case succeeded:
			o.metrics.RecordTier(t.name, monitor.OutcomeOK)
			return o.finish(log, out.result)
		case failed:
			o.metrics.RecordTier(t.name, monitor.OutcomeFailed)
			log.Warn("tier failed",
				zap.String("tier", t.name),
				zap.Stringer("kind", core.KindOf(out.err)),
				zap.Error(out.err),
			)
			o.recordFailure(log, out.err)
		}
	}

	o.metrics.RecordTier("local", monitor.OutcomeOK)
	return o.finish(log, o.localResult(req))
}

func (o *Orchestrator) finish(log *zap.Logger, res Result) Result {
	if res.RAGLatency != nil {
		o.metrics.ObserveAnswer(string(res.Source), time.Duration(*res.RAGLatency*float64(time.Second)))
	}
	log.Info("answered", zap.String("source", string(res.Source)), zap.Float64("confidence", res.Confidence))
	return res
}

func (o *Orchestrator) recordFailure(log *zap.Logger, err error) {
	if o.deps.Failures == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("failure log panicked", zap.Any("panic", r))
		}
	}()
	o.deps.Failures.Record(err.Error())
}

func (o *Orchestrator) sqlTier(ctx context.Context, req request) outcome {
	switch {
	case o.deps.Synthesizer == nil:
		return failed{core.NewError(core.KindGeneration, "analysis.sql", ErrNoSynthesizer)}
	case o.deps.Reader == nil:
		return failed{core.NewError(core.KindExecution, "analysis.sql", ErrNoReader)}
	case o.deps.Completer == nil:
		return failed{core.NewError(core.KindGeneration, "analysis.sql", ErrNoCompleter)}
	}

	query, err := o.deps.Synthesizer.SynthesizeQuery(ctx, req.question)
	if err != nil {
		return failed{classify(core.KindGeneration, "analysis.synthesize", err)}
	}

	rows, err := o.deps.Reader.ExecuteRead(ctx, query, nil)
	if err != nil {
		return failed{classify(core.KindExecution, "analysis.execute", err)}
	}
	if rows == nil {
		rows = []store.Row{}
	}

	answer, err := o.deps.Completer.Complete(ctx, SQLSummaryPrompt(req.question, rows))
	if err != nil {
		return failed{classify(core.KindGeneration, "analysis.summarize", err)}
	}

	latency := o.now().Sub(req.start)
	summary := o.deps.Renderer.SQLReport(answer, rows, render.Metrics{
		Confidence: ConfidenceModel,
		Rows:       len(rows),
		Latency:    latency,
	})
	return succeeded{Result{
		Summary:    summary,
		Data:       rows,
		Confidence: ConfidenceModel,
		Source:     SourceSQL,
		Timestamp:  unixSeconds(o.now()),
		RAGRecall:  count(len(rows)),
		RAGLatency: seconds(latency),
	}}
}

func (o *Orchestrator) fallbackTier(ctx context.Context, req request) outcome {
	if o.deps.Completer == nil {
		return failed{core.NewError(core.KindGeneration, "analysis.fallback", ErrNoCompleter)}
	}

	var findings []enrich.Finding
	if o.deps.Enricher != nil {
		findings = o.deps.Enricher.LookupAll(ctx, req.question)
	}

	prompt := FallbackPrompt(req.question, EventContext(req.events), findings)
	answer, err := o.deps.Completer.Complete(ctx, prompt)
	if err != nil {
		return failed{classify(core.KindGeneration, "analysis.fallback", err)}
	}

	latency := o.now().Sub(req.start)
	return succeeded{Result{
		Summary:    o.deps.Renderer.FallbackReport(answer),
		Confidence: ConfidenceModel,
		Source:     SourceFallback,
		Timestamp:  unixSeconds(o.now()),
		RAGRecall:  count(len(req.events)),
		RAGLatency: seconds(latency),
	}}
}

func (o *Orchestrator) localResult(req request) Result {
	return Result{
		Summary:    LocalSummary(len(req.events)),
		Confidence: ConfidenceLocal,
		Source:     SourceLocal,
		Timestamp:  unixSeconds(o.now()),
		RAGLatency: seconds(o.now().Sub(req.start)),
	}
}

// classify keeps an existing kind and assigns kind otherwise.
func classify(kind core.Kind, op string, err error) error {
	if core.KindOf(err) != core.KindUnknown {
		return err
	}
	return core.NewError(kind, op, err)
}
