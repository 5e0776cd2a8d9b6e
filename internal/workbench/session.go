// Package workbench ties the engine packages into one exploration session
// configured from internal/config, with logging and a span per operation.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vic/lambdalab/internal/config"
	"github.com/vic/lambdalab/internal/observability"
	"github.com/vic/lambdalab/internal/syntax"
	"github.com/vic/lambdalab/pkg/analysis"
	"github.com/vic/lambdalab/pkg/generate"
	"github.com/vic/lambdalab/pkg/graph"
	"github.com/vic/lambdalab/pkg/lambda"
	"github.com/vic/lambdalab/pkg/reduce"
)

// ErrTooLarge is returned when a generation request exceeds the configured
// maximum size or free variable count.
var ErrTooLarge = errors.New("generation request exceeds generator limits")

// Session is one exploration session. Terms are parsed against a copy of
// the session's free variable names; the generator bank is kept for the
// lifetime of the session.
type Session struct {
	ID     string
	Config *config.Config
	Logger *slog.Logger

	free        []string
	tracer      trace.Tracer
	normalizers map[reduce.Strategy]*reduce.Normalizer
	builder     *graph.Builder
	bank        *generate.Bank
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.Logger = l }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithFree sets the free variable names every parsed term starts from.
func WithFree(names ...string) Option {
	return func(s *Session) { s.free = names }
}

// New creates a session. A nil cfg uses config.Default.
func New(cfg *config.Config, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		ID:     uuid.NewString(),
		Config: cfg,
		Logger: slog.Default(),
		tracer: otel.Tracer(observability.TracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Logger = s.Logger.With("session", s.ID)

	s.normalizers = make(map[reduce.Strategy]*reduce.Normalizer, len(reduce.Strategies))
	for _, st := range reduce.Strategies {
		n := reduce.NewNormalizer(st, cfg.Reduction.Budget)
		n.Logger = s.Logger
		s.normalizers[st] = n
	}
	s.builder = graph.NewBuilder(cfg.Graph.MaxExpansions)
	s.builder.Logger = s.Logger
	s.bank = generate.NewBank()
	s.bank.Logger = s.Logger
	return s
}

// Parse reads input against the session's free names. Unknown names are
// appended to the returned context, which belongs to this term only.
func (s *Session) Parse(input string) (lambda.Term, *lambda.Context, error) {
	ctx := lambda.NewContext(s.free...)
	term, err := syntax.NewParser(input).Parse(ctx)
	if err != nil {
		return nil, nil, err
	}
	return term, ctx, nil
}

// Normalizer returns the session normalizer for strategy.
func (s *Session) Normalizer(strategy reduce.Strategy) *reduce.Normalizer {
	n, ok := s.normalizers[strategy]
	if !ok {
		panic(fmt.Sprintf("workbench: %s", strategy))
	}
	return n
}

func (s *Session) start(ctx context.Context, op string) (context.Context, trace.Span, error) {
	ctx, span := observability.StartOperationSpan(ctx, s.tracer, op, s.ID)
	if err := ctx.Err(); err != nil {
		observability.RecordError(span, err)
		span.End()
		return ctx, nil, err
	}
	return ctx, span, nil
}

// Analyze computes the metric profile of t under tctx.
func (s *Session) Analyze(ctx context.Context, t lambda.Term, tctx *lambda.Context) (analysis.Profile, error) {
	_, span, err := s.start(ctx, "analyze")
	if err != nil {
		return analysis.Profile{}, err
	}
	defer span.End()
	return analysis.Analyze(t, tctx.Len()), nil
}

// Normalize reduces t to normal form under strategy within the configured
// budget. A timeout is reported in the result, not as an error.
func (s *Session) Normalize(ctx context.Context, t lambda.Term, strategy reduce.Strategy) (reduce.Result, error) {
	return s.normalize(ctx, "normalize", t, strategy, 0)
}

// Trace is Normalize with the first capacity contractions recorded in
// Result.Trace.
func (s *Session) Trace(ctx context.Context, t lambda.Term, strategy reduce.Strategy, capacity int) (reduce.Result, error) {
	return s.normalize(ctx, "trace", t, strategy, capacity)
}

func (s *Session) normalize(ctx context.Context, op string, t lambda.Term, strategy reduce.Strategy, capacity int) (reduce.Result, error) {
	_, span, err := s.start(ctx, op)
	if err != nil {
		return reduce.Result{}, err
	}
	defer span.End()

	start := time.Now()
	res := s.Normalizer(strategy).NormalizeTraced(t, capacity)
	observability.RecordNormalization(span, strategy.String(), res.Steps, res.TimedOut())
	if res.TimedOut() {
		s.Logger.Info("normalization timed out", "strategy", strategy, "steps", res.Steps)
	} else {
		s.Logger.Debug("normalized", "strategy", strategy, "steps", res.Steps, "duration", time.Since(start))
	}
	return res, nil
}

// Step performs one reduction under strategy. The boolean is false when t is
// already normal.
func (s *Session) Step(ctx context.Context, t lambda.Term, strategy reduce.Strategy) (lambda.Term, bool, error) {
	_, span, err := s.start(ctx, "step")
	if err != nil {
		return nil, false, err
	}
	defer span.End()
	next, ok := s.Normalizer(strategy).Reduce(t)
	return next, ok, nil
}

// Redexes lists the redexes of t in pre-order.
func (s *Session) Redexes(ctx context.Context, t lambda.Term) ([]reduce.Redex, error) {
	_, span, err := s.start(ctx, "redexes")
	if err != nil {
		return nil, err
	}
	defer span.End()
	return reduce.Redexes(t), nil
}

// ReduceAt contracts the redex with the given pre-order index.
func (s *Session) ReduceAt(ctx context.Context, t lambda.Term, index int) (lambda.Term, error) {
	_, span, err := s.start(ctx, "reduce_at")
	if err != nil {
		return nil, err
	}
	defer span.End()
	if n := reduce.BetaRedexCount(t); index < 0 || index >= n {
		err := fmt.Errorf("redex %d out of range: term has %d", index, n)
		observability.RecordError(span, err)
		return nil, err
	}
	return reduce.ReduceAt(t, index), nil
}

// Graph builds the reduction graph of t within the configured expansion
// ceiling, together with its path statistics.
func (s *Session) Graph(ctx context.Context, t lambda.Term) (*graph.Graph, graph.PathStats, error) {
	_, span, err := s.start(ctx, "graph")
	if err != nil {
		return nil, graph.PathStats{}, err
	}
	defer span.End()

	g := s.builder.Build(t)
	stats := g.PathStats()
	observability.RecordGraph(span, len(g.Vertices), g.EdgeCount(), g.Truncated)
	if g.Truncated {
		s.Logger.Info("reduction graph truncated", "vertices", len(g.Vertices), "max_expansions", s.builder.MaxExpansions)
	}
	return g, stats, nil
}

// Generate enumerates the terms of size n with k free variables in fragment
// that pass every filter.
func (s *Session) Generate(ctx context.Context, n, k int, fragment generate.Fragment, filters ...generate.Filter) ([]lambda.Term, error) {
	_, span, err := s.start(ctx, "generate")
	if err != nil {
		return nil, err
	}
	defer span.End()
	if err := s.checkSize(n, k); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	terms := generate.Select(s.bank.Generate(n, k, fragment), filters...)
	observability.RecordGeneration(span, fragment.String(), n, k, len(terms))
	return terms, nil
}

// GenerateUpTo enumerates every size from 0 to maxN, using up to
// generator.parallelism workers. Result i holds the terms of size i.
func (s *Session) GenerateUpTo(ctx context.Context, maxN, k int, fragment generate.Fragment, filters ...generate.Filter) ([][]lambda.Term, error) {
	ctx, span, err := s.start(ctx, "generate_up_to")
	if err != nil {
		return nil, err
	}
	defer span.End()
	if err := s.checkSize(maxN, k); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	sizes := make([]int, 0, maxN+1)
	for n := 0; n <= maxN; n++ {
		sizes = append(sizes, n)
	}
	out, err := s.bank.GenerateSizes(ctx, sizes, k, fragment, s.Config.Generator.Parallelism)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	total := 0
	for i := range out {
		out[i] = generate.Select(out[i], filters...)
		total += len(out[i])
	}
	observability.RecordGeneration(span, fragment.String(), maxN, k, total)
	return out, nil
}

func (s *Session) checkSize(n, k int) error {
	if limit := s.Config.Generator.MaxSize; limit > 0 && n > limit {
		return fmt.Errorf("%w: size %d > max_size %d", ErrTooLarge, n, limit)
	}
	if limit := s.Config.Generator.MaxFree; limit > 0 && k > limit {
		return fmt.Errorf("%w: %d free variables > max_free %d", ErrTooLarge, k, limit)
	}
	return nil
}

// Stats reports counters accumulated by the session.
type Stats struct {
	Normalizers map[string]reduce.Stats
	Bank        generate.Stats
}

// GetStats returns the session counters.
func (s *Session) GetStats() Stats {
	st := Stats{Normalizers: make(map[string]reduce.Stats, len(s.normalizers)), Bank: s.bank.GetStats()}
	for strategy, n := range s.normalizers {
		st.Normalizers[strategy.String()] = n.GetStats()
	}
	return st
}
