package work

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stablekey/sdk/token"
)

const defaultConcurrency = 8

// Executor runs a DAG dependency-first, executing independent units
// concurrently. Tracing and metrics are optional; an Executor without a
// tracer or meter only logs.
type Executor struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	meter       metric.Meter
	concurrency int

	unitCounter  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// WithTracer enables a span per run and one per unit execution.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = tracer }
}

// WithMeter enables the unit counter and duration histogram.
func WithMeter(meter metric.Meter) ExecutorOption {
	return func(e *Executor) { e.meter = meter }
}

// WithConcurrency caps how many units run at once. Defaults to 8.
func WithConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	if e.meter != nil {
		var err error
		e.unitCounter, err = e.meter.Int64Counter(
			"work.unit.count",
			metric.WithDescription("Number of unit executions"),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("work: create unit counter: %w", err)
		}
		e.durationHist, err = e.meter.Float64Histogram(
			"work.unit.duration",
			metric.WithDescription("Unit execution duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return nil, fmt.Errorf("work: create duration histogram: %w", err)
		}
	}
	return e, nil
}

// Execute runs every unit in the graph and returns the results addressed
// by each producing unit's derived key. Units whose dependencies are all
// complete run concurrently, up to the configured concurrency. The first
// unit error cancels the remaining work and is returned wrapped with the
// unit's name.
func (e *Executor) Execute(ctx context.Context, dag *DAG) (map[token.Key]*Result, error) {
	runID := uuid.New().String()
	log := e.logger.With("run_id", runID)

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "work.dag.execute", trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("dag.units", dag.Len()),
		))
		defer span.End()
	}

	log.Info("executing dag", "units", dag.Len())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dependents := make(map[token.Key][]token.Key, dag.Len())
	pending := make(map[token.Key]int, dag.Len())
	for _, key := range dag.Keys() {
		deps := dag.Dependencies(key)
		pending[key] = len(deps)
		for _, depKey := range deps {
			dependents[depKey] = append(dependents[depKey], key)
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  = make(map[token.Key]*Result, dag.Len())
		firstErr error
	)
	sem := make(chan struct{}, e.concurrency)

	// launch starts every unit whose dependencies are complete; called
	// with mu held, re-entered as units finish.
	var launch func()
	launch = func() {
		if firstErr != nil {
			return
		}
		for key, remaining := range pending {
			if remaining != 0 {
				continue
			}
			delete(pending, key)

			unit, _ := dag.Unit(key)
			deps := make([]*Result, len(dag.Dependencies(key)))
			for i, depKey := range dag.Dependencies(key) {
				deps[i] = results[depKey]
			}

			wg.Add(1)
			go func(key token.Key, unit Unit, deps []*Result) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				res, err := e.executeUnit(ctx, log, key, unit, deps)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("work: unit %s: %w", unit.Name(), err)
						cancel()
					}
					return
				}
				results[key] = res
				for _, next := range dependents[key] {
					if _, waiting := pending[next]; waiting {
						pending[next]--
					}
				}
				launch()
			}(key, unit, deps)
		}
	}

	mu.Lock()
	launch()
	mu.Unlock()
	wg.Wait()

	if firstErr != nil {
		log.Error("dag execution failed", "error", firstErr)
		return nil, firstErr
	}
	if len(results) != dag.Len() {
		return nil, fmt.Errorf("%w: %d of %d units unreachable", ErrCycle, dag.Len()-len(results), dag.Len())
	}

	log.Info("dag execution complete", "results", len(results))
	return results, nil
}

func (e *Executor) executeUnit(ctx context.Context, log *slog.Logger, key token.Key, unit Unit, deps []*Result) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	span := trace.SpanFromContext(ctx)
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "work.unit.execute", trace.WithAttributes(
			attribute.String("unit.name", unit.Name()),
			attribute.String("unit.key", key.String()),
		))
		defer span.End()
	}

	log.Debug("executing unit", "unit", unit.Name(), "key", key.String())
	start := time.Now()

	outputs, err := unit.Execute(ctx, deps)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if e.meter != nil {
		opts := metric.WithAttributes(
			attribute.String("unit.name", unit.Name()),
			attribute.String("status", status),
		)
		e.unitCounter.Add(ctx, 1, opts)
		e.durationHist.Record(ctx, float64(elapsed.Milliseconds()), opts)
	}

	if err != nil {
		log.Warn("unit failed", "unit", unit.Name(), "key", key.String(), "error", err, "duration", elapsed)
		return nil, err
	}
	log.Debug("unit complete", "unit", unit.Name(), "key", key.String(), "duration", elapsed)

	depKeys := make([]token.Key, len(deps))
	for i, dep := range deps {
		depKey, err := token.KeyOf(dep)
		if err != nil {
			return nil, err
		}
		depKeys[i] = depKey
	}

	res := NewResult(unit.Name(), key, outputs, depKeys)
	if _, err := token.KeyOf(res); err != nil {
		return nil, err
	}
	return res, nil
}
