package classifier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/termstudio/taxon/internal/catalog"
	"github.com/termstudio/taxon/internal/index"
)

// System defines the public contract for classification operations.
type System interface {
	Handler() *Handler

	Classify(ctx context.Context, req Request) (*Result, error)
	Batch(ctx context.Context, reqs []Request) ([]*Result, error)
}

type orchestrator struct {
	strategies map[Method]Strategy
	catalog    catalog.System
	scorer     *Scorer
	threshold  float64
	timeout    time.Duration
	batchLimit int
	logger     *slog.Logger
}

// Config holds orchestrator tuning values.
type Config struct {
	Threshold        float64
	Timeout          time.Duration
	BatchConcurrency int
}

// New creates a classification orchestrator over the given strategies.
func New(
	strategies map[Method]Strategy,
	cat catalog.System,
	scorer *Scorer,
	cfg Config,
	logger *slog.Logger,
) System {
	return &orchestrator{
		strategies: strategies,
		catalog:    cat,
		scorer:     scorer,
		threshold:  cfg.Threshold,
		timeout:    cfg.Timeout,
		batchLimit: cfg.BatchConcurrency,
		logger:     logger.With("system", "classifier"),
	}
}

func (o *orchestrator) Handler() *Handler {
	return NewHandler(o, o.logger)
}

// Classify runs one request through its strategy. Invalid requests return
// an error; everything that happens during strategy execution is folded
// into the Result, so an empty catalog, a provider failure, or a cancelled
// context still yields a result with the matching outcome.
func (o *orchestrator) Classify(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	strategy, ok := o.strategies[req.Method]
	if !ok {
		return nil, ErrInvalidMethod
	}

	input := req.CombinedInput()
	result := &Result{
		RequestID:    uuid.New(),
		Input:        input,
		Method:       req.Method,
		Candidates:   []Candidate{},
		ClassifiedAt: time.Now().UTC(),
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	sel, err := strategy.Classify(callCtx, input)
	if err != nil {
		// An unloaded index means nothing can match, not that the
		// request failed.
		if errors.Is(err, index.ErrEmpty) {
			result.Outcome = OutcomeNoMatch
			result.Rationale = "catalog is empty"
			o.logger.Info("classification complete",
				"request_id", result.RequestID,
				"method", req.Method,
				"outcome", result.Outcome,
				"confidence", result.Confidence,
			)
			return result, nil
		}
		return o.failed(ctx, result, err), nil
	}

	result.Candidates = sel.Candidates
	result.Rationale = sel.Rationale
	result.Confidence = o.scorer.Score(req.Method, sel)

	if sel.ChosenID == "" || result.Confidence < o.threshold {
		result.Outcome = OutcomeNoMatch
		o.logger.Info("classification complete",
			"request_id", result.RequestID,
			"method", req.Method,
			"outcome", result.Outcome,
			"confidence", result.Confidence,
		)
		return result, nil
	}

	term, err := o.catalog.Find(ctx, sel.ChosenID)
	if err != nil {
		return o.failed(ctx, result, err), nil
	}

	result.Outcome = OutcomeMatched
	result.Term = term

	o.logger.Info("classification complete",
		"request_id", result.RequestID,
		"method", req.Method,
		"outcome", result.Outcome,
		"term", term.ID,
		"confidence", result.Confidence,
	)
	return result, nil
}

// Batch classifies requests concurrently with a bounded worker pool.
// Results hold the position of their request; a failing item never
// disturbs its neighbors.
func (o *orchestrator) Batch(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.batchLimit)

	for i, req := range reqs {
		g.Go(func() error {
			result, err := o.Classify(gctx, req)
			if err != nil {
				result = &Result{
					RequestID:    uuid.New(),
					Input:        req.CombinedInput(),
					Method:       req.Method,
					Outcome:      OutcomeError,
					Candidates:   []Candidate{},
					Error:        err.Error(),
					ClassifiedAt: time.Now().UTC(),
				}
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// failed closes out a result for a strategy error, distinguishing caller
// cancellation from execution failure.
func (o *orchestrator) failed(ctx context.Context, result *Result, err error) *Result {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		result.Outcome = OutcomeCancelled
	} else {
		result.Outcome = OutcomeError
	}
	result.Error = err.Error()

	o.logger.Warn("classification failed",
		"request_id", result.RequestID,
		"method", result.Method,
		"outcome", result.Outcome,
		"error", err,
	)
	return result
}
