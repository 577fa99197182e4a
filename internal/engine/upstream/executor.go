package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_feed/internal/engine"
)

// Result is the outcome of one fallback chain.
type Result struct {
	Rows     []Row   // rows of the winning descriptor; empty when none won
	Attempts int     // descriptors actually queried
	Winner   int     // index of the descriptor that produced Rows, -1 if none
	Errs     []error // per-attempt errors, masked from the caller's data path
	Canceled bool    // the context ended before the chain finished
}

// Failed reports that no attempt succeeded at all: every query errored or the
// context ended first. An all-empty chain is not a failure.
func (r Result) Failed() bool {
	if r.Canceled && r.Winner < 0 {
		return true
	}
	return r.Attempts > 0 && len(r.Errs) == r.Attempts
}

// Err joins the per-attempt errors.
func (r Result) Err() error {
	return errors.Join(r.Errs...)
}

// Executor tries query descriptors in order until one yields rows.
type Executor struct {
	store Store
}

// NewExecutor creates an executor over store.
func NewExecutor(store Store) *Executor {
	return &Executor{store: store}
}

// Execute runs descriptors in the given order and returns the first non-empty
// result. Attempt errors are logged and skipped; results are never merged across
// attempts. The caller owns the preference order.
func (e *Executor) Execute(ctx context.Context, descriptors []QueryDescriptor) Result {
	res := Result{Winner: -1}
	for i, d := range descriptors {
		if err := ctx.Err(); err != nil {
			res.Errs = append(res.Errs, err)
			res.Canceled = true
			return res
		}

		res.Attempts++
		engine.IncrUpstreamAttempts()
		rows, err := e.attempt(ctx, d)
		if err != nil {
			engine.IncrUpstreamErrors()
			res.Errs = append(res.Errs, fmt.Errorf("%s: %w", d.Label(), err))
			slog.Debug("upstream: attempt failed, trying next",
				slog.String("query", d.Label()),
				slog.Int("attempt", i+1),
				slog.Any("error", err))
			continue
		}
		if len(rows) == 0 {
			engine.IncrUpstreamEmpty()
			slog.Debug("upstream: attempt empty, trying next",
				slog.String("query", d.Label()),
				slog.Int("attempt", i+1))
			continue
		}

		res.Rows = rows
		res.Winner = i
		return res
	}
	return res
}

// attempt runs one query, turning a panicking store into an attempt error.
func (e *Executor) attempt(ctx context.Context, d QueryDescriptor) (rows []Row, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rows, err = nil, fmt.Errorf("store panic: %v", rec)
		}
	}()
	return e.store.Query(ctx, d)
}
