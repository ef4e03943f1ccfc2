package meshfix

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Gate bounds the number of simultaneous native calls. MeshFix is not known
// to be reentrant, so callers that fan out (batch, server, TUI) share one
// Gate with a limit of 1 unless configured otherwise.
type Gate struct {
	next  Fixer
	sem   *semaphore.Weighted
	limit int64
}

// NewGate wraps next so that at most limit calls run at once.
// A limit below 1 is treated as 1.
func NewGate(next Fixer, limit int64) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{
		next:  next,
		sem:   semaphore.NewWeighted(limit),
		limit: limit,
	}
}

// Limit returns the configured concurrency limit.
func (g *Gate) Limit() int64 {
	return g.limit
}

// Fix waits for a free slot, then runs the wrapped Fixer to completion.
// Only the wait honors ctx.
func (g *Gate) Fix(ctx context.Context, input string, output *string, opts Options) (Outcome, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return Outcome{}, fmt.Errorf("waiting for native library: %w", err)
	}
	defer g.sem.Release(1)

	return g.next.Fix(ctx, input, output, opts)
}
