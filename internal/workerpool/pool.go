// Package workerpool bounds how many staged items are processed
// concurrently.
package workerpool

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

type Pool struct {
	group *errgroup.Group
	ctx   context.Context
}

// New returns a pool running at most limit tasks at once. Submit blocks
// once the limit is reached, giving natural backpressure to the producer.
func New(ctx context.Context, limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	return &Pool{group: group, ctx: groupCtx}
}

// Submit schedules fn. Task errors are logged, not propagated: one item's
// failure never stops the pool.
func (p *Pool) Submit(name string, fn func(ctx context.Context) error) {
	p.group.Go(func() error {
		if err := fn(p.ctx); err != nil {
			slog.Error("worker_task_failed", "task", name, "error", err)
		}
		return nil
	})
}

// Wait blocks until all submitted tasks finished.
func (p *Pool) Wait() {
	_ = p.group.Wait()
}
