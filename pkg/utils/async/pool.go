package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"golang.org/x/sync/errgroup"
)

// ForEach calls fn once for every item with at most limit calls running at
// the same time, and returns when all of them have finished.
//
// Behavior:
//   - limit below 1 is treated as 1, which runs items strictly in order
//   - calls are started in item order; completion order is not defined
//   - a panic in fn is recovered and logged with its stack, the remaining
//     items still run
func ForEach[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, idx int, item T)) {
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for idx, item := range items {
		g.Go(func() error {
			defer recoverTask(ctx, idx)
			fn(ctx, idx, item)
			return nil
		})
	}

	_ = g.Wait()
}

func recoverTask(ctx context.Context, idx int) {
	if r := recover(); r != nil {
		ctxlog.From(ctx).Error("panic in pooled task",
			"index", idx,
			"recover", r,
			"stack", string(debug.Stack()))
	}
}
