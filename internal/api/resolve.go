package api

import "context"

// Resolver is one candidate way of obtaining a value. It reports false when it
// has nothing to offer so the next candidate is tried.
type Resolver[T any] func(ctx context.Context) (T, bool)

// FirstOf tries resolvers in order and returns the first value produced.
// Later resolvers are not called once one succeeds.
func FirstOf[T any](ctx context.Context, resolvers ...Resolver[T]) (T, bool) {
	for _, resolve := range resolvers {
		if ctx.Err() != nil {
			break
		}
		if v, ok := resolve(ctx); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
