package usecase

import "context"

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor attaches the acting operator's identifier to the context.
// The HTTP layer sets it from the X-Actor-ID header; batch jobs set it
// to their job name.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func actorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorContextKey).(string); ok && actor != "" {
		return actor
	}

	return "system"
}
