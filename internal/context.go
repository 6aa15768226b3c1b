package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextActorKey ctxKey = "actor"

// Actor is the authenticated caller, as carried by the access token.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	if ctx == nil {
		return nil, false
	}
	actor, ok := ctx.Value(ContextActorKey).(*Actor)
	return actor, ok && actor != nil
}

func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}

// ActorIDOr returns the authenticated actor's id, or fallback when the
// request is anonymous.
func ActorIDOr(ctx context.Context, fallback string) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.ID != "" {
		return actor.ID
	}
	return fallback
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
