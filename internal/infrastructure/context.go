package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}

// NewRunID returns a fresh UUID identifying one command invocation
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID stores id on ctx; every log line written with ctx carries it as run_id
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id stored on ctx, or ""
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// StartRun tags ctx with a new run id unless it already has one
func StartRun(ctx context.Context) context.Context {
	if RunID(ctx) != "" {
		return ctx
	}
	return WithRunID(ctx, NewRunID())
}
