// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// ActorContext identifies the staff member (or system job) driving a request.
type ActorContext struct {
	StaffID    string
	Name       string
	Role       string
	TerminalID string
}

// SystemActor is used by background jobs.
var SystemActor = &ActorContext{StaffID: "system", Name: "System", Role: "system"}

type actorContextKey struct{}

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}
