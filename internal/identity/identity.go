// Package identity carries the acting person through a request context.
package identity

import (
	"context"

	"estatehub-backend/internal/domain"
)

// Actor is who the caller claims to be. RoleClaim comes from the token and is
// never used for authorization decisions.
type Actor struct {
	ID        string
	RoleClaim string
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}

// Provider supplies the current actor for an engine call.
type Provider interface {
	CurrentActor(ctx context.Context) (Actor, error)
}

// ContextProvider reads the actor bound by the HTTP auth middleware.
type ContextProvider struct{}

func (ContextProvider) CurrentActor(ctx context.Context) (Actor, error) {
	actor, ok := FromContext(ctx)
	if !ok {
		return Actor{}, domain.ErrUnauthenticated
	}
	return actor, nil
}
