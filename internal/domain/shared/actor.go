package shared

import "context"

// Actor is the authenticated identity behind a command. Authentication happens upstream;
// the engine only needs who did it for the audit trail.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

func (a Actor) Valid() bool { return a.ID != "" }

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.Valid()
}
