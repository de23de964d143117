package shared

import "context"

type contextKey string

const actorKey contextKey = "actor"

// Actor identifies the authenticated principal performing an operation.
// Resolution of the actor itself is external to this core.
type Actor struct {
	ID   int64
	Name string
}

// ContextWithActor stores the actor on the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor, or ErrAuthentication when absent.
func ActorFromContext(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(actorKey).(Actor)
	if !ok || actor.ID == 0 {
		return Actor{}, ErrAuthentication
	}
	return actor, nil
}
