package service

import "context"

type actorKey struct{}

// WithActor запоминает в контексте пользователя, выполняющего операцию
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom возвращает пользователя, выполняющего операцию
func ActorFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorKey{}).(int64)
	return id, ok
}

func actorOr(ctx context.Context, fallback int64) int64 {
	if id, ok := ActorFrom(ctx); ok {
		return id
	}
	return fallback
}
