package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/retechci/retechci-backend/internal/access"
	"github.com/retechci/retechci-backend/pkg/enums"
)

type contextKey string

const (
	ctxMemberID contextKey = "member_id"
	ctxRole     contextKey = "actor_role"
)

func MemberIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxMemberID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.MemberRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.MemberRole); ok {
		return v
	}
	return ""
}

// ActorFromContext returns the authenticated member seeded by Auth.
func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	id := MemberIDFromContext(ctx)
	if id == uuid.Nil {
		return access.Actor{}, false
	}
	return access.Actor{MemberID: id, Role: RoleFromContext(ctx)}, true
}

// WithActor injects the authenticated member into the context.
func WithActor(ctx context.Context, actor access.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxMemberID, actor.MemberID)
	return context.WithValue(ctx, ctxRole, actor.Role)
}
