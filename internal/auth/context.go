package auth

import (
	"context"

	"github.com/hearthapp/hearth/internal/model"
)

type contextKey struct{}

// Actor identifies the authenticated caller. The house-scope fields
// (HouseID, MemberID, Role) are zero until the house middleware
// resolves the caller's membership for the target house.
type Actor struct {
	UserID    int64
	SessionID int64

	HouseID  int64
	MemberID int64
	Role     model.Role
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

func UserID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return a.UserID
}

func HouseID(ctx context.Context) int64 {
	a, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return a.HouseID
}
