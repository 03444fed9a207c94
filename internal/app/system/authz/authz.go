// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"errors"

	"github.com/dalemusser/planit/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrUnauthenticated means the operation needs a resolved identity and
	// the request has none.
	ErrUnauthenticated = errors.New("Authentication Error")
	// ErrForbidden means the caller is signed in but may not act on the
	// target entity.
	ErrForbidden = errors.New("Not Authorized")
)

// RequireIdentity returns the caller or ErrUnauthenticated. Call it before
// any store access.
func RequireIdentity(ctx context.Context) (*auth.Identity, error) {
	id, ok := auth.CurrentIdentity(ctx)
	if !ok || id.UserID.IsZero() {
		return nil, ErrUnauthenticated
	}
	return id, nil
}

// RequireOwner returns ErrForbidden unless the caller owns the entity.
func RequireOwner(id *auth.Identity, ownerID primitive.ObjectID) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if ownerID.IsZero() || id.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}

// RequireSelfOrFriends returns ErrForbidden unless every target is the caller
// or one of the caller's mutual friends.
func RequireSelfOrFriends(id *auth.Identity, mutual []primitive.ObjectID, targets []primitive.ObjectID) error {
	if id == nil {
		return ErrUnauthenticated
	}
	allowed := make(map[primitive.ObjectID]struct{}, len(mutual)+1)
	allowed[id.UserID] = struct{}{}
	for _, f := range mutual {
		allowed[f] = struct{}{}
	}
	for _, t := range targets {
		if _, ok := allowed[t]; !ok {
			return ErrForbidden
		}
	}
	return nil
}
