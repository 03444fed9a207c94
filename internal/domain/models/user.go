// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can sign in, own schedules, and be befriended.
//
// NOTE:
//   - Friends is the only place the friend relationship is stored. It is a
//     set of user IDs and must be mirrored on the other user's document.
//   - PasswordHash is a bcrypt hash and is never exposed over the API.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	NameCI       string               `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"password_hash" json:"-"`
	Avatar       *string              `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Friends      []primitive.ObjectID `bson:"friends" json:"friends"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasFriend reports whether id is in the user's friend set.
func (u User) HasFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}
