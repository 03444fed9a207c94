// internal/domain/models/schedule.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Schedule is a named calendar owned by exactly one user.
type Schedule struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title    string             `bson:"title" json:"title"`
	Color    string             `bson:"color,omitempty" json:"color,omitempty"`
	IsActive bool               `bson:"is_active" json:"is_active"`

	// LastUpdated moves forward whenever the schedule or one of its plans changes.
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
