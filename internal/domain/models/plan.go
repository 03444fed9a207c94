// internal/domain/models/plan.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan is a dated event inside one schedule.
//
// OwnerID duplicates the parent schedule's UserID so ownership checks and
// participant queries do not need a second lookup. UserIDs lists invited
// users; invitees gain no access to the plan's schedule.
type Plan struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ScheduleID  primitive.ObjectID   `bson:"schedule_id" json:"schedule_id"`
	OwnerID     primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Start       time.Time            `bson:"start" json:"start"`
	End         time.Time            `bson:"end" json:"end"`
	UserIDs     []primitive.ObjectID `bson:"user_ids" json:"user_ids"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
