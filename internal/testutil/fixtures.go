package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/planit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with an empty friend set. The password hash is a
// placeholder; use the user store when a real hash is needed.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		PasswordHash: "x",
		Friends:      []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// AddFriendEdge appends to one side of a friendship only. Used to build the
// one-sided edges the reconciler repairs.
func (f *Fixtures) AddFriendEdge(ctx context.Context, from, to primitive.ObjectID) {
	f.t.Helper()

	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": from},
		bson.M{"$addToSet": bson.M{"friends": to}})
	if err != nil {
		f.t.Fatalf("failed to add friend edge: %v", err)
	}
}

// CreateSchedule inserts a schedule owned by userID.
func (f *Fixtures) CreateSchedule(ctx context.Context, userID primitive.ObjectID, title string, active bool) models.Schedule {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	s := models.Schedule{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Title:       title,
		Color:       "#3366FF",
		IsActive:    active,
		LastUpdated: now,
		CreatedAt:   now,
	}
	if _, err := f.db.Collection("schedules").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test schedule: %v", err)
	}
	return s
}

// CreatePlan inserts a one-hour plan in schedule s starting at start.
func (f *Fixtures) CreatePlan(ctx context.Context, s models.Schedule, title string, start time.Time, invitees ...primitive.ObjectID) models.Plan {
	f.t.Helper()

	if invitees == nil {
		invitees = []primitive.ObjectID{}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	p := models.Plan{
		ID:         primitive.NewObjectID(),
		ScheduleID: s.ID,
		OwnerID:    s.UserID,
		Title:      title,
		Start:      start.UTC(),
		End:        start.UTC().Add(time.Hour),
		UserIDs:    invitees,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("plans").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test plan: %v", err)
	}
	return p
}
