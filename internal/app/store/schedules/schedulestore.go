package schedulestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/planit/internal/app/system/txn"
	"github.com/dalemusser/planit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Activation modes for a user's schedules.
const (
	// ActivationMultiple lets any number of a user's schedules be active.
	ActivationMultiple = "multiple"
	// ActivationExclusive keeps at most one of a user's schedules active.
	ActivationExclusive = "exclusive"
)

var (
	errTitleRequired = errors.New("title is required")
	errOwnerRequired = errors.New("user_id is required")
	// ErrBadActivation is returned for an unknown activation mode.
	ErrBadActivation = errors.New(`activation must be "multiple"|"exclusive"`)
)

// ValidActivation reports whether mode is a known activation mode.
func ValidActivation(mode string) bool {
	return mode == ActivationMultiple || mode == ActivationExclusive
}

type Store struct {
	c          *mongo.Collection
	plans      *mongo.Collection
	client     *mongo.Client
	log        *zap.Logger
	activation string
}

// New returns a schedule store. activation is ActivationMultiple or
// ActivationExclusive; empty means multiple.
func New(db *mongo.Database, logger *zap.Logger, activation string) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activation == "" {
		activation = ActivationMultiple
	}
	return &Store{
		c:          db.Collection("schedules"),
		plans:      db.Collection("plans"),
		client:     db.Client(),
		log:        logger,
		activation: activation,
	}
}

// Activation reports the configured activation mode.
func (s *Store) Activation() string { return s.activation }

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// Create inserts a schedule. In exclusive mode an active schedule
// deactivates the owner's other schedules in the same transaction.
func (s *Store) Create(ctx context.Context, sc models.Schedule) (models.Schedule, error) {
	if sc.Title == "" {
		return models.Schedule{}, errTitleRequired
	}
	if sc.UserID.IsZero() {
		return models.Schedule{}, errOwnerRequired
	}
	sc.ID = primitive.NewObjectID()
	sc.CreatedAt = now()
	sc.LastUpdated = sc.CreatedAt

	if !(sc.IsActive && s.activation == ActivationExclusive) {
		if _, err := s.c.InsertOne(ctx, sc); err != nil {
			return models.Schedule{}, err
		}
		return sc, nil
	}

	err := txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		if err := s.deactivateOthers(ctx, sc.UserID, sc.ID, sc.CreatedAt); err != nil {
			return err
		}
		_, err := s.c.InsertOne(ctx, sc)
		return err
	})
	if err != nil {
		return models.Schedule{}, err
	}
	return sc, nil
}

// GetByID loads a schedule. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Schedule, error) {
	var sc models.Schedule
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// GetByIDs loads every schedule in ids that exists, in no particular order.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Schedule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var out []models.Schedule
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns the user's schedules, oldest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Schedule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	out := []models.Schedule{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the editable fields. Nil fields are left unchanged.
type Update struct {
	Title *string
	Color *string
}

// Update applies upd, refreshes last_updated, and returns the new document.
// Returns mongo.ErrNoDocuments if the schedule is gone.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Schedule, error) {
	set := bson.M{"last_updated": now()}
	if upd.Title != nil {
		if *upd.Title == "" {
			return models.Schedule{}, errTitleRequired
		}
		set["title"] = *upd.Title
	}
	if upd.Color != nil {
		set["color"] = *upd.Color
	}
	return s.findAndSet(ctx, id, set)
}

// Touch refreshes last_updated after one of the schedule's plans changed.
func (s *Store) Touch(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_updated": now()}})
	return err
}

// SetActive sets the active flag on one schedule. In exclusive mode,
// activating a schedule deactivates the owner's others in one transaction.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (models.Schedule, error) {
	ts := now()
	set := bson.M{"is_active": active, "last_updated": ts}
	if !(active && s.activation == ActivationExclusive) {
		return s.findAndSet(ctx, id, set)
	}

	var out models.Schedule
	err := txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		sc, err := s.findAndSet(ctx, id, set)
		if err != nil {
			return err
		}
		out = sc
		return s.deactivateOthers(ctx, sc.UserID, sc.ID, ts)
	})
	if err != nil {
		return models.Schedule{}, err
	}
	return out, nil
}

// Delete removes a schedule and all of its plans in one transaction. It
// reports whether the schedule existed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	deleted := false
	err := txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		if _, err := s.plans.DeleteMany(ctx, bson.M{"schedule_id": id}); err != nil {
			return err
		}
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount > 0
		return nil
	})
	return deleted, err
}

func (s *Store) findAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Schedule, error) {
	var sc models.Schedule
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&sc); err != nil {
		return models.Schedule{}, err
	}
	return sc, nil
}

func (s *Store) deactivateOthers(ctx context.Context, userID, keep primitive.ObjectID, ts time.Time) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "_id": bson.M{"$ne": keep}, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "last_updated": ts}})
	return err
}
