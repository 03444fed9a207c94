package planstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/planit/internal/app/system/normalize"
	"github.com/dalemusser/planit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrBadRange is returned when a plan ends before it starts.
	ErrBadRange = errors.New("end must not be before start")

	errTitleRequired    = errors.New("title is required")
	errScheduleRequired = errors.New("schedule_id and owner_id are required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("plans")}
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

var byStart = options.Find().SetSort(bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}})

// Create inserts a plan. The caller has already checked that the schedule
// and invitees exist.
func (s *Store) Create(ctx context.Context, p models.Plan) (models.Plan, error) {
	if p.Title == "" {
		return models.Plan{}, errTitleRequired
	}
	if p.ScheduleID.IsZero() || p.OwnerID.IsZero() {
		return models.Plan{}, errScheduleRequired
	}
	p.Start = p.Start.UTC().Truncate(time.Millisecond)
	p.End = p.End.UTC().Truncate(time.Millisecond)
	if p.End.Before(p.Start) {
		return models.Plan{}, ErrBadRange
	}
	p.UserIDs = normalize.IDs(p.UserIDs)
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Plan{}, err
	}
	return p, nil
}

// GetByID loads a plan. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error) {
	var p models.Plan
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListBySchedule returns a schedule's plans ordered by start.
func (s *Store) ListBySchedule(ctx context.Context, scheduleID primitive.ObjectID) ([]models.Plan, error) {
	return s.find(ctx, bson.M{"schedule_id": scheduleID})
}

// ListBySchedules returns the plans of every listed schedule in one query,
// ordered by start. Used by the batched Schedule.plans loader.
func (s *Store) ListBySchedules(ctx context.Context, scheduleIDs []primitive.ObjectID) ([]models.Plan, error) {
	if len(scheduleIDs) == 0 {
		return []models.Plan{}, nil
	}
	return s.find(ctx, bson.M{"schedule_id": bson.M{"$in": scheduleIDs}})
}

// ListByOwner returns every plan in the user's schedules.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Plan, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID})
}

// ListByParticipants returns plans owned by or inviting any of userIDs.
// This is the busy-dates lookup over a candidate invitee list.
func (s *Store) ListByParticipants(ctx context.Context, userIDs []primitive.ObjectID) ([]models.Plan, error) {
	if len(userIDs) == 0 {
		return []models.Plan{}, nil
	}
	return s.find(ctx, bson.M{"$or": bson.A{
		bson.M{"owner_id": bson.M{"$in": userIDs}},
		bson.M{"user_ids": bson.M{"$in": userIDs}},
	}})
}

// Update holds the editable fields. Nil fields are left unchanged.
type Update struct {
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	UserIDs     *[]primitive.ObjectID
}

// Update applies upd to the plan and returns the new document. The merged
// start and end must still form a valid range. Returns mongo.ErrNoDocuments
// if the plan is gone.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Plan, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Plan{}, err
	}

	set := bson.M{"updated_at": now()}
	if upd.Title != nil {
		if *upd.Title == "" {
			return models.Plan{}, errTitleRequired
		}
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	start, end := cur.Start, cur.End
	if upd.Start != nil {
		start = upd.Start.UTC().Truncate(time.Millisecond)
		set["start"] = start
	}
	if upd.End != nil {
		end = upd.End.UTC().Truncate(time.Millisecond)
		set["end"] = end
	}
	if end.Before(start) {
		return models.Plan{}, ErrBadRange
	}
	if upd.UserIDs != nil {
		set["user_ids"] = normalize.IDs(*upd.UserIDs)
	}

	var p models.Plan
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return models.Plan{}, err
	}
	return p, nil
}

// Delete removes a plan and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Plan, error) {
	cur, err := s.c.Find(ctx, filter, byStart)
	if err != nil {
		return nil, err
	}
	out := []models.Plan{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
