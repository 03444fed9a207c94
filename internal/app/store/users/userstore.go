package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/planit/internal/app/system/normalize"
	"github.com/dalemusser/planit/internal/app/system/txn"
	"github.com/dalemusser/planit/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrSelfFriend is returned when a user targets themselves with a friend operation.
	ErrSelfFriend = errors.New("a user cannot befriend themselves")
	// ErrNotFound is returned when a friend pair write matches no user.
	ErrNotFound = errors.New("user not found")

	errNameRequired  = errors.New("name is required")
	errEmailRequired = errors.New("email is required")
)

type Store struct {
	c      *mongo.Collection
	client *mongo.Client
	log    *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{c: db.Collection("users"), client: db.Client(), log: logger}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ExistAll reports whether every ID in ids belongs to a user.
func (s *Store) ExistAll(ctx context.Context, ids []primitive.ObjectID) (bool, error) {
	uniq := normalize.IDs(ids)
	if len(uniq) == 0 {
		return true, nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": uniq}})
	if err != nil {
		return false, err
	}
	return n == int64(len(uniq)), nil
}

// Create inserts a new user after normalizing fields. The caller supplies an
// already-hashed password.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	if u.Name == "" {
		return models.User{}, errNameRequired
	}
	if u.Email == "" {
		return models.User{}, errEmailRequired
	}
	if u.Friends == nil {
		u.Friends = []primitive.ObjectID{}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Search lists every user except excludeID, ordered by name. A non-empty
// query keeps only names containing it, compared case- and accent-insensitively.
func (s *Store) Search(ctx context.Context, excludeID primitive.ObjectID, query string) ([]models.User, error) {
	filter := bson.M{"_id": bson.M{"$ne": excludeID}}
	if q := text.Fold(normalize.Name(query)); q != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(q)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MutualFriends returns the users that list id as a friend and that id lists
// back, ordered by name. One-sided edges are excluded.
func (s *Store) MutualFriends(ctx context.Context, id primitive.ObjectID) ([]models.User, error) {
	me, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	if len(me.Friends) == 0 {
		return out, nil
	}
	filter := bson.M{"_id": bson.M{"$in": me.Friends}, "friends": id}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MutualFriendIDs is MutualFriends reduced to IDs.
func (s *Store) MutualFriendIDs(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	users, err := s.MutualFriends(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

// AddFriendPair records a friendship on both users inside one transaction.
// The friend list is a set, so repeating the call changes nothing.
func (s *Store) AddFriendPair(ctx context.Context, a, b primitive.ObjectID) error {
	return s.writePair(ctx, a, b, "$addToSet")
}

// RemoveFriendPair removes a friendship from both users inside one transaction.
func (s *Store) RemoveFriendPair(ctx context.Context, a, b primitive.ObjectID) error {
	return s.writePair(ctx, a, b, "$pull")
}

func (s *Store) writePair(ctx context.Context, a, b primitive.ObjectID, op string) error {
	if a == b {
		return ErrSelfFriend
	}
	return txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		now := time.Now().UTC()
		for _, side := range [][2]primitive.ObjectID{{a, b}, {b, a}} {
			res, err := s.c.UpdateOne(ctx,
				bson.M{"_id": side[0]},
				bson.M{op: bson.M{"friends": side[1]}, "$set": bson.M{"updated_at": now}})
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}

// Edge is a friend entry From lists for To.
type Edge struct {
	From primitive.ObjectID `bson:"from"`
	To   primitive.ObjectID `bson:"to"`
}

// OneSidedEdges finds friend entries that are not mirrored on the other
// user, including entries pointing at users that no longer exist.
func (s *Store) OneSidedEdges(ctx context.Context) ([]Edge, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{"friends": 1}}},
		{{Key: "$unwind", Value: "$friends"}},
		{{Key: "$lookup", Value: bson.M{
			"from": s.c.Name(),
			"let":  bson.M{"me": "$_id", "peer": "$friends"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$_id", "$$peer"}},
					bson.M{"$in": bson.A{"$$me", bson.M{"$ifNull": bson.A{"$friends", bson.A{}}}}},
				}}}},
				bson.M{"$project": bson.M{"_id": 1}},
			},
			"as": "back",
		}}},
		{{Key: "$match", Value: bson.M{"back": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "from": "$_id", "to": "$friends"}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []Edge{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PruneEdge removes e.To from e.From's friends unless the edge has become
// mutual since it was found. It reports whether anything was removed.
func (s *Store) PruneEdge(ctx context.Context, e Edge) (bool, error) {
	pruned := false
	err := txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		pruned = false
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": e.To, "friends": e.From})
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": e.From},
			bson.M{"$pull": bson.M{"friends": e.To}, "$set": bson.M{"updated_at": time.Now().UTC()}})
		if err != nil {
			return err
		}
		pruned = res.ModifiedCount > 0
		return nil
	})
	return pruned, err
}
