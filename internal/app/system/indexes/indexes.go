// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup and by test database setup. Each collection's
index set is reconciled idempotently. Errors are aggregated so every problem
is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string
	for _, coll := range []string{"users", "schedules", "plans"} {
		if err := ensureIndexSet(ctx, db.Collection(coll), Desired(coll), log); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Desired returns the index models expected on a collection.
func Desired(coll string) []mongo.IndexModel {
	switch coll {
	case "users":
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
			},
			// getUsers sorts and substring-matches on the folded name
			{
				Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
				Options: options.Index().SetName("idx_users_nameci_id"),
			},
			// reverse lookup of who lists a user, used when reconciling edges
			{
				Keys:    bson.D{{Key: "friends", Value: 1}},
				Options: options.Index().SetName("idx_users_friends"),
			},
		}
	case "schedules":
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("idx_schedules_user_created"),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}},
				Options: options.Index().SetName("idx_schedules_user_active"),
			},
		}
	case "plans":
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "schedule_id", Value: 1}, {Key: "start", Value: 1}},
				Options: options.Index().SetName("idx_plans_schedule_start"),
			},
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "start", Value: 1}},
				Options: options.Index().SetName("idx_plans_owner_start"),
			},
			{
				Keys:    bson.D{{Key: "user_ids", Value: 1}},
				Options: options.Index().SetName("idx_plans_userids"),
			},
		}
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                       */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

func listExisting(ctx context.Context, coll *mongo.Collection, log *zap.Logger) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			log.Warn("failed to decode existing index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	existing, err := listExisting(ctx, coll, log)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := *m.Options.Name
		unique := boolVal(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}

		ex, found := existing[sig]
		switch {
		case found && boolVal(ex.Unique) == unique && ex.Name == name:
			log.Debug("reusing existing index", fields...)
			continue
		case found:
			// Same keys but a different name or uniqueness: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", append(fields, zap.String("existing", ex.Name), zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && wafflemongo.IsDup(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			log.Warn("index ensure failed", append(fields, zap.Error(err))...)
			continue
		}
		log.Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
