package graphql

import (
	"context"
	"time"

	planstore "github.com/dalemusser/planit/internal/app/store/plans"
	schedulestore "github.com/dalemusser/planit/internal/app/store/schedules"
	"github.com/dalemusser/planit/internal/app/system/auth"
	"github.com/dalemusser/planit/internal/app/system/metrics"
	"github.com/dalemusser/planit/internal/app/system/normalize"
	"github.com/dalemusser/planit/internal/app/system/ratelimit"
	"github.com/dalemusser/planit/internal/domain/models"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserStore is the subset of userstore.Store the resolvers use.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistAll(ctx context.Context, ids []primitive.ObjectID) (bool, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	Search(ctx context.Context, excludeID primitive.ObjectID, query string) ([]models.User, error)
	MutualFriends(ctx context.Context, id primitive.ObjectID) ([]models.User, error)
	MutualFriendIDs(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error)
	AddFriendPair(ctx context.Context, a, b primitive.ObjectID) error
	RemoveFriendPair(ctx context.Context, a, b primitive.ObjectID) error
}

// ScheduleStore is the subset of schedulestore.Store the resolvers use.
type ScheduleStore interface {
	Create(ctx context.Context, s models.Schedule) (models.Schedule, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Schedule, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Schedule, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Schedule, error)
	Update(ctx context.Context, id primitive.ObjectID, upd schedulestore.Update) (models.Schedule, error)
	Touch(ctx context.Context, id primitive.ObjectID) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (models.Schedule, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// PlanStore is the subset of planstore.Store the resolvers use.
type PlanStore interface {
	Create(ctx context.Context, p models.Plan) (models.Plan, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error)
	ListBySchedule(ctx context.Context, scheduleID primitive.ObjectID) ([]models.Plan, error)
	ListBySchedules(ctx context.Context, scheduleIDs []primitive.ObjectID) ([]models.Plan, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Plan, error)
	ListByParticipants(ctx context.Context, userIDs []primitive.ObjectID) ([]models.Plan, error)
	Update(ctx context.Context, id primitive.ObjectID, upd planstore.Update) (models.Plan, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Resolver is the root of both the Query and Mutation types. Every
// dependency is passed in; nothing is read from package state.
type Resolver struct {
	Users     UserStore
	Schedules ScheduleStore
	Plans     PlanStore
	Tokens    *auth.TokenManager
	Limiter   *ratelimit.Limiter // nil disables sign-in/up rate limiting
	Log       *zap.Logger

	// LoaderWait overrides DefaultLoaderWait.
	LoaderWait time.Duration
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request-scoped helpers                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

type clientIPKey struct{}

func withClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// allow applies the per-IP limiter to unauthenticated entry points.
func (root *Resolver) allow(ctx context.Context, op string) error {
	if root.Limiter == nil {
		return nil
	}
	ip, _ := ctx.Value(clientIPKey{}).(string)
	if root.Limiter.Allow(op + "|" + ip) {
		return nil
	}
	metrics.RateLimited(op)
	return &Error{Code: CodeRateLimited, Message: MsgRateLimited}
}

// parseID converts a GraphQL ID to an ObjectID. A malformed ID is reported
// with msg, the same as a missing document.
func parseID(id graphqlgo.ID, msg string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, validation(msg)
	}
	return oid, nil
}

func parseIDs(in []graphqlgo.ID, msg string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(in))
	for _, id := range in {
		oid, err := parseID(id, msg)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return normalize.IDs(out), nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, validation(MsgInvalidRange)
	}
	return t.UTC(), nil
}
