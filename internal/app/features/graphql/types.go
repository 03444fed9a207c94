package graphql

import (
	"context"
	"time"

	"github.com/dalemusser/planit/internal/app/system/authz"
	"github.com/dalemusser/planit/internal/domain/models"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func ids(in []primitive.ObjectID) []graphqlgo.ID {
	out := make([]graphqlgo.ID, len(in))
	for i, id := range in {
		out[i] = graphqlgo.ID(id.Hex())
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

/*─────────────────────────────────────────────────────────────────────────────*
| User                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type userResolver struct {
	u models.User
}

func (r *userResolver) ID() graphqlgo.ID        { return graphqlgo.ID(r.u.ID.Hex()) }
func (r *userResolver) Name() string            { return r.u.Name }
func (r *userResolver) Email() string           { return r.u.Email }
func (r *userResolver) Avatar() *string         { return r.u.Avatar }
func (r *userResolver) Friends() []graphqlgo.ID { return ids(r.u.Friends) }

func users(in []models.User) []*userResolver {
	out := make([]*userResolver, len(in))
	for i := range in {
		out[i] = &userResolver{u: in[i]}
	}
	return out
}

type authUserResolver struct {
	user  *userResolver
	token string
}

func (r *authUserResolver) User() *userResolver { return r.user }
func (r *authUserResolver) Token() string       { return r.token }

/*─────────────────────────────────────────────────────────────────────────────*
| Schedule                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type scheduleResolver struct {
	s    models.Schedule
	root *Resolver
}

func (r *scheduleResolver) ID() graphqlgo.ID     { return graphqlgo.ID(r.s.ID.Hex()) }
func (r *scheduleResolver) UserID() graphqlgo.ID { return graphqlgo.ID(r.s.UserID.Hex()) }
func (r *scheduleResolver) Title() string        { return r.s.Title }
func (r *scheduleResolver) Color() *string       { return optional(r.s.Color) }
func (r *scheduleResolver) IsActive() bool       { return r.s.IsActive }
func (r *scheduleResolver) LastUpdated() string  { return formatTime(r.s.LastUpdated) }

// Plans goes through the request's batched loader. A schedule reached by a
// non-owner (through Plan.schedule on an invited or friend's plan) lists no
// plans.
func (r *scheduleResolver) Plans(ctx context.Context) (_ []*planResolver, err error) {
	defer func() { err = r.root.publicError(ctx, "Schedule.plans", err) }()

	caller, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if authz.RequireOwner(caller, r.s.UserID) != nil {
		return []*planResolver{}, nil
	}

	plans, err := r.root.plansForSchedule(ctx, r.s.ID)
	if err != nil {
		return nil, err
	}
	return r.root.plans(plans), nil
}

func (root *Resolver) schedules(in []models.Schedule) []*scheduleResolver {
	out := make([]*scheduleResolver, len(in))
	for i := range in {
		out[i] = &scheduleResolver{s: in[i], root: root}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Plan                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type planResolver struct {
	p    models.Plan
	root *Resolver
}

func (r *planResolver) ID() graphqlgo.ID         { return graphqlgo.ID(r.p.ID.Hex()) }
func (r *planResolver) Title() string            { return r.p.Title }
func (r *planResolver) Description() *string     { return optional(r.p.Description) }
func (r *planResolver) Start() string            { return formatTime(r.p.Start) }
func (r *planResolver) End() string              { return formatTime(r.p.End) }
func (r *planResolver) ScheduleID() graphqlgo.ID { return graphqlgo.ID(r.p.ScheduleID.Hex()) }
func (r *planResolver) UserIDs() []graphqlgo.ID  { return ids(r.p.UserIDs) }

// Schedule goes through the request's batched loader.
func (r *planResolver) Schedule(ctx context.Context) (_ *scheduleResolver, err error) {
	defer func() { err = r.root.publicError(ctx, "Plan.schedule", err) }()

	s, err := r.root.scheduleByID(ctx, r.p.ScheduleID)
	if err != nil {
		return nil, err
	}
	return &scheduleResolver{s: *s, root: r.root}, nil
}

func (root *Resolver) plans(in []models.Plan) []*planResolver {
	out := make([]*planResolver, len(in))
	for i := range in {
		out[i] = &planResolver{p: in[i], root: root}
	}
	return out
}
