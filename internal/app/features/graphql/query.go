package graphql

import (
	"context"
	"errors"

	"github.com/dalemusser/planit/internal/app/system/authz"
	"github.com/dalemusser/planit/internal/app/system/timeouts"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (root *Resolver) MyFriends(ctx context.Context) (_ []*userResolver, err error) {
	defer root.track(ctx, "myFriends", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	friends, err := root.Users.MutualFriends(ctx, me.UserID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, authz.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return users(friends), nil
}

func (root *Resolver) MySchedules(ctx context.Context) (_ []*scheduleResolver, err error) {
	defer root.track(ctx, "mySchedules", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	list, err := root.Schedules.ListByUser(ctx, me.UserID)
	if err != nil {
		return nil, err
	}
	return root.schedules(list), nil
}

func (root *Resolver) MyPlans(ctx context.Context) (_ []*planResolver, err error) {
	defer root.track(ctx, "myPlans", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	list, err := root.Plans.ListByOwner(ctx, me.UserID)
	if err != nil {
		return nil, err
	}
	return root.plans(list), nil
}

func (root *Resolver) GetSchedule(ctx context.Context, args struct{ ID graphqlgo.ID }) (_ *scheduleResolver, err error) {
	defer root.track(ctx, "getSchedule", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(args.ID, MsgInvalidSchedule)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	s, err := root.Schedules.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(me, s.UserID); err != nil {
		return nil, err
	}
	return &scheduleResolver{s: *s, root: root}, nil
}

func (root *Resolver) GetPlans(ctx context.Context, args struct{ ID graphqlgo.ID }) (_ []*planResolver, err error) {
	defer root.track(ctx, "getPlans", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s, err := root.ownedSchedule(ctx, me, args.ID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	list, err := root.Plans.ListBySchedule(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return root.plans(list), nil
}

func (root *Resolver) GetPlansByUserIds(ctx context.Context, args struct{ Users []graphqlgo.ID }) (_ []*planResolver, err error) {
	defer root.track(ctx, "getPlansByUserIds", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]primitive.ObjectID, 0, len(args.Users))
	for _, raw := range args.Users {
		if raw == "" {
			targets = append(targets, me.UserID)
			continue
		}
		oid, err := parseID(raw, MsgInvalidUserID)
		if err != nil {
			return nil, err
		}
		targets = append(targets, oid)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	mutual, err := root.Users.MutualFriendIDs(ctx, me.UserID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelfOrFriends(me, mutual, targets); err != nil {
		return nil, err
	}
	list, err := root.Plans.ListByParticipants(ctx, targets)
	if err != nil {
		return nil, err
	}
	return root.plans(list), nil
}

func (root *Resolver) GetUsers(ctx context.Context, args struct{ Search *string }) (_ []*userResolver, err error) {
	defer root.track(ctx, "getUsers", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	q := ""
	if args.Search != nil {
		q = *args.Search
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	list, err := root.Users.Search(ctx, me.UserID, q)
	if err != nil {
		return nil, err
	}
	return users(list), nil
}
