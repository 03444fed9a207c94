package graphql

import (
	"context"
	"errors"
	"strings"

	planstore "github.com/dalemusser/planit/internal/app/store/plans"
	schedulestore "github.com/dalemusser/planit/internal/app/store/schedules"
	userstore "github.com/dalemusser/planit/internal/app/store/users"
	"github.com/dalemusser/planit/internal/app/system/auth"
	"github.com/dalemusser/planit/internal/app/system/authz"
	"github.com/dalemusser/planit/internal/app/system/htmlsanitize"
	"github.com/dalemusser/planit/internal/app/system/normalize"
	"github.com/dalemusser/planit/internal/app/system/timeouts"
	"github.com/dalemusser/planit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type signUpInput struct {
	Email    string
	Password string
	Name     string
	Avatar   *string
}

type signInInput struct {
	Email    string
	Password string
}

/*─────────────────────────────────────────────────────────────────────────────*
| Accounts                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (root *Resolver) SignUp(ctx context.Context, args struct{ Input signUpInput }) (_ *authUserResolver, err error) {
	defer root.track(ctx, "signUp", &err)

	if err := root.allow(ctx, "signUp"); err != nil {
		return nil, err
	}
	in := args.Input
	email := normalize.Email(in.Email)
	name := normalize.Name(htmlsanitize.PlainText(in.Name))
	switch {
	case email == "":
		return nil, validation("Email is required")
	case !validate.SimpleEmailValid(email):
		return nil, validation(MsgInvalidEmail)
	case in.Password == "":
		return nil, validation("Password is required")
	case name == "":
		return nil, validation("Name is required")
	}
	var avatar *string
	if in.Avatar != nil {
		avatar = optional(strings.TrimSpace(*in.Avatar))
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := root.Users.Create(ctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Avatar:       avatar,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return nil, validation(MsgEmailTaken)
	}
	if err != nil {
		return nil, err
	}
	root.Log.Info("user signed up", zap.String("user_id", u.ID.Hex()))
	return root.authUser(u)
}

func (root *Resolver) SignIn(ctx context.Context, args struct{ Input signInInput }) (_ *authUserResolver, err error) {
	defer root.track(ctx, "signIn", &err)

	if err := root.allow(ctx, "signIn"); err != nil {
		return nil, err
	}
	email := normalize.Email(args.Input.Email)
	if email == "" || args.Input.Password == "" {
		return nil, credentials()
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := root.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, credentials()
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, args.Input.Password) {
		return nil, credentials()
	}
	return root.authUser(*u)
}

func (root *Resolver) authUser(u models.User) (*authUserResolver, error) {
	token, err := root.Tokens.Issue(u.ID.Hex())
	if err != nil {
		return nil, err
	}
	return &authUserResolver{user: &userResolver{u: u}, token: token}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Friends                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (root *Resolver) AddFriend(ctx context.Context, args struct{ FriendID graphqlgo.ID }) (_ *userResolver, err error) {
	defer root.track(ctx, "addFriend", &err)
	return root.writeFriend(ctx, args.FriendID, root.Users.AddFriendPair)
}

func (root *Resolver) DeleteFriend(ctx context.Context, args struct{ FriendID graphqlgo.ID }) (_ *userResolver, err error) {
	defer root.track(ctx, "deleteFriend", &err)
	return root.writeFriend(ctx, args.FriendID, root.Users.RemoveFriendPair)
}

// writeFriend validates the target before running a paired friend write and
// returns the target as it is afterwards.
func (root *Resolver) writeFriend(ctx context.Context, rawID graphqlgo.ID, write func(ctx context.Context, a, b primitive.ObjectID) error) (*userResolver, error) {
	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	friendID, err := parseID(rawID, MsgInvalidUserID)
	if err != nil {
		return nil, err
	}
	if friendID == me.UserID {
		return nil, validation("Cannot befriend yourself")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if _, err := root.Users.GetByID(ctx, friendID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, validation(MsgInvalidUserID)
		}
		return nil, err
	}
	if err := write(ctx, me.UserID, friendID); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, validation(MsgInvalidUserID)
		}
		return nil, err
	}
	friend, err := root.Users.GetByID(ctx, friendID)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: *friend}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Schedules                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type createScheduleArgs struct {
	Title    string
	Color    *string
	IsActive *bool
}

func (root *Resolver) CreateSchedule(ctx context.Context, args createScheduleArgs) (_ *scheduleResolver, err error) {
	defer root.track(ctx, "createSchedule", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	title := htmlsanitize.PlainText(args.Title)
	if title == "" {
		return nil, validation("Title is required")
	}
	s := models.Schedule{UserID: me.UserID, Title: title}
	if args.Color != nil {
		s.Color = normalize.Color(htmlsanitize.PlainText(*args.Color))
	}
	if args.IsActive != nil {
		s.IsActive = *args.IsActive
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	created, err := root.Schedules.Create(ctx, s)
	if err != nil {
		return nil, err
	}
	return &scheduleResolver{s: created, root: root}, nil
}

type updateScheduleArgs struct {
	ID    graphqlgo.ID
	Title *string
	Color *string
}

func (root *Resolver) UpdateSchedule(ctx context.Context, args updateScheduleArgs) (_ *scheduleResolver, err error) {
	defer root.track(ctx, "updateSchedule", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s, err := root.ownedSchedule(ctx, me, args.ID)
	if err != nil {
		return nil, err
	}

	var upd schedulestore.Update
	if args.Title != nil {
		title := htmlsanitize.PlainText(*args.Title)
		if title == "" {
			return nil, validation("Title is required")
		}
		upd.Title = &title
	}
	if args.Color != nil {
		color := normalize.Color(htmlsanitize.PlainText(*args.Color))
		upd.Color = &color
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	updated, err := root.Schedules.Update(ctx, s.ID, upd)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, validation(MsgInvalidSchedule)
	}
	if err != nil {
		return nil, err
	}
	return &scheduleResolver{s: updated, root: root}, nil
}

func (root *Resolver) DeleteSchedule(ctx context.Context, args struct{ ID graphqlgo.ID }) (_ bool, err error) {
	defer root.track(ctx, "deleteSchedule", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return false, err
	}
	s, err := root.ownedSchedule(ctx, me, args.ID)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	return root.Schedules.Delete(ctx, s.ID)
}

type setActiveArgs struct {
	ID       graphqlgo.ID
	IsActive bool
}

func (root *Resolver) SetActive(ctx context.Context, args setActiveArgs) (_ *scheduleResolver, err error) {
	defer root.track(ctx, "setActive", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s, err := root.ownedSchedule(ctx, me, args.ID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	updated, err := root.Schedules.SetActive(ctx, s.ID, args.IsActive)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, validation(MsgInvalidSchedule)
	}
	if err != nil {
		return nil, err
	}
	return &scheduleResolver{s: updated, root: root}, nil
}

// ownedSchedule loads a schedule the caller owns. A malformed or unknown ID
// is a validation error; someone else's schedule is forbidden.
func (root *Resolver) ownedSchedule(ctx context.Context, me *auth.Identity, raw graphqlgo.ID) (*models.Schedule, error) {
	id, err := parseID(raw, MsgInvalidSchedule)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	s, err := root.Schedules.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, validation(MsgInvalidSchedule)
	}
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(me, s.UserID); err != nil {
		return nil, err
	}
	return s, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Plans                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type createPlanArgs struct {
	Title       string
	Description *string
	Start       string
	End         string
	ScheduleID  graphqlgo.ID
	Users       *[]graphqlgo.ID
}

func (root *Resolver) CreatePlan(ctx context.Context, args createPlanArgs) (_ *planResolver, err error) {
	defer root.track(ctx, "createPlan", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	title := htmlsanitize.PlainText(args.Title)
	if title == "" {
		return nil, validation("Title is required")
	}
	start, err := parseTime(args.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseTime(args.End)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, validation(MsgInvalidRange)
	}
	s, err := root.ownedSchedule(ctx, me, args.ScheduleID)
	if err != nil {
		return nil, err
	}
	invitees := []primitive.ObjectID{}
	if args.Users != nil {
		if invitees, err = root.existingUsers(ctx, *args.Users); err != nil {
			return nil, err
		}
	}

	p := models.Plan{
		ScheduleID: s.ID,
		OwnerID:    s.UserID,
		Title:      title,
		Start:      start,
		End:        end,
		UserIDs:    invitees,
	}
	if args.Description != nil {
		p.Description = htmlsanitize.PlainText(*args.Description)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	created, err := root.Plans.Create(ctx, p)
	if errors.Is(err, planstore.ErrBadRange) {
		return nil, validation(MsgInvalidRange)
	}
	if err != nil {
		return nil, err
	}
	root.touch(ctx, s.ID)
	return &planResolver{p: created, root: root}, nil
}

type updatePlanArgs struct {
	ID          graphqlgo.ID
	Title       *string
	Description *string
	Start       *string
	End         *string
	Users       *[]graphqlgo.ID
}

func (root *Resolver) UpdatePlan(ctx context.Context, args updatePlanArgs) (_ *planResolver, err error) {
	defer root.track(ctx, "updatePlan", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	p, err := root.ownedPlan(ctx, me, args.ID)
	if err != nil {
		return nil, err
	}

	var upd planstore.Update
	if args.Title != nil {
		title := htmlsanitize.PlainText(*args.Title)
		if title == "" {
			return nil, validation("Title is required")
		}
		upd.Title = &title
	}
	if args.Description != nil {
		desc := htmlsanitize.PlainText(*args.Description)
		upd.Description = &desc
	}
	if args.Start != nil {
		t, err := parseTime(*args.Start)
		if err != nil {
			return nil, err
		}
		upd.Start = &t
	}
	if args.End != nil {
		t, err := parseTime(*args.End)
		if err != nil {
			return nil, err
		}
		upd.End = &t
	}
	if args.Users != nil {
		invitees, err := root.existingUsers(ctx, *args.Users)
		if err != nil {
			return nil, err
		}
		upd.UserIDs = &invitees
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	updated, err := root.Plans.Update(ctx, p.ID, upd)
	switch {
	case errors.Is(err, planstore.ErrBadRange):
		return nil, validation(MsgInvalidRange)
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, validation(MsgInvalidPlan)
	case err != nil:
		return nil, err
	}
	root.touch(ctx, p.ScheduleID)
	return &planResolver{p: updated, root: root}, nil
}

func (root *Resolver) DeletePlan(ctx context.Context, args struct{ ID graphqlgo.ID }) (_ bool, err error) {
	defer root.track(ctx, "deletePlan", &err)

	me, err := authz.RequireIdentity(ctx)
	if err != nil {
		return false, err
	}
	p, err := root.ownedPlan(ctx, me, args.ID)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	ok, err := root.Plans.Delete(ctx, p.ID)
	if err != nil {
		return false, err
	}
	if ok {
		root.touch(ctx, p.ScheduleID)
	}
	return ok, nil
}

func (root *Resolver) ownedPlan(ctx context.Context, me *auth.Identity, raw graphqlgo.ID) (*models.Plan, error) {
	id, err := parseID(raw, MsgInvalidPlan)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	p, err := root.Plans.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, validation(MsgInvalidPlan)
	}
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(me, p.OwnerID); err != nil {
		return nil, err
	}
	return p, nil
}

// existingUsers parses and de-duplicates invitee IDs and checks that every
// one belongs to a user.
func (root *Resolver) existingUsers(ctx context.Context, raw []graphqlgo.ID) ([]primitive.ObjectID, error) {
	oids, err := parseIDs(raw, MsgInvalidUserID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	ok, err := root.Users.ExistAll(ctx, oids)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, validation(MsgInvalidUserID)
	}
	return oids, nil
}

// touch refreshes a schedule's last_updated after a plan write. The plan
// write has already succeeded, so a failure here is only logged.
func (root *Resolver) touch(ctx context.Context, scheduleID primitive.ObjectID) {
	if err := root.Schedules.Touch(ctx, scheduleID); err != nil {
		root.Log.Warn("failed to refresh schedule last_updated",
			zap.String("schedule_id", scheduleID.Hex()),
			zap.Error(err))
	}
}

