package graphql_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	planstore "github.com/dalemusser/planit/internal/app/store/plans"
	schedulestore "github.com/dalemusser/planit/internal/app/store/schedules"
	userstore "github.com/dalemusser/planit/internal/app/store/users"
	"github.com/dalemusser/planit/internal/app/system/auth"
	"github.com/dalemusser/planit/internal/app/system/normalize"
	"github.com/dalemusser/planit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memDB is an in-memory stand-in for the three collections. It mirrors the
// store semantics the resolvers rely on.
type memDB struct {
	mu         sync.Mutex
	users      map[primitive.ObjectID]models.User
	schedules  map[primitive.ObjectID]models.Schedule
	plans      map[primitive.ObjectID]models.Plan
	activation string

	planBatches     int
	planSingles     int
	scheduleBatches int
}

func newMemDB(activation string) *memDB {
	return &memDB{
		users:      map[primitive.ObjectID]models.User{},
		schedules:  map[primitive.ObjectID]models.Schedule{},
		plans:      map[primitive.ObjectID]models.Plan{},
		activation: activation,
	}
}

func ts() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func cloneIDs(in []primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{}, in...)
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| Users                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type memUsers struct{ db *memDB }

func (s memUsers) copyUser(u models.User) *models.User {
	u.Friends = cloneIDs(u.Friends)
	return &u
}

func (s memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return s.copyUser(u), nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == normalize.Email(email) {
			return s.copyUser(u), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s memUsers) ExistAll(_ context.Context, ids []primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.db.users[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s memUsers) Create(_ context.Context, u models.User) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u.Email = normalize.Email(u.Email)
	for _, other := range s.db.users {
		if other.Email == u.Email {
			return models.User{}, userstore.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	u.NameCI = strings.ToLower(u.Name)
	u.Friends = []primitive.ObjectID{}
	u.CreatedAt, u.UpdatedAt = ts(), ts()
	s.db.users[u.ID] = u
	return *s.copyUser(u), nil
}

func (s memUsers) Search(_ context.Context, excludeID primitive.ObjectID, query string) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.User{}
	for _, u := range s.db.users {
		if u.ID == excludeID || !strings.Contains(u.NameCI, q) {
			continue
		}
		out = append(out, *s.copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameCI < out[j].NameCI })
	return out, nil
}

func (s memUsers) MutualFriends(_ context.Context, id primitive.ObjectID) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	me, ok := s.db.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := []models.User{}
	for _, fid := range me.Friends {
		f, ok := s.db.users[fid]
		if ok && contains(f.Friends, id) {
			out = append(out, *s.copyUser(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameCI < out[j].NameCI })
	return out, nil
}

func (s memUsers) MutualFriendIDs(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	friends, err := s.MutualFriends(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, len(friends))
	for i, f := range friends {
		out[i] = f.ID
	}
	return out, nil
}

func (s memUsers) AddFriendPair(_ context.Context, a, b primitive.ObjectID) error {
	return s.pair(a, b, func(list []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
		if contains(list, id) {
			return list
		}
		return append(list, id)
	})
}

func (s memUsers) RemoveFriendPair(_ context.Context, a, b primitive.ObjectID) error {
	return s.pair(a, b, func(list []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
		out := []primitive.ObjectID{}
		for _, x := range list {
			if x != id {
				out = append(out, x)
			}
		}
		return out
	})
}

func (s memUsers) pair(a, b primitive.ObjectID, op func([]primitive.ObjectID, primitive.ObjectID) []primitive.ObjectID) error {
	if a == b {
		return userstore.ErrSelfFriend
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ua, okA := s.db.users[a]
	ub, okB := s.db.users[b]
	if !okA || !okB {
		return userstore.ErrNotFound
	}
	ua.Friends = op(ua.Friends, b)
	ub.Friends = op(ub.Friends, a)
	s.db.users[a], s.db.users[b] = ua, ub
	return nil
}

// FetchUser makes memUsers an auth.UserFetcher for the token middleware.
func (s memUsers) FetchUser(ctx context.Context, userID string) *auth.Identity {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	u, err := s.GetByID(ctx, oid)
	if err != nil {
		return nil
	}
	return &auth.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Schedules                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type memSchedules struct{ db *memDB }

func (s memSchedules) Create(_ context.Context, sc models.Schedule) (models.Schedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc.ID = primitive.NewObjectID()
	sc.CreatedAt = ts()
	sc.LastUpdated = sc.CreatedAt
	if sc.IsActive && s.db.activation == schedulestore.ActivationExclusive {
		s.deactivateOthers(sc.UserID, sc.ID)
	}
	s.db.schedules[sc.ID] = sc
	return sc, nil
}

func (s memSchedules) GetByID(_ context.Context, id primitive.ObjectID) (*models.Schedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc, ok := s.db.schedules[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &sc, nil
}

func (s memSchedules) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Schedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.scheduleBatches++
	out := []models.Schedule{}
	for _, id := range ids {
		if sc, ok := s.db.schedules[id]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s memSchedules) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Schedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Schedule{}
	for _, sc := range s.db.schedules {
		if sc.UserID == userID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (s memSchedules) Update(_ context.Context, id primitive.ObjectID, upd schedulestore.Update) (models.Schedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc, ok := s.db.schedules[id]
	if !ok {
		return models.Schedule{}, mongo.ErrNoDocuments
	}
	if upd.Title != nil {
		sc.Title = *upd.Title
	}
	if upd.Color != nil {
		sc.Color = *upd.Color
	}
	sc.LastUpdated = ts()
	s.db.schedules[id] = sc
	return sc, nil
}

func (s memSchedules) Touch(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if sc, ok := s.db.schedules[id]; ok {
		sc.LastUpdated = ts()
		s.db.schedules[id] = sc
	}
	return nil
}

func (s memSchedules) SetActive(_ context.Context, id primitive.ObjectID, active bool) (models.Schedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc, ok := s.db.schedules[id]
	if !ok {
		return models.Schedule{}, mongo.ErrNoDocuments
	}
	sc.IsActive = active
	sc.LastUpdated = ts()
	s.db.schedules[id] = sc
	if active && s.db.activation == schedulestore.ActivationExclusive {
		s.deactivateOthers(sc.UserID, sc.ID)
	}
	return sc, nil
}

func (s memSchedules) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.schedules[id]; !ok {
		return false, nil
	}
	for pid, p := range s.db.plans {
		if p.ScheduleID == id {
			delete(s.db.plans, pid)
		}
	}
	delete(s.db.schedules, id)
	return true, nil
}

func (s memSchedules) deactivateOthers(userID, keep primitive.ObjectID) {
	for id, sc := range s.db.schedules {
		if sc.UserID == userID && id != keep && sc.IsActive {
			sc.IsActive = false
			s.db.schedules[id] = sc
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Plans                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type memPlans struct{ db *memDB }

func (s memPlans) filter(keep func(models.Plan) bool) []models.Plan {
	out := []models.Plan{}
	for _, p := range s.db.plans {
		if keep(p) {
			p.UserIDs = cloneIDs(p.UserIDs)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (s memPlans) Create(_ context.Context, p models.Plan) (models.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p.End.Before(p.Start) {
		return models.Plan{}, planstore.ErrBadRange
	}
	p.ID = primitive.NewObjectID()
	p.UserIDs = normalize.IDs(p.UserIDs)
	p.CreatedAt, p.UpdatedAt = ts(), ts()
	s.db.plans[p.ID] = p
	return p, nil
}

func (s memPlans) GetByID(_ context.Context, id primitive.ObjectID) (*models.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.plans[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &p, nil
}

func (s memPlans) ListBySchedule(_ context.Context, scheduleID primitive.ObjectID) ([]models.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.planSingles++
	return s.filter(func(p models.Plan) bool { return p.ScheduleID == scheduleID }), nil
}

func (s memPlans) ListBySchedules(_ context.Context, ids []primitive.ObjectID) ([]models.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.planBatches++
	return s.filter(func(p models.Plan) bool { return contains(ids, p.ScheduleID) }), nil
}

func (s memPlans) ListByOwner(_ context.Context, ownerID primitive.ObjectID) ([]models.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.filter(func(p models.Plan) bool { return p.OwnerID == ownerID }), nil
}

func (s memPlans) ListByParticipants(_ context.Context, ids []primitive.ObjectID) ([]models.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.filter(func(p models.Plan) bool {
		if contains(ids, p.OwnerID) {
			return true
		}
		for _, u := range p.UserIDs {
			if contains(ids, u) {
				return true
			}
		}
		return false
	}), nil
}

func (s memPlans) Update(_ context.Context, id primitive.ObjectID, upd planstore.Update) (models.Plan, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.plans[id]
	if !ok {
		return models.Plan{}, mongo.ErrNoDocuments
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Start != nil {
		p.Start = *upd.Start
	}
	if upd.End != nil {
		p.End = *upd.End
	}
	if p.End.Before(p.Start) {
		return models.Plan{}, planstore.ErrBadRange
	}
	if upd.UserIDs != nil {
		p.UserIDs = normalize.IDs(*upd.UserIDs)
	}
	p.UpdatedAt = ts()
	s.db.plans[id] = p
	return p, nil
}

func (s memPlans) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.plans[id]; !ok {
		return false, nil
	}
	delete(s.db.plans, id)
	return true, nil
}
