package graphql

import (
	"context"
	"time"

	"github.com/dalemusser/planit/internal/app/system/timeouts"
	"github.com/dalemusser/planit/internal/domain/models"
	"github.com/graph-gophers/dataloader/v7"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultLoaderWait is how long a loader collects keys before it runs its
// batch query.
const DefaultLoaderWait = 2 * time.Millisecond

type loaders struct {
	plansBySchedule *dataloader.Loader[primitive.ObjectID, []models.Plan]
	scheduleByID    *dataloader.Loader[primitive.ObjectID, *models.Schedule]
}

type loadersKey struct{}

// withLoaders attaches fresh loaders to ctx. Loaders cache by key, so they
// live for exactly one request.
func (root *Resolver) withLoaders(ctx context.Context) context.Context {
	wait := root.LoaderWait
	if wait <= 0 {
		wait = DefaultLoaderWait
	}
	l := &loaders{
		plansBySchedule: dataloader.NewBatchedLoader(root.batchPlans,
			dataloader.WithWait[primitive.ObjectID, []models.Plan](wait)),
		scheduleByID: dataloader.NewBatchedLoader(root.batchSchedules,
			dataloader.WithWait[primitive.ObjectID, *models.Schedule](wait)),
	}
	return context.WithValue(ctx, loadersKey{}, l)
}

func loadersFrom(ctx context.Context) *loaders {
	l, _ := ctx.Value(loadersKey{}).(*loaders)
	return l
}

// plansForSchedule returns a schedule's plans, batched when loaders are
// attached to ctx.
func (root *Resolver) plansForSchedule(ctx context.Context, scheduleID primitive.ObjectID) ([]models.Plan, error) {
	if l := loadersFrom(ctx); l != nil {
		return l.plansBySchedule.Load(ctx, scheduleID)()
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	return root.Plans.ListBySchedule(ctx, scheduleID)
}

// scheduleByID returns one schedule, batched when loaders are attached to ctx.
func (root *Resolver) scheduleByID(ctx context.Context, id primitive.ObjectID) (*models.Schedule, error) {
	if l := loadersFrom(ctx); l != nil {
		return l.scheduleByID.Load(ctx, id)()
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	return root.Schedules.GetByID(ctx, id)
}

func (root *Resolver) batchPlans(ctx context.Context, keys []primitive.ObjectID) []*dataloader.Result[[]models.Plan] {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	results := make([]*dataloader.Result[[]models.Plan], len(keys))
	all, err := root.Plans.ListBySchedules(ctx, keys)
	if err != nil {
		for i := range results {
			results[i] = &dataloader.Result[[]models.Plan]{Error: err}
		}
		return results
	}

	grouped := make(map[primitive.ObjectID][]models.Plan, len(keys))
	for _, p := range all {
		grouped[p.ScheduleID] = append(grouped[p.ScheduleID], p)
	}
	for i, k := range keys {
		ps := grouped[k]
		if ps == nil {
			ps = []models.Plan{}
		}
		results[i] = &dataloader.Result[[]models.Plan]{Data: ps}
	}
	return results
}

func (root *Resolver) batchSchedules(ctx context.Context, keys []primitive.ObjectID) []*dataloader.Result[*models.Schedule] {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	results := make([]*dataloader.Result[*models.Schedule], len(keys))
	found, err := root.Schedules.GetByIDs(ctx, keys)
	if err != nil {
		for i := range results {
			results[i] = &dataloader.Result[*models.Schedule]{Error: err}
		}
		return results
	}

	byID := make(map[primitive.ObjectID]*models.Schedule, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	for i, k := range keys {
		if s, ok := byID[k]; ok {
			results[i] = &dataloader.Result[*models.Schedule]{Data: s}
		} else {
			results[i] = &dataloader.Result[*models.Schedule]{Error: mongo.ErrNoDocuments}
		}
	}
	return results
}
