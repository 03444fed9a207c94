// internal/app/system/workers/friendreconcile.go
package workers

import (
	"context"
	"sync"
	"time"

	userstore "github.com/dalemusser/planit/internal/app/store/users"
	"github.com/dalemusser/planit/internal/app/system/metrics"
	"github.com/dalemusser/planit/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// EdgeRepairer finds and prunes one-sided friend edges.
type EdgeRepairer interface {
	OneSidedEdges(ctx context.Context) ([]userstore.Edge, error)
	PruneEdge(ctx context.Context, e userstore.Edge) (bool, error)
}

// FriendReconciler is a background worker that heals asymmetric friend
// edges. An edge listed on only one side is pruned: friendship needs both
// users, and adding a friend again is idempotent.
type FriendReconciler struct {
	users    EdgeRepairer
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewFriendReconciler creates a reconciler running every interval.
func NewFriendReconciler(users EdgeRepairer, logger *zap.Logger, interval time.Duration) *FriendReconciler {
	return &FriendReconciler{
		users:    users,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *FriendReconciler) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("friend reconciler started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *FriendReconciler) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("friend reconciler stopped")
}

func (w *FriendReconciler) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Long(), w.log, "friend reconcile")
			w.RunOnce(ctx)
			cancel()
		}
	}
}

// RunOnce performs one reconciliation pass and returns how many edges were
// pruned.
func (w *FriendReconciler) RunOnce(ctx context.Context) int {
	edges, err := w.users.OneSidedEdges(ctx)
	if err != nil {
		w.log.Error("failed to scan friend edges", zap.Error(err))
		return 0
	}

	healed := 0
	for _, e := range edges {
		pruned, err := w.users.PruneEdge(ctx, e)
		if err != nil {
			w.log.Warn("failed to prune friend edge",
				zap.String("from", e.From.Hex()),
				zap.String("to", e.To.Hex()),
				zap.Error(err))
			continue
		}
		if pruned {
			healed++
			w.log.Info("pruned one-sided friend edge",
				zap.String("from", e.From.Hex()),
				zap.String("to", e.To.Hex()))
		}
	}
	metrics.FriendEdgesHealed(healed)
	return healed
}
