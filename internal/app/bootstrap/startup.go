// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/planit/internal/app/store/users"
	"github.com/dalemusser/planit/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after DB connection and schema setup and before the handler
// is built. It starts the friend-edge reconciler unless it is disabled.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.FriendReconcileInterval <= 0 {
		logger.Info("friend reconciliation disabled")
		return nil
	}
	users := userstore.New(deps.MongoDatabase, logger)
	r := workers.NewFriendReconciler(users, logger, appCfg.FriendReconcileInterval)
	r.Start()
	if deps.bg != nil {
		deps.bg.reconciler = r
	}
	return nil
}
