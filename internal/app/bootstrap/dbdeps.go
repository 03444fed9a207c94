// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/planit/internal/app/system/ratelimit"
	"github.com/dalemusser/planit/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// bg is filled in by Startup and BuildHandler and torn down by Shutdown.
	// Hooks receive DBDeps by value, so it is shared through a pointer.
	bg *background
}

type background struct {
	reconciler *workers.FriendReconciler
	limiter    *ratelimit.Limiter
}
