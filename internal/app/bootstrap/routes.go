// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	graphqlfeature "github.com/dalemusser/planit/internal/app/features/graphql"
	healthfeature "github.com/dalemusser/planit/internal/app/features/health"
	planstore "github.com/dalemusser/planit/internal/app/store/plans"
	schedulestore "github.com/dalemusser/planit/internal/app/store/schedules"
	userstore "github.com/dalemusser/planit/internal/app/store/users"
	"github.com/dalemusser/planit/internal/app/system/auth"
	"github.com/dalemusser/planit/internal/app/system/metrics"
	"github.com/dalemusser/planit/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for PlanIt.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. The stores, token manager and resolver
// root are built here from the shared Mongo database and handed to the
// GraphQL feature explicitly.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	tokens := auth.NewTokenManager(appCfg.JWTSecret, appCfg.TokenTTL)
	tokenAuth := auth.NewTokenAuth(tokens, userstore.NewFetcher(db), logger)

	var limiter *ratelimit.Limiter
	if appCfg.AuthRatePerMinute > 0 {
		limiter = ratelimit.New(appCfg.AuthRatePerMinute, appCfg.AuthRateBurst)
		if deps.bg != nil {
			deps.bg.limiter = limiter
		}
	}

	schedules := schedulestore.New(db, logger, appCfg.ScheduleActivation)
	root := &graphqlfeature.Resolver{
		Users:     userstore.New(db, logger),
		Schedules: schedules,
		Plans:     planstore.New(db),
		Tokens:    tokens,
		Limiter:   limiter,
		Log:       logger,
	}
	graphqlHandler := graphqlfeature.NewHandler(root, appCfg.GraphQLMaxDepth, logger)
	logger.Info("graphql endpoint configured",
		zap.String("schedule_activation", schedules.Activation()),
		zap.Duration("token_ttl", tokens.TTL()),
		zap.Bool("auth_rate_limit", limiter != nil),
		zap.Bool("trust_proxy_headers", appCfg.TrustProxyHeaders))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if appCfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler())

	// GraphQL: CORS for browser clients, then the optional bearer identity.
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: appCfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(tokenAuth.LoadTokenUser)
		r.Mount("/graphql", graphqlfeature.Routes(graphqlHandler))
	})

	return r, nil
}
