// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for PlanIt.
//
// Values come from environment variables (PLANIT_*), configuration files,
// or command-line flags, loaded in LoadConfig. Listen ports, TLS, log level
// and request limits belong to WAFFLE's CoreConfig, not here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret string        // HMAC signing key (at least 32 characters in prod)
	TokenTTL  time.Duration // lifetime of issued tokens

	// Schedules
	ScheduleActivation string // "multiple" or "exclusive"

	// GraphQL
	GraphQLMaxDepth int

	// Per-IP limiter on signUp/signIn
	AuthRatePerMinute int
	AuthRateBurst     int

	// When false the client IP is the connection's remote address and
	// forwarding headers are ignored.
	TrustProxyHeaders bool

	// Background friend-edge reconciliation (0 disables)
	FriendReconcileInterval time.Duration

	// Comma-separated list of allowed CORS origins
	CORSAllowedOrigins []string
}
