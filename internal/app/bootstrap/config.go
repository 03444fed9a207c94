// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	schedulestore "github.com/dalemusser/planit/internal/app/store/schedules"
	"github.com/dalemusser/planit/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minProdSecretLen is the shortest jwt_secret accepted when env=prod.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for PlanIt.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: PLANIT_MONGO_URI, PLANIT_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "planit", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},

	{Name: "jwt_secret", Default: devJWTSecret, Desc: "Bearer token signing key (must be strong in production)"},
	{Name: "token_ttl", Default: "720h", Desc: "Bearer token lifetime (e.g., 720h, 24h)"},

	{Name: "schedule_activation", Default: schedulestore.ActivationMultiple, Desc: "Schedule activation: 'multiple' or 'exclusive'"},
	{Name: "graphql_max_depth", Default: 8, Desc: "Maximum GraphQL query depth"},

	{Name: "auth_rate_per_minute", Default: 10, Desc: "signUp/signIn requests per minute per client IP (0 disables)"},
	{Name: "auth_rate_burst", Default: 5, Desc: "signUp/signIn burst per client IP"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a trusted proxy)"},

	{Name: "friend_reconcile_interval", Default: "10m", Desc: "How often one-sided friend edges are repaired (0 disables)"},

	{Name: "cors_allowed_origins", Default: "*", Desc: "Comma-separated CORS origins for /graphql"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, PLANIT_* for app) and flags,
// with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PLANIT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		TokenTTL:  appValues.Duration("token_ttl", auth.DefaultTokenTTL),

		ScheduleActivation: strings.ToLower(strings.TrimSpace(appValues.String("schedule_activation"))),
		GraphQLMaxDepth:    appValues.Int("graphql_max_depth"),

		AuthRatePerMinute: appValues.Int("auth_rate_per_minute"),
		AuthRateBurst:     appValues.Int("auth_rate_burst"),
		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),

		FriendReconcileInterval: appValues.Duration("friend_reconcile_interval", 10*time.Minute),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := validateAppConfig(coreCfg.Env, appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	if appCfg.JWTSecret == devJWTSecret {
		logger.Warn("using the development jwt_secret; set PLANIT_JWT_SECRET")
	}
	return nil
}

func validateAppConfig(env string, appCfg AppConfig) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if !schedulestore.ValidActivation(appCfg.ScheduleActivation) {
		return fmt.Errorf("schedule_activation %q: %w", appCfg.ScheduleActivation, schedulestore.ErrBadActivation)
	}
	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if env == "prod" && (len(appCfg.JWTSecret) < minProdSecretLen || appCfg.JWTSecret == devJWTSecret) {
		return fmt.Errorf("jwt_secret must be at least %d characters and not the development default in prod", minProdSecretLen)
	}
	if appCfg.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	if appCfg.GraphQLMaxDepth < 1 {
		return fmt.Errorf("graphql_max_depth must be at least 1")
	}
	if appCfg.AuthRatePerMinute < 0 || appCfg.AuthRateBurst < 0 {
		return fmt.Errorf("auth rate limits must not be negative")
	}
	if appCfg.FriendReconcileInterval < 0 {
		return fmt.Errorf("friend_reconcile_interval must not be negative")
	}
	return nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
