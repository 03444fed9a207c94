package bootstrap

import (
	"strings"
	"testing"
	"time"

	schedulestore "github.com/dalemusser/planit/internal/app/store/schedules"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:                "mongodb://localhost:27017",
		MongoDatabase:           "planit",
		MongoMaxPoolSize:        100,
		MongoMinPoolSize:        5,
		JWTSecret:               "a-production-grade-secret-of-40-characters",
		TokenTTL:                720 * time.Hour,
		ScheduleActivation:      schedulestore.ActivationMultiple,
		GraphQLMaxDepth:         8,
		AuthRatePerMinute:       10,
		AuthRateBurst:           5,
		FriendReconcileInterval: 10 * time.Minute,
		CORSAllowedOrigins:      []string{"*"},
	}
}

func TestValidateAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", "prod", func(*AppConfig) {}, ""},
		{"exclusive activation", "prod", func(c *AppConfig) { c.ScheduleActivation = schedulestore.ActivationExclusive }, ""},
		{"reconcile disabled", "prod", func(c *AppConfig) { c.FriendReconcileInterval = 0 }, ""},
		{"dev secret in dev", "dev", func(c *AppConfig) { c.JWTSecret = devJWTSecret }, ""},
		{"bad mongo uri", "dev", func(c *AppConfig) { c.MongoURI = "postgres://localhost:5432" }, "MongoDB URI"},
		{"blank database", "dev", func(c *AppConfig) { c.MongoDatabase = " " }, "mongo_database"},
		{"unknown activation", "dev", func(c *AppConfig) { c.ScheduleActivation = "single" }, "schedule_activation"},
		{"empty secret", "dev", func(c *AppConfig) { c.JWTSecret = "" }, "jwt_secret"},
		{"short secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = "short" }, "jwt_secret"},
		{"dev secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = devJWTSecret }, "jwt_secret"},
		{"zero ttl", "dev", func(c *AppConfig) { c.TokenTTL = 0 }, "token_ttl"},
		{"zero depth", "dev", func(c *AppConfig) { c.GraphQLMaxDepth = 0 }, "graphql_max_depth"},
		{"negative rate", "dev", func(c *AppConfig) { c.AuthRatePerMinute = -1 }, "rate"},
		{"negative interval", "dev", func(c *AppConfig) { c.FriendReconcileInterval = -time.Second }, "friend_reconcile_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := validateAppConfig(tt.env, cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error: got %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"*", []string{"*"}},
		{"https://a.example, https://b.example", []string{"https://a.example", "https://b.example"}},
		{" a ,, b ,", []string{"a", "b"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := splitList(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
