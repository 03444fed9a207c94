package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/planit/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testDeps(t *testing.T) DBDeps {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return DBDeps{MongoClient: db.Client(), MongoDatabase: db, bg: &background{}}
}

func TestBuildHandler_Endpoints(t *testing.T) {
	deps := testDeps(t)
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validAppConfig(), deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	t.Cleanup(func() {
		if deps.bg.limiter != nil {
			deps.bg.limiter.Stop()
		}
	})
	if deps.bg.limiter == nil {
		t.Error("limiter not recorded for shutdown")
	}

	t.Run("health", func(t *testing.T) {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		rec.AssertStatus(t, http.StatusOK)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, "planit_http_requests_total")
	})

	t.Run("graphql signUp", func(t *testing.T) {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, testutil.GraphQLRequest(t,
			`mutation($in: SignUpInput!) { signUp(input: $in) { token user { email } } }`,
			map[string]any{"in": map[string]any{"email": "ada@example.com", "password": "pw", "name": "Ada"}},
			""))
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, `"token"`)
		rec.AssertContains(t, "ada@example.com")
	})

	t.Run("graphql without token", func(t *testing.T) {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, testutil.GraphQLRequest(t, `{ mySchedules { id } }`, nil, ""))
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, "UNAUTHENTICATED")
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin: got %q, want *", got)
		}
	})
}

func TestStartup_Reconciler(t *testing.T) {
	deps := testDeps(t)
	cfg := validAppConfig()
	core := &config.CoreConfig{Env: "dev"}

	cfg.FriendReconcileInterval = 0
	if err := Startup(context.Background(), core, cfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if deps.bg.reconciler != nil {
		t.Fatal("reconciler started while disabled")
	}

	obs, logs := observer.New(zapcore.InfoLevel)
	cfg.FriendReconcileInterval = validAppConfig().FriendReconcileInterval
	if err := Startup(context.Background(), core, cfg, deps, zap.New(obs)); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if deps.bg.reconciler == nil {
		t.Fatal("reconciler not recorded for shutdown")
	}
	deps.bg.reconciler.Stop()

	if n := logs.FilterMessage("friend reconciler started").Len(); n != 1 {
		t.Errorf("start logged %d times, want 1", n)
	}
}

func TestEnsureSchema(t *testing.T) {
	deps := testDeps(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core := &config.CoreConfig{Env: "dev"}
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, core, validAppConfig(), deps, zap.NewNop()); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}
}
