package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/planit/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestIdentity returns a fresh caller identity for handler tests.
func TestIdentity(name string) *auth.Identity {
	return &auth.Identity{
		UserID: primitive.NewObjectID(),
		Name:   name,
		Email:  strings.ToLower(name) + "@test.com",
	}
}

// WithIdentity attaches id to the request context, bypassing token middleware.
func WithIdentity(r *http.Request, id *auth.Identity) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), id))
}

// GraphQLRequest builds a POST /graphql request. A non-empty token is sent
// as a bearer Authorization header.
func GraphQLRequest(t testing.TB, query string, vars map[string]any, token string) *http.Request {
	t.Helper()

	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		t.Fatalf("marshal graphql body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
