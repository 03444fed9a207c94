package graphql

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/planit/internal/app/system/ratelimit"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/zap"
)

// DefaultMaxDepth bounds query nesting when no limit is configured.
const DefaultMaxDepth = 8

// Handler serves GraphQL over HTTP POST.
type Handler struct {
	Root  *Resolver
	Log   *zap.Logger
	relay *relay.Handler
}

// NewHandler parses the schema against root. It panics if the resolvers do
// not match the schema, which is a programming error caught at startup.
func NewHandler(root *Resolver, maxDepth int, logger *zap.Logger) *Handler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if root.Log == nil {
		root.Log = logger
	}
	schema := graphqlgo.MustParseSchema(Schema, root,
		graphqlgo.MaxDepth(maxDepth),
		graphqlgo.Logger(panicLogger{log: logger}),
	)
	return &Handler{Root: root, Log: logger, relay: &relay.Handler{Schema: schema}}
}

// ServeHTTP attaches per-request loaders and the client IP, then executes
// the operation.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := h.Root.withLoaders(r.Context())
	ctx = withClientIP(ctx, ratelimit.ClientIP(r))
	h.relay.ServeHTTP(w, r.WithContext(ctx))
}

// panicLogger routes resolver panics to zap. graphql-go recovers them and
// reports a generic error to the client.
type panicLogger struct {
	log *zap.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.log.Error("graphql resolver panic", zap.String("panic", fmt.Sprint(value)), zap.Stack("stack"))
}
