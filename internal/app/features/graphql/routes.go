package graphql

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter that serves the GraphQL endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeHTTP) // mounted under /graphql
	return r
}
