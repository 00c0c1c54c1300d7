package http

import (
	"net/http"

	"github.com/avolkova/healthtrack/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// health-tracking API. It applies JSON content-type enforcement and
// request logging, mounts the public registration and token endpoints,
// and mounts every resource handler behind bearer-token authentication.
//
// Parameters:
//
//	authHandler - handler for registration and token endpoints
//	resources   - one handler per resource kind (workouts, meals, steps)
//	parser      - validates bearer tokens for the auth middleware
//	logger      - structured logger for request logging middleware
//
// Routes:
//
//	POST /users/register/              → authHandler.Register
//	POST /auth/token/                  → authHandler.Token
//	*    /{kind}s/..., /{kind}-choices/ → resource handlers (protected)
func NewRouter(
	authHandler *AuthHandler,
	resources []*ResourceHandler,
	parser middleware.TokenParser,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Public endpoints
	r.Post("/users/register/", authHandler.Register)
	r.Post("/auth/token/", authHandler.Token)

	// Protected group: requires a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(parser))
		for _, resource := range resources {
			resource.Mount(r)
		}
	})

	return r
}
