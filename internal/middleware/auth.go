// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenParser validates a raw bearer token and returns the user ID
// it was issued for.
type TokenParser interface {
	Parse(raw string) (string, error)
}

// Auth is a middleware that enforces bearer-token authentication.
//
// It expects an "Authorization: Bearer <token>" header, validates the
// token with the given parser, and stores the token's user ID in the
// request context so it can be used downstream as the authenticated
// caller identity. Requests without a valid token are rejected with
// 401 before any resource logic runs.
func Auth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "authentication credentials were not provided")
				return
			}
			if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				unauthorized(w, "invalid authorization header")
				return
			}

			raw := strings.TrimSpace(header[len("Bearer "):])
			userID, err := parser.Parse(raw)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the authenticated user ID from the
// request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// WithUserID returns a copy of ctx carrying the given user ID.
// Intended for tests and internal callers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
