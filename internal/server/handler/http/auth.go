// Package http provides the HTTP handlers and routing for the
// health-tracking API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avolkova/healthtrack/internal/models"
	"github.com/avolkova/healthtrack/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a new user from the registration input.
	Register(ctx context.Context, fullName, email, password string) (models.User, error)
	// Login verifies credentials and returns a bearer token.
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler handles HTTP requests for user registration and token issuance.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// TokenTTL is reported to clients as expires_in.
	TokenTTL time.Duration
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest represents the JSON payload for token issuance.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /users/register/ requests.
// On success it responds 201 with the created identity (no password).
// Validation problems come back as a 400 field-error map.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, verr.Fields)
			return
		}
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         user.ID,
		"full_name":  user.FullName,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}

// Token handles POST /auth/token/ requests, exchanging email and password
// for a short-lived bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeDetail(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(h.TokenTTL.Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
