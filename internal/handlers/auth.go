package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetfix/internal/auth"
	"github.com/ukydev/fleetfix/internal/middleware"
	"github.com/ukydev/fleetfix/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON")
	}
	return nil
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeBody(r, &loginReq); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	resp, err := h.auth.Login(r.Context(), loginReq)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, r, err)
		return
	}

	log.WithField("user", resp.User.Username).Info("user logged in")
	respondJSON(w, http.StatusOK, resp)
}

// Refresh issues a new token for a refresh token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	resp, err := h.auth.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Register creates an account on the remote API
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := decodeBody(r, &registerReq); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch registerReq.Role {
	case "", models.RoleUser, models.RoleAdmin:
	default:
		respondError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	user, err := h.auth.Register(r.Context(), registerReq)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Logout closes the caller's session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	if err := h.auth.Logout(r.Context(), claims.SessionID); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the current user's claims
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	respondJSON(w, http.StatusOK, claims)
}
