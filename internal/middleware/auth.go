package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetfix/internal/auth"
	"github.com/ukydev/fleetfix/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// Authenticator checks a bearer token against an open session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Claims, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
	}
}

// Authenticate validates JWT tokens and adds user context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for certain endpoints
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.authenticator.Authenticate(r.Context(), authHeader)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrExpiredToken):
			http.Error(w, "Token expired", http.StatusUnauthorized)
			return
		case errors.Is(err, auth.ErrInvalidToken):
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		default:
			log.WithError(err).Error("session lookup failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole middleware checks if the user has the required role
func (m *AuthMiddleware) RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(UserContextKey).(*models.Claims)
			if !ok {
				http.Error(w, "User context not found", http.StatusUnauthorized)
				return
			}

			if claims.Role != requiredRole && claims.Role != models.RoleAdmin {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	// register stays behind auth: only admins create accounts
	skipPaths := []string{
		"/api/auth/login",
		"/api/auth/refresh",
		"/health",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware provides basic rate limiting
type RateLimitMiddleware struct {
	requests map[string][]time.Time // IP -> request times
	mu       sync.Mutex
	now      func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// RateLimit allows maxRequests per client IP within window.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(getClientIP(r), maxRequests, window) {
				w.Header().Set("Retry-After", retryAfter(window))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(clientIP string, maxRequests int, window time.Duration) bool {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	var valid []time.Time
	for _, ts := range m.requests[clientIP] {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	if len(valid) >= maxRequests {
		m.requests[clientIP] = valid
		return false
	}
	m.requests[clientIP] = append(valid, now)
	return true
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
