package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ukydev/fleetfix/internal/models"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// Service issues and validates the tokens this server hands to browsers.
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
}

// NewService creates a token service. An empty secret falls back to a
// development default.
func NewService(secret string, exp time.Duration) *Service {
	if secret == "" {
		secret = "default-secret-key-change-in-production"
	}
	if exp <= 0 {
		exp = 24 * time.Hour
	}
	return &Service{
		jwtSecret: []byte(secret),
		tokenExp:  exp,
	}
}

// TokenExpiry returns the lifetime of issued tokens.
func (s *Service) TokenExpiry() time.Duration {
	return s.tokenExp
}

// GenerateToken generates a JWT token for a session
func (s *Service) GenerateToken(session *models.Session) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    strconv.Itoa(session.User.ID),
		"username":   session.User.Username,
		"role":       string(session.User.Role),
		"session_id": session.ID,
		"exp":        now.Add(s.tokenExp).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// GenerateRefreshToken generates a refresh token
func (s *Service) GenerateRefreshToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok1 := claims["user_id"].(string)
	username, ok2 := claims["username"].(string)
	roleStr, ok3 := claims["role"].(string)
	sessionID, ok4 := claims["session_id"].(string)
	exp, ok5 := claims["exp"].(float64)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || sessionID == "" {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		UserID:    userID,
		Username:  username,
		Role:      models.Role(roleStr),
		SessionID: sessionID,
		Exp:       int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

// ValidatePassword validates password strength
func (s *Service) ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", ErrInvalidInput)
	}
	return nil
}

// ValidateUsername validates username format
func (s *Service) ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters long", ErrInvalidInput)
	}
	if len(username) > 50 {
		return fmt.Errorf("%w: username must be less than 50 characters", ErrInvalidInput)
	}
	return nil
}
