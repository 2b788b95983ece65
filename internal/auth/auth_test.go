package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ukydev/fleetfix/internal/models"
)

func testSession() *models.Session {
	return &models.Session{
		ID:   "sess-1",
		User: models.User{ID: 42, Username: "team1", Role: models.RoleUser},
	}
}

func TestNewService(t *testing.T) {
	service := NewService("", 0)
	assert.NotNil(t, service)
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)

	service = NewService("s3cret", time.Hour)
	assert.Equal(t, []byte("s3cret"), service.jwtSecret)
	assert.Equal(t, time.Hour, service.TokenExpiry())
}

func TestService_ValidateToken(t *testing.T) {
	service := NewService("secret", time.Hour)
	session := testSession()

	token, err := service.GenerateToken(session)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "team1", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)

	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)

	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)

	// signed with another secret
	other, _ := NewService("other", time.Hour).GenerateToken(session)
	_, err = service.ValidateToken(other)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ExpiredToken(t *testing.T) {
	service := NewService("secret", time.Hour)
	service.tokenExp = -time.Minute

	token, err := service.GenerateToken(testSession())
	assert.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := NewService("", 0)

	tests := []struct {
		name   string
		header string
		token  string
		err    error
	}{
		{"valid header", "Bearer valid-token", "valid-token", nil},
		{"empty header", "", "", ErrInvalidToken},
		{"invalid format", "InvalidFormat", "", ErrInvalidToken},
		{"missing token", "Bearer ", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.ExtractTokenFromHeader(tt.header)
			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.token, got)
		})
	}
}

func TestService_ValidatePassword(t *testing.T) {
	service := NewService("", 0)

	assert.NoError(t, service.ValidatePassword("validpassword123"))

	err := service.ValidatePassword("short")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")
}

func TestService_ValidateUsername(t *testing.T) {
	service := NewService("", 0)

	assert.NoError(t, service.ValidateUsername("team1"))

	err := service.ValidateUsername("ab")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 3 characters")

	longUsername := ""
	for i := 0; i < 51; i++ {
		longUsername += "a"
	}
	err = service.ValidateUsername(longUsername)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "less than 50 characters")
}

func TestService_GenerateRefreshToken(t *testing.T) {
	service := NewService("", 0)

	token, err := service.GenerateRefreshToken()
	assert.NoError(t, err)
	assert.Len(t, token, 44) // base64 of 32 bytes

	again, _ := service.GenerateRefreshToken()
	assert.NotEqual(t, token, again)
}

func TestService_TokenExpiration(t *testing.T) {
	service := NewService("", 0)

	token, _ := service.GenerateToken(testSession())
	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)

	now := time.Now().Unix()
	assert.Greater(t, claims.Exp, now)
	assert.LessOrEqual(t, claims.Exp, now+int64(service.tokenExp.Seconds())+1)
}
