package models

import (
	"time"
)

// Role represents user roles issued by the remote auth API
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is the account returned by the remote auth API
type User struct {
	ID       int    `json:"id" bson:"id"`
	Username string `json:"username" bson:"username"`
	Role     Role   `json:"role" bson:"role"`
}

// Session links a BFF token to the remote access and refresh tokens
type Session struct {
	ID                 string    `bson:"_id" json:"id"`
	User               User      `bson:"user" json:"user"`
	DeviceID           string    `bson:"device_id" json:"device_id"`
	AccessToken        string    `bson:"access_token" json:"-"`
	RemoteRefreshToken string    `bson:"remote_refresh_token" json:"-"`
	RefreshToken       string    `bson:"refresh_token" json:"-"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DeviceID string `json:"device_id,omitempty"`
}

// RegisterRequest represents an account registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
	DisplayName  string `json:"display_name,omitempty"`
	IsMaster     bool   `json:"is_master"`
}

// Claims represents JWT claims
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	SessionID string `json:"session_id"`
	Exp       int64  `json:"exp"`
}
