package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/models"
)

// RemoteAuth is the upstream account API.
type RemoteAuth interface {
	Login(ctx context.Context, username, password, deviceID string) (*api.Tokens, error)
	Refresh(ctx context.Context, refreshToken, deviceID string) (*api.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}

// Directory describes users beyond what the auth API knows.
type Directory interface {
	IsMaster(username string) bool
	DisplayName(username string) string
}

// Manager ties browser sessions to remote API tokens. Browsers only ever
// see this server's JWT; remote tokens stay in the SessionStore.
type Manager struct {
	tokens    *Service
	remote    RemoteAuth
	store     SessionStore
	directory Directory
	refreshes singleflight.Group
	now       func() time.Time
	log       *log.Entry
}

// NewManager creates a session manager. directory may be nil.
func NewManager(tokens *Service, remote RemoteAuth, store SessionStore, directory Directory) *Manager {
	return &Manager{
		tokens:    tokens,
		remote:    remote,
		store:     store,
		directory: directory,
		now:       time.Now,
		log:       log.WithField("component", "auth"),
	}
}

// Service returns the token service.
func (m *Manager) Service() *Service {
	return m.tokens
}

// Login authenticates against the remote API and opens a session.
func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	remote, err := m.remote.Login(ctx, username, req.Password, deviceID)
	if err != nil {
		if api.IsStatus(err, http.StatusUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	refresh, err := m.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	now := m.now()
	user := remote.User
	if user.Username == "" {
		user.Username = username
	}
	session := models.Session{
		ID:                 uuid.NewString(),
		User:               user,
		DeviceID:           deviceID,
		AccessToken:        remote.AccessToken,
		RemoteRefreshToken: remote.RefreshToken,
		RefreshToken:       refresh,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	m.log.WithFields(log.Fields{"username": user.Username, "session_id": session.ID}).Info("user logged in")
	return m.response(&session)
}

// RefreshSession exchanges a BFF refresh token for a new JWT and rotates it.
func (m *Manager) RefreshSession(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	session, err := m.store.FindSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	next, err := m.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	session.RefreshToken = next
	session.UpdatedAt = m.now()
	if err := m.store.UpdateSession(ctx, *session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return m.response(session)
}

// Logout revokes the remote refresh token, best effort, and ends the session.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	session, err := m.store.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if session.RemoteRefreshToken != "" {
		if err := m.remote.Logout(ctx, session.RemoteRefreshToken); err != nil {
			m.log.WithError(err).WithField("session_id", sessionID).Warn("remote logout failed")
		}
	}
	m.log.WithFields(log.Fields{"username": session.User.Username, "session_id": sessionID}).Info("user logged out")
	return m.store.DeleteSession(ctx, sessionID)
}

// Register creates a remote account after local validation.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := m.tokens.ValidateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := m.tokens.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	return m.remote.Register(ctx, req)
}

// Authenticate validates a JWT and checks that its session is still open.
func (m *Manager) Authenticate(ctx context.Context, token string) (*models.Claims, error) {
	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if _, err := m.store.FindSession(ctx, claims.SessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return claims, nil
}

// TokenSource returns the remote token source for a session.
func (m *Manager) TokenSource(sessionID string) api.TokenSource {
	return &sessionTokens{m: m, sessionID: sessionID}
}

func (m *Manager) response(session *models.Session) (*models.LoginResponse, error) {
	token, err := m.tokens.GenerateToken(session)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	resp := &models.LoginResponse{
		Token:        token,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int64(m.tokens.TokenExpiry().Seconds()),
		User:         session.User,
	}
	if m.directory != nil {
		resp.DisplayName = m.directory.DisplayName(session.User.Username)
		resp.IsMaster = m.directory.IsMaster(session.User.Username)
	}
	return resp, nil
}

// refreshRemote renews the remote access token once per session even when
// several requests hit a 401 together. A failed refresh ends the session.
func (m *Manager) refreshRemote(ctx context.Context, sessionID string) (string, error) {
	ctx = context.WithoutCancel(ctx)
	v, err, _ := m.refreshes.Do(sessionID, func() (any, error) {
		session, err := m.store.FindSession(ctx, sessionID)
		if err != nil {
			return "", err
		}
		tokens, err := m.remote.Refresh(ctx, session.RemoteRefreshToken, session.DeviceID)
		if err != nil {
			m.log.WithError(err).WithField("session_id", sessionID).Warn("remote refresh failed, signing out")
			if derr := m.store.DeleteSession(ctx, sessionID); derr != nil {
				m.log.WithError(derr).Error("failed to delete session")
			}
			return "", err
		}
		session.AccessToken = tokens.AccessToken
		if tokens.RefreshToken != "" {
			session.RemoteRefreshToken = tokens.RefreshToken
		}
		session.UpdatedAt = m.now()
		if err := m.store.UpdateSession(ctx, *session); err != nil {
			return "", err
		}
		return tokens.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type sessionTokens struct {
	m         *Manager
	sessionID string
}

func (t *sessionTokens) Token(ctx context.Context) (string, error) {
	session, err := t.m.store.FindSession(ctx, t.sessionID)
	if err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

func (t *sessionTokens) Refresh(ctx context.Context) (string, error) {
	return t.m.refreshRemote(ctx, t.sessionID)
}
