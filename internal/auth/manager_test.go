package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/models"
)

// MockRemoteAuth is a mock implementation of RemoteAuth
type MockRemoteAuth struct {
	mock.Mock
}

func (m *MockRemoteAuth) Login(ctx context.Context, username, password, deviceID string) (*api.Tokens, error) {
	args := m.Called(ctx, username, password, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Tokens), args.Error(1)
}

func (m *MockRemoteAuth) Refresh(ctx context.Context, refreshToken, deviceID string) (*api.Tokens, error) {
	args := m.Called(ctx, refreshToken, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Tokens), args.Error(1)
}

func (m *MockRemoteAuth) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockRemoteAuth) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type staticDirectory struct{}

func (staticDirectory) IsMaster(username string) bool { return username == "mastermena" }
func (staticDirectory) DisplayName(username string) string {
	return "ช่าง " + username
}

func newTestManager() (*Manager, *MockRemoteAuth, *MemorySessionStore) {
	remote := new(MockRemoteAuth)
	store := NewMemorySessionStore()
	return NewManager(NewService("secret", time.Hour), remote, store, staticDirectory{}), remote, store
}

func login(t *testing.T, m *Manager, remote *MockRemoteAuth) (*models.LoginResponse, *models.Claims) {
	t.Helper()
	remote.On("Login", mock.Anything, "team1", "pw", "dev-1").Return(&api.Tokens{
		AccessToken:  "remote-access",
		RefreshToken: "remote-refresh",
		User:         models.User{ID: 7, Username: "team1", Role: models.RoleUser},
	}, nil).Once()

	resp, err := m.Login(context.Background(), models.LoginRequest{Username: " team1 ", Password: "pw", DeviceID: "dev-1"})
	require.NoError(t, err)
	claims, err := m.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	return resp, claims
}

func TestManager_Login(t *testing.T) {
	m, remote, store := newTestManager()

	resp, claims := login(t, m, remote)

	assert.Equal(t, "team1", resp.User.Username)
	assert.Equal(t, "ช่าง team1", resp.DisplayName)
	assert.False(t, resp.IsMaster)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.NotEmpty(t, resp.RefreshToken)

	session, err := store.FindSession(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "remote-access", session.AccessToken)
	assert.Equal(t, "remote-refresh", session.RemoteRefreshToken)
	assert.Equal(t, "dev-1", session.DeviceID)
	remote.AssertExpectations(t)
}

func TestManager_LoginFailures(t *testing.T) {
	m, remote, _ := newTestManager()

	_, err := m.Login(context.Background(), models.LoginRequest{Username: "", Password: "pw"})
	assert.Equal(t, ErrInvalidCredentials, err)

	remote.On("Login", mock.Anything, "team1", "bad", mock.AnythingOfType("string")).
		Return(nil, &api.StatusError{StatusCode: http.StatusUnauthorized, Message: "Invalid username or password"})
	_, err = m.Login(context.Background(), models.LoginRequest{Username: "team1", Password: "bad"})
	assert.Equal(t, ErrInvalidCredentials, err)

	remote.On("Login", mock.Anything, "team2", "pw", mock.AnythingOfType("string")).
		Return(nil, &api.StatusError{StatusCode: http.StatusBadGateway, Message: "upstream"})
	_, err = m.Login(context.Background(), models.LoginRequest{Username: "team2", Password: "pw"})
	assert.True(t, api.IsStatus(err, http.StatusBadGateway))
}

func TestManager_RefreshSessionRotates(t *testing.T) {
	m, remote, _ := newTestManager()
	resp, _ := login(t, m, remote)

	next, err := m.RefreshSession(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, next.RefreshToken)

	_, err = m.RefreshSession(context.Background(), resp.RefreshToken)
	assert.Equal(t, ErrInvalidToken, err)

	_, err = m.RefreshSession(context.Background(), "")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestManager_Logout(t *testing.T) {
	m, remote, _ := newTestManager()
	resp, claims := login(t, m, remote)

	remote.On("Logout", mock.Anything, "remote-refresh").Return(errors.New("remote down"))

	require.NoError(t, m.Logout(context.Background(), claims.SessionID))
	_, err := m.Authenticate(context.Background(), resp.Token)
	assert.Equal(t, ErrInvalidToken, err)

	// logging out twice is fine
	assert.NoError(t, m.Logout(context.Background(), claims.SessionID))
	remote.AssertNumberOfCalls(t, "Logout", 1)
}

func TestManager_Register(t *testing.T) {
	m, remote, _ := newTestManager()

	_, err := m.Register(context.Background(), models.RegisterRequest{Username: "ab", Password: "longenough"})
	assert.Error(t, err)
	_, err = m.Register(context.Background(), models.RegisterRequest{Username: "team9", Password: "short"})
	assert.Error(t, err)

	remote.On("Register", mock.Anything, models.RegisterRequest{Username: "team9", Password: "longenough", Role: models.RoleUser}).
		Return(&models.User{ID: 9, Username: "team9", Role: models.RoleUser}, nil)
	user, err := m.Register(context.Background(), models.RegisterRequest{Username: " team9 ", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, 9, user.ID)
}

func TestManager_TokenSourceRefresh(t *testing.T) {
	m, remote, store := newTestManager()
	_, claims := login(t, m, remote)
	ts := m.TokenSource(claims.SessionID)

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "remote-access", token)

	release := make(chan struct{})
	remote.On("Refresh", mock.Anything, "remote-refresh", "dev-1").
		Run(func(mock.Arguments) { <-release }).
		Return(&api.Tokens{AccessToken: "remote-access-2", RefreshToken: "remote-refresh-2"}, nil).Once()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ts.Refresh(context.Background())
		}()
	}
	// let every caller join the in-flight refresh
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	token, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "remote-access-2", token)

	session, _ := store.FindSession(context.Background(), claims.SessionID)
	assert.Equal(t, "remote-refresh-2", session.RemoteRefreshToken)
}

func TestManager_TokenSourceRefreshFailureSignsOut(t *testing.T) {
	m, remote, store := newTestManager()
	_, claims := login(t, m, remote)

	remote.On("Refresh", mock.Anything, "remote-refresh", "dev-1").
		Return(nil, &api.StatusError{StatusCode: http.StatusUnauthorized, Message: "refresh token revoked"})

	_, err := m.TokenSource(claims.SessionID).Refresh(context.Background())
	assert.Error(t, err)

	_, err = store.FindSession(context.Background(), claims.SessionID)
	assert.Equal(t, ErrSessionNotFound, err)
}
