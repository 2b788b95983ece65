package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/service"
	"github.com/ukydev/fleetfix/internal/upload"
)

const testToken = "Bearer session-token"

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *MockAuthService) RefreshSession(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*models.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claims), args.Error(1)
}

// TokenSource is not recorded; services are mocked in these tests.
func (m *MockAuthService) TokenSource(sessionID string) api.TokenSource {
	return nil
}

type MockRepairService struct {
	mock.Mock
}

func (m *MockRepairService) List(ctx context.Context, actor service.Actor, req service.ListRequest) (*service.ListResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult), args.Error(1)
}

func (m *MockRepairService) Refresh(ctx context.Context, actor service.Actor, req service.ListRequest) (*service.ListResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult), args.Error(1)
}

func (m *MockRepairService) Detail(ctx context.Context, code string) (*service.Detail, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Detail), args.Error(1)
}

func (m *MockRepairService) SaveTask(ctx context.Context, actor service.Actor, in service.SaveTaskInput) (*models.RepairRecord, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepairRecord), args.Error(1)
}

func (m *MockRepairService) Complete(ctx context.Context, actor service.Actor, code string) ([]models.RepairRecord, error) {
	args := m.Called(ctx, actor, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RepairRecord), args.Error(1)
}

func (m *MockRepairService) Summary(ctx context.Context, codes []string) (map[string][]models.TaskItem, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]models.TaskItem), args.Error(1)
}

func (m *MockRepairService) Autocomplete(ctx context.Context, term string) (*models.CustomerPlantAutocomplete, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomerPlantAutocomplete), args.Error(1)
}

type MockPhotoService struct {
	mock.Mock
}

func (m *MockPhotoService) Get(ctx context.Context, plate string) (*models.TruckImageSubmission, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TruckImageSubmission), args.Error(1)
}

func (m *MockPhotoService) Submit(ctx context.Context, plate string, photos map[models.PhotoSide]*upload.File) (*models.TruckImageSubmission, error) {
	args := m.Called(ctx, plate, photos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TruckImageSubmission), args.Error(1)
}

type MockTireService struct {
	mock.Mock
}

func (m *MockTireService) Get(ctx context.Context, plate string) (*models.TruckTires, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TruckTires), args.Error(1)
}

func (m *MockTireService) Submit(ctx context.Context, actor service.Actor, plate string, sub service.TireSubmission) (*service.TireResult, error) {
	args := m.Called(ctx, actor, plate, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TireResult), args.Error(1)
}

type MockInspectionService struct {
	mock.Mock
}

func (m *MockInspectionService) Checklist(ctx context.Context, actor service.Actor, customer string) ([]models.ChecklistItem, error) {
	args := m.Called(ctx, actor, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChecklistItem), args.Error(1)
}

func (m *MockInspectionService) SearchTrucks(ctx context.Context, actor service.Actor, q string) []models.Truck {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Truck)
}

func (m *MockInspectionService) Records(ctx context.Context, actor service.Actor, plate string) (*models.InspectionRecords, error) {
	args := m.Called(ctx, actor, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InspectionRecords), args.Error(1)
}

func (m *MockInspectionService) Submit(ctx context.Context, actor service.Actor, sub service.InspectionSubmission) (*service.InspectionResult, error) {
	args := m.Called(ctx, actor, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InspectionResult), args.Error(1)
}

type testServer struct {
	auth        *MockAuthService
	repairs     *MockRepairService
	photos      *MockPhotoService
	tires       *MockTireService
	inspections *MockInspectionService
	router      *Router
}

var mechanicClaims = &models.Claims{
	UserID:    "7",
	Username:  "team1",
	Role:      models.RoleUser,
	SessionID: "sess-1",
}

// mechanic is the actor the handlers build from mechanicClaims.
var mechanic = service.Actor{Username: "team1", SessionID: "sess-1"}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()
	logger := log.New()
	logger.SetLevel(log.PanicLevel)

	s := &testServer{
		auth:        new(MockAuthService),
		repairs:     new(MockRepairService),
		photos:      new(MockPhotoService),
		tires:       new(MockTireService),
		inspections: new(MockInspectionService),
	}
	s.auth.On("Authenticate", mock.Anything, testToken).Return(mechanicClaims, nil).Maybe()
	s.router = NewRouter(Deps{
		Auth:        s.auth,
		Repairs:     s.repairs,
		Photos:      s.photos,
		Tires:       s.tires,
		Inspections: s.inspections,
		Checks:      checks,
		Logger:      logger,
	})
	t.Cleanup(func() {
		s.repairs.AssertExpectations(t)
		s.photos.AssertExpectations(t)
		s.tires.AssertExpectations(t)
		s.inspections.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", testToken)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}
