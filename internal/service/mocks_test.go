package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/listcache"
	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/notify"
	"github.com/ukydev/fleetfix/internal/upload"
)

// MockMaintenanceAPI is a mock implementation of MaintenanceAPI
type MockMaintenanceAPI struct {
	mock.Mock
}

func (m *MockMaintenanceAPI) Query(ctx context.Context, q api.QueryRequest) (*api.QueryResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.QueryResponse), args.Error(1)
}

func (m *MockMaintenanceAPI) Autocomplete(ctx context.Context, term string, limit int) (*models.CustomerPlantAutocomplete, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomerPlantAutocomplete), args.Error(1)
}

func (m *MockMaintenanceAPI) Tasks(ctx context.Context, code string) (*models.MaintenanceTasks, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceTasks), args.Error(1)
}

func (m *MockMaintenanceAPI) TasksBatch(ctx context.Context, codes []string) (map[string][]models.TaskItem, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]models.TaskItem), args.Error(1)
}

func (m *MockMaintenanceAPI) CreateRecords(ctx context.Context, records []models.RepairRecordInput) (*models.RepairRecordsResult, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepairRecordsResult), args.Error(1)
}

func (m *MockMaintenanceAPI) Records(ctx context.Context, code string) (*models.RepairRecordsByRequest, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepairRecordsByRequest), args.Error(1)
}

func (m *MockMaintenanceAPI) UpdateRecord(ctx context.Context, id int, update models.RepairRecordUpdate) (*models.RepairRecordUpdateResult, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepairRecordUpdateResult), args.Error(1)
}

// MockInspectionAPI is a mock implementation of InspectionAPI
type MockInspectionAPI struct {
	mock.Mock
}

func (m *MockInspectionAPI) Checklist(ctx context.Context, ts api.TokenSource, customer string) ([]models.ChecklistItem, error) {
	args := m.Called(ctx, ts, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChecklistItem), args.Error(1)
}

func (m *MockInspectionAPI) SearchTrucks(ctx context.Context, ts api.TokenSource, q string, limit int) []models.Truck {
	args := m.Called(ctx, ts, q, limit)
	return args.Get(0).([]models.Truck)
}

func (m *MockInspectionAPI) CreateMileage(ctx context.Context, ts api.TokenSource, in models.MileageInput) (*models.Mileage, error) {
	args := m.Called(ctx, ts, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mileage), args.Error(1)
}

func (m *MockInspectionAPI) CreateRecord(ctx context.Context, ts api.TokenSource, in models.InspectionRecordInput) (*models.InspectionRecord, error) {
	args := m.Called(ctx, ts, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InspectionRecord), args.Error(1)
}

func (m *MockInspectionAPI) Records(ctx context.Context, ts api.TokenSource, inspector, plate string, limit int) (*models.InspectionRecords, error) {
	args := m.Called(ctx, ts, inspector, plate, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InspectionRecords), args.Error(1)
}

func (m *MockInspectionAPI) CreateFailedItem(ctx context.Context, ts api.TokenSource, in models.FailedItemInput) (*models.FailedItem, error) {
	args := m.Called(ctx, ts, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FailedItem), args.Error(1)
}

// MockTireAPI is a mock implementation of TireAPI
type MockTireAPI struct {
	mock.Mock
}

func (m *MockTireAPI) ByTruck(ctx context.Context, plate string) (*models.TruckTires, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TruckTires), args.Error(1)
}

func (m *MockTireAPI) UpdateLastMM(ctx context.Context, plate string, u models.TireTreadUpdate) (*models.TireMileage, error) {
	args := m.Called(ctx, plate, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TireMileage), args.Error(1)
}

// MockPhotoAPI is a mock implementation of PhotoAPI
type MockPhotoAPI struct {
	mock.Mock
}

func (m *MockPhotoAPI) Get(ctx context.Context, plate string) (*models.TruckImageSubmission, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TruckImageSubmission), args.Error(1)
}

func (m *MockPhotoAPI) Create(ctx context.Context, in models.TruckImageSubmissionCreate) (*models.TruckImageSubmission, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TruckImageSubmission), args.Error(1)
}

func (m *MockPhotoAPI) Update(ctx context.Context, plate string, in models.TruckImageSubmissionUpdate) (*models.TruckImageSubmission, error) {
	args := m.Called(ctx, plate, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TruckImageSubmission), args.Error(1)
}

// MockUploader is a mock implementation of Uploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Run(ctx context.Context, file upload.File, folder string) (string, error) {
	args := m.Called(ctx, file, folder)
	return args.String(0), args.Error(1)
}

func (m *MockUploader) RunBatch(ctx context.Context, files []upload.File, folder string) ([]string, error) {
	args := m.Called(ctx, files, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type testRoster struct{}

func (testRoster) IsMaster(username string) bool { return username == "mastermena" }

func (testRoster) MechanicNames(username string) []string {
	if username == "team1" {
		return []string{"สมชาย", "สมศักดิ์"}
	}
	return []string{username}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.RepairEvent
}

func (n *recordingNotifier) RepairChanged(_ context.Context, ev notify.RepairEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) Close() {}

func (n *recordingNotifier) Events() []notify.RepairEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.RepairEvent(nil), n.events...)
}

var testNow = time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testActor(username string) Actor {
	return Actor{Username: username, SessionID: "sess-1"}
}

func newTestCache() *listcache.Cache {
	return listcache.New(listcache.NewMemoryStore(16, time.Hour))
}

func jpeg(b ...byte) *upload.File {
	if len(b) == 0 {
		b = []byte{0xff, 0xd8, 0xff}
	}
	return &upload.File{Data: b}
}
