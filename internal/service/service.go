// Package service holds the mechanic workflows: repair lists and detail,
// truck photos, tire tread updates and inspections.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/upload"
)

var (
	ErrNothingToComplete = errors.New("ไม่มีรายการที่ต้องอัปเดตสถานะ")
	ErrCodeRequired      = errors.New("maintenance request code is required")
	ErrTooManyImages     = errors.New("a repair task holds at most 3 images")
	ErrInvalidSide       = errors.New("unknown photo side")
	ErrNoPhotos          = errors.New("no photos to submit")
	ErrNoTires           = errors.New("no tire updates to submit")
	ErrInvalidMileage    = errors.New("mileage must be a non-negative number")
	ErrTruckRequired     = api.ErrPlateRequired
)

// Actor is the signed-in user a workflow runs for.
type Actor struct {
	Username  string
	SessionID string
	Tokens    api.TokenSource
}

// Roster resolves which mechanic names a user is allowed to see.
type Roster interface {
	IsMaster(username string) bool
	MechanicNames(username string) []string
}

// MaintenanceAPI is the subset of the maintenance API the repair workflows use.
type MaintenanceAPI interface {
	Query(ctx context.Context, q api.QueryRequest) (*api.QueryResponse, error)
	Autocomplete(ctx context.Context, term string, limit int) (*models.CustomerPlantAutocomplete, error)
	Tasks(ctx context.Context, code string) (*models.MaintenanceTasks, error)
	TasksBatch(ctx context.Context, codes []string) (map[string][]models.TaskItem, error)
	CreateRecords(ctx context.Context, records []models.RepairRecordInput) (*models.RepairRecordsResult, error)
	Records(ctx context.Context, code string) (*models.RepairRecordsByRequest, error)
	UpdateRecord(ctx context.Context, id int, update models.RepairRecordUpdate) (*models.RepairRecordUpdateResult, error)
}

// InspectionAPI is the authenticated inspection API.
type InspectionAPI interface {
	Checklist(ctx context.Context, ts api.TokenSource, customer string) ([]models.ChecklistItem, error)
	SearchTrucks(ctx context.Context, ts api.TokenSource, q string, limit int) []models.Truck
	CreateMileage(ctx context.Context, ts api.TokenSource, in models.MileageInput) (*models.Mileage, error)
	CreateRecord(ctx context.Context, ts api.TokenSource, in models.InspectionRecordInput) (*models.InspectionRecord, error)
	Records(ctx context.Context, ts api.TokenSource, inspector, plate string, limit int) (*models.InspectionRecords, error)
	CreateFailedItem(ctx context.Context, ts api.TokenSource, in models.FailedItemInput) (*models.FailedItem, error)
}

// TireAPI reads and updates tire tread.
type TireAPI interface {
	ByTruck(ctx context.Context, plate string) (*models.TruckTires, error)
	UpdateLastMM(ctx context.Context, plate string, u models.TireTreadUpdate) (*models.TireMileage, error)
}

// PhotoAPI stores truck photo submissions.
type PhotoAPI interface {
	Get(ctx context.Context, plate string) (*models.TruckImageSubmission, error)
	Create(ctx context.Context, in models.TruckImageSubmissionCreate) (*models.TruckImageSubmission, error)
	Update(ctx context.Context, plate string, in models.TruckImageSubmissionUpdate) (*models.TruckImageSubmission, error)
}

// Uploader turns image bytes into public URLs.
type Uploader interface {
	Run(ctx context.Context, file upload.File, folder string) (string, error)
	RunBatch(ctx context.Context, files []upload.File, folder string) ([]string, error)
}

// clock is swapped in tests.
type clock func() time.Time
