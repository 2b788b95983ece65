package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/upload"
)

const (
	truckSearchLimit   = 20
	inspectionsHistory = 100
)

// InspectionItem is the inspector's verdict on one checklist item.
type InspectionItem struct {
	ID       string
	Category string
	Name     string
	Status   string
	Notes    string
	Image    *upload.File
}

// InspectionSubmission is one completed inspection of a truck.
type InspectionSubmission struct {
	Truckplate string
	TruckNum   string
	Mileage    *int
	Items      []InspectionItem
}

// InspectionResult reports the stored inspection and its outcome.
type InspectionResult struct {
	Record        *models.InspectionRecord `json:"record"`
	OverallStatus string                   `json:"overall_status"`
	FailedItems   int                      `json:"failed_items"`
	Warnings      []string                 `json:"warnings,omitempty"`
}

// InspectionService runs truck inspections.
type InspectionService struct {
	api      InspectionAPI
	uploader Uploader
	now      clock
	log      *log.Entry
}

// NewInspectionService creates an inspection service.
func NewInspectionService(inspections InspectionAPI, uploader Uploader) *InspectionService {
	return &InspectionService{
		api:      inspections,
		uploader: uploader,
		now:      time.Now,
		log:      log.WithField("component", "inspections"),
	}
}

// Checklist returns the items to check for a customer.
func (s *InspectionService) Checklist(ctx context.Context, actor Actor, customer string) ([]models.ChecklistItem, error) {
	return s.api.Checklist(ctx, actor.Tokens, strings.TrimSpace(customer))
}

// SearchTrucks finds trucks by plate or fleet number. It never fails.
func (s *InspectionService) SearchTrucks(ctx context.Context, actor Actor, q string) []models.Truck {
	return s.api.SearchTrucks(ctx, actor.Tokens, strings.TrimSpace(q), truckSearchLimit)
}

// Records lists the actor's recent inspections, optionally for one truck.
func (s *InspectionService) Records(ctx context.Context, actor Actor, plate string) (*models.InspectionRecords, error) {
	return s.api.Records(ctx, actor.Tokens, actor.Username, strings.TrimSpace(plate), inspectionsHistory)
}

// Submit stores an inspection. Mileage and the inspection record must be
// saved; failed items are best effort and come back as warnings.
func (s *InspectionService) Submit(ctx context.Context, actor Actor, sub InspectionSubmission) (*InspectionResult, error) {
	plate := strings.TrimSpace(sub.Truckplate)
	if plate == "" {
		return nil, ErrTruckRequired
	}
	if sub.Mileage != nil && *sub.Mileage < 0 {
		return nil, ErrInvalidMileage
	}

	now := s.now()
	entry := s.log.WithFields(log.Fields{"plate": plate, "inspector": actor.Username})

	if sub.Mileage != nil {
		_, err := s.api.CreateMileage(ctx, actor.Tokens, models.MileageInput{
			TruckPlate: plate,
			Mileage:    *sub.Mileage,
		})
		if err != nil {
			return nil, fmt.Errorf("save mileage: %w", err)
		}
	}

	record, err := s.api.CreateRecord(ctx, actor.Tokens, models.InspectionRecordInput{
		InspectorName:  actor.Username,
		TruckPlate:     plate,
		InspectionDate: now.UTC().Format(dateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("save inspection: %w", err)
	}

	statuses := make([]string, 0, len(sub.Items))
	var failed []InspectionItem
	for _, item := range sub.Items {
		statuses = append(statuses, item.Status)
		if item.Status == models.ItemFail || item.Status == models.ItemNeedsRepair {
			failed = append(failed, item)
		}
	}

	result := &InspectionResult{
		Record:        record,
		OverallStatus: models.InspectionOutcome(statuses),
	}
	if len(failed) > 0 {
		result.FailedItems, result.Warnings = s.recordFailed(ctx, actor, plate, sub.TruckNum, now, failed)
	}

	entry.WithFields(log.Fields{
		"status": result.OverallStatus,
		"failed": result.FailedItems,
	}).Info("inspection submitted")
	return result, nil
}

func (s *InspectionService) recordFailed(ctx context.Context, actor Actor, plate, truckNum string, at time.Time, items []InspectionItem) (int, []string) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		recorded int
		warnings []string
	)

	for _, item := range items {
		wg.Add(1)
		go func(item InspectionItem) {
			defer wg.Done()

			var imageURL string
			if item.Image != nil && len(item.Image.Data) > 0 {
				file := *item.Image
				file.Filename = upload.ObjectName(at, plate, item.ID)
				url, err := s.uploader.Run(ctx, file, upload.FolderInspectionFailedItems)
				if err != nil {
					s.log.WithError(err).WithField("item", item.ID).Warn("failed item image upload")
				} else {
					imageURL = url
				}
			}

			failType := models.FailTypeFail
			if item.Status == models.ItemNeedsRepair {
				failType = models.FailTypeNeedsRepair
			}
			_, err := s.api.CreateFailedItem(ctx, actor.Tokens, models.FailedItemInput{
				Truckplate:  plate,
				IDVehicle:   truckNum,
				SubVehicle:  item.Category,
				Description: item.Name,
				ImageURL:    imageURL,
				Status:      models.FailedItemPending,
				FailType:    failType,
				UserCreate:  actor.Username,
				Remark:      strings.TrimSpace(item.Notes),
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", item.Name, err))
				return
			}
			recorded++
		}(item)
	}
	wg.Wait()
	return recorded, warnings
}
