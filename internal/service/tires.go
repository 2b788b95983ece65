package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/fleetfix/internal/api"
	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/upload"
)

// failedTireVehicle is the id_vehicle used for tire failed items.
const failedTireVehicle = "tires"

// MissingReadingsError lists tire positions without a usable reading.
type MissingReadingsError struct {
	Positions []string
	Invalid   bool
}

func (e *MissingReadingsError) Error() string {
	if e.Invalid {
		return "invalid tread reading for positions: " + strings.Join(e.Positions, ", ")
	}
	return "missing tread reading for positions: " + strings.Join(e.Positions, ", ")
}

// TireReading is the measured tread depth of one mounted tire.
type TireReading struct {
	Position string
	SerialNo string
	LastMM   float64
}

// FailedTire marks a tire as not passing. Image is optional.
type FailedTire struct {
	Position string
	SerialNo string
	Notes    string
	Image    *upload.File
}

// TireSubmission is a full tread check of one truck.
type TireSubmission struct {
	Readings []TireReading
	Failed   []FailedTire
}

// TireResult reports what was stored. Warnings describe failed tires that
// could not be recorded; the tread updates themselves succeeded.
type TireResult struct {
	Updated     []models.TireMileage `json:"updated"`
	FailedItems int                  `json:"failed_items"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// TireService records tread depth checks.
type TireService struct {
	tires       TireAPI
	inspections InspectionAPI
	uploader    Uploader
	now         clock
	log         *log.Entry
}

// NewTireService creates a tire service.
func NewTireService(tires TireAPI, inspections InspectionAPI, uploader Uploader) *TireService {
	return &TireService{
		tires:       tires,
		inspections: inspections,
		uploader:    uploader,
		now:         time.Now,
		log:         log.WithField("component", "tires"),
	}
}

// Get lists the tires mounted on a truck.
func (s *TireService) Get(ctx context.Context, plate string) (*models.TruckTires, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, ErrTruckRequired
	}
	return s.tires.ByTruck(ctx, plate)
}

func tireKey(position, serial string) string {
	return position + "-" + serial
}

// Submit validates readings against the truck's tires, updates them all,
// then records failed tires as inspection failed items.
func (s *TireService) Submit(ctx context.Context, actor Actor, plate string, sub TireSubmission) (*TireResult, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, ErrTruckRequired
	}

	mounted, err := s.tires.ByTruck(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("load tires: %w", err)
	}
	updates, err := s.plan(plate, mounted, sub.Readings)
	if err != nil {
		return nil, err
	}

	result := &TireResult{Updated: make([]models.TireMileage, len(updates))}
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range updates {
		i, u := i, u
		g.Go(func() error {
			res, err := s.tires.UpdateLastMM(gctx, plate, u)
			if err != nil {
				return fmt.Errorf("update tire %s: %w", u.TirePosition, err)
			}
			result.Updated[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.FailedItems, result.Warnings = s.recordFailed(ctx, actor, plate, mounted, sub.Failed)
	s.log.WithFields(log.Fields{
		"plate":   plate,
		"updated": len(result.Updated),
		"failed":  result.FailedItems,
	}).Info("tire tread recorded")
	return result, nil
}

// plan pairs every tire that has a serial number with its reading.
func (s *TireService) plan(plate string, mounted *models.TruckTires, readings []TireReading) ([]models.TireTreadUpdate, error) {
	byKey := make(map[string]TireReading, len(readings))
	for _, r := range readings {
		byKey[tireKey(strings.TrimSpace(r.Position), strings.TrimSpace(r.SerialNo))] = r
	}

	var updates []models.TireTreadUpdate
	var missing, invalid []string
	for _, t := range mounted.Data {
		if t.SerialNo == nil || *t.SerialNo == "" {
			continue
		}
		r, ok := byKey[tireKey(t.TirePosition, *t.SerialNo)]
		if !ok {
			missing = append(missing, t.TirePosition)
			continue
		}
		u := models.TireTreadUpdate{TirePosition: t.TirePosition, LastMM: r.LastMM, SerialNo: *t.SerialNo}
		if err := api.ValidateTreadUpdate(plate, u); err != nil {
			invalid = append(invalid, t.TirePosition)
			continue
		}
		updates = append(updates, u)
	}

	switch {
	case len(missing) > 0:
		return nil, &MissingReadingsError{Positions: missing}
	case len(invalid) > 0:
		return nil, &MissingReadingsError{Positions: invalid, Invalid: true}
	case len(updates) == 0:
		return nil, ErrNoTires
	}
	return updates, nil
}

// recordFailed never fails the submission; problems come back as warnings.
func (s *TireService) recordFailed(ctx context.Context, actor Actor, plate string, mounted *models.TruckTires, failed []FailedTire) (int, []string) {
	known := make(map[string]bool, len(mounted.Data))
	for _, t := range mounted.Data {
		if t.SerialNo != nil && *t.SerialNo != "" {
			known[tireKey(t.TirePosition, *t.SerialNo)] = true
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		recorded int
		warnings []string
	)
	at := s.now()
	for _, ft := range failed {
		ft.Position = strings.TrimSpace(ft.Position)
		ft.SerialNo = strings.TrimSpace(ft.SerialNo)
		if !known[tireKey(ft.Position, ft.SerialNo)] {
			continue
		}
		wg.Add(1)
		go func(ft FailedTire) {
			defer wg.Done()

			var imageURL string
			if ft.Image != nil && len(ft.Image.Data) > 0 {
				file := *ft.Image
				file.Filename = upload.ObjectName(at, plate, "tire", ft.SerialNo)
				url, err := s.uploader.Run(ctx, file, upload.FolderInspectionFailedItems)
				if err != nil {
					// continue without the image
					s.log.WithError(err).WithField("serial", ft.SerialNo).Warn("failed tire image upload")
				} else {
					imageURL = url
				}
			}

			notes := strings.TrimSpace(ft.Notes)
			desc := notes
			if desc == "" {
				desc = fmt.Sprintf("ยางตำแหน่ง %s ไม่ผ่าน", ft.Position)
			}
			_, err := s.inspections.CreateFailedItem(ctx, actor.Tokens, models.FailedItemInput{
				Truckplate:  plate,
				IDVehicle:   failedTireVehicle,
				SubVehicle:  ft.SerialNo,
				Description: desc,
				ImageURL:    imageURL,
				Status:      models.FailedItemPending,
				FailType:    models.FailTypeFail,
				UserCreate:  actor.Username,
				Remark:      notes,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("tire %s: %v", ft.Position, err))
				return
			}
			recorded++
		}(ft)
	}
	wg.Wait()
	return recorded, warnings
}
