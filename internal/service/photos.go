package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/upload"
)

// PhotoService manages the five reference photos of a truck.
type PhotoService struct {
	api      PhotoAPI
	uploader Uploader
	now      clock
	log      *log.Entry
}

// NewPhotoService creates a photo service.
func NewPhotoService(photos PhotoAPI, uploader Uploader) *PhotoService {
	return &PhotoService{
		api:      photos,
		uploader: uploader,
		now:      time.Now,
		log:      log.WithField("component", "photos"),
	}
}

// Get returns the truck's photo set, or nil when none was submitted yet.
func (s *PhotoService) Get(ctx context.Context, plate string) (*models.TruckImageSubmission, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, ErrTruckRequired
	}
	return s.api.Get(ctx, plate)
}

// Submit uploads the given sides and stores them merged with the photos
// already on file. Every upload must succeed before anything is stored.
func (s *PhotoService) Submit(ctx context.Context, plate string, photos map[models.PhotoSide]*upload.File) (*models.TruckImageSubmission, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, ErrTruckRequired
	}

	var sides []models.PhotoSide
	var files []upload.File
	at := s.now()
	for _, side := range models.PhotoSides {
		f, ok := photos[side]
		if !ok || f == nil || len(f.Data) == 0 {
			continue
		}
		file := *f
		file.Filename = upload.ObjectName(at, plate, string(side))
		sides = append(sides, side)
		files = append(files, file)
	}
	for side := range photos {
		if !models.IsValidPhotoSide(side) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSide, side)
		}
	}
	if len(files) == 0 {
		return nil, ErrNoPhotos
	}

	existing, err := s.api.Get(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("load photo submission: %w", err)
	}

	urls, err := s.uploader.RunBatch(ctx, files, upload.FolderTruckPhotos)
	if err != nil {
		return nil, fmt.Errorf("upload truck photos: %w", err)
	}

	merged := &models.TruckImageURLs{}
	if existing != nil {
		for _, side := range models.PhotoSides {
			merged.Set(side, existing.ImageURLs.Get(side))
		}
	}
	for i, side := range sides {
		merged.Set(side, urls[i])
	}

	entry := s.log.WithFields(log.Fields{"plate": plate, "sides": len(sides)})
	if existing != nil {
		saved, err := s.api.Update(ctx, plate, models.TruckImageSubmissionUpdate{
			ImageURLs: merged,
			Approve:   existing.Approve,
		})
		if err != nil {
			return nil, fmt.Errorf("update photo submission: %w", err)
		}
		entry.Info("truck photos updated")
		return saved, nil
	}

	saved, err := s.api.Create(ctx, models.TruckImageSubmissionCreate{
		Truckplate: plate,
		ImageURLs:  merged,
		Approve:    false,
	})
	if err != nil {
		return nil, fmt.Errorf("create photo submission: %w", err)
	}
	entry.Info("truck photos submitted")
	return saved, nil
}
