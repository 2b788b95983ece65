package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ukydev/fleetfix/internal/models"
)

// PhotoClient talks to the truck image submission API.
type PhotoClient struct {
	*Client
}

// NewPhotoClient creates a truck photo API client.
func NewPhotoClient(baseURL string, timeout time.Duration) *PhotoClient {
	return &PhotoClient{Client: NewClient(baseURL, timeout)}
}

// isNotFound matches a 404 or a not-found message from the photo API.
func isNotFound(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusNotFound ||
		strings.Contains(se.Message, "ไม่พบข้อมูล") ||
		strings.Contains(strings.ToLower(se.Message), "not found")
}

// Get returns the photo set of a truck, or nil when none exists yet.
func (c *PhotoClient) Get(ctx context.Context, plate string) (*models.TruckImageSubmission, error) {
	var resp models.TruckImageSubmission
	err := c.Do(ctx, http.MethodGet, "/truck-image-submissions/"+url.PathEscape(plate), nil, nil, &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create stores a new photo set.
func (c *PhotoClient) Create(ctx context.Context, in models.TruckImageSubmissionCreate) (*models.TruckImageSubmission, error) {
	var resp models.TruckImageSubmission
	if err := c.Do(ctx, http.MethodPost, "/truck-image-submissions/", nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update replaces the photos of an existing set.
func (c *PhotoClient) Update(ctx context.Context, plate string, in models.TruckImageSubmissionUpdate) (*models.TruckImageSubmission, error) {
	var resp models.TruckImageSubmission
	if err := c.Do(ctx, http.MethodPut, "/truck-image-submissions/"+url.PathEscape(plate), nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
