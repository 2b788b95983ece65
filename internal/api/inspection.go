package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ukydev/fleetfix/internal/models"
)

// InspectionClient talks to the authenticated inspection and truck API.
// Every call carries the caller's TokenSource.
type InspectionClient struct {
	*Client
}

// NewInspectionClient creates an inspection API client.
func NewInspectionClient(baseURL string, timeout time.Duration) *InspectionClient {
	return &InspectionClient{Client: NewClient(baseURL, timeout)}
}

// Checklist returns the inspection checklist for a customer.
func (c *InspectionClient) Checklist(ctx context.Context, ts TokenSource, customer string) ([]models.ChecklistItem, error) {
	var resp struct {
		Items []models.ChecklistItem `json:"items"`
	}
	query := url.Values{"customer": {customer}}
	if err := c.DoAuthed(ctx, ts, http.MethodGet, "/mixer-inspection/checklist", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// SearchTrucks looks trucks up by plate or number. An empty query and any
// remote failure both yield an empty list.
func (c *InspectionClient) SearchTrucks(ctx context.Context, ts TokenSource, q string, limit int) []models.Truck {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Truck{}
	}
	if limit <= 0 {
		limit = 20
	}
	query := url.Values{"q": {q}, "limit": {strconv.Itoa(limit)}}

	var resp struct {
		Trucks []models.Truck `json:"trucks"`
	}
	if err := c.DoAuthed(ctx, ts, http.MethodGet, "/staticmixer/trucks/search", query, nil, &resp); err != nil {
		c.log.WithError(err).WithField("query", q).Warn("truck search failed")
		return []models.Truck{}
	}
	if resp.Trucks == nil {
		return []models.Truck{}
	}
	return resp.Trucks
}

// CreateMileage records an odometer reading.
func (c *InspectionClient) CreateMileage(ctx context.Context, ts TokenSource, in models.MileageInput) (*models.Mileage, error) {
	var resp models.Mileage
	if err := c.DoAuthed(ctx, ts, http.MethodPost, "/staticmixer/mileage", nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateRecord stores an inspection record.
func (c *InspectionClient) CreateRecord(ctx context.Context, ts TokenSource, in models.InspectionRecordInput) (*models.InspectionRecord, error) {
	var resp models.InspectionRecord
	if err := c.DoAuthed(ctx, ts, http.MethodPost, "/mixer-inspection/records", nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Records lists inspection records, optionally filtered by inspector and plate.
func (c *InspectionClient) Records(ctx context.Context, ts TokenSource, inspector, plate string, limit int) (*models.InspectionRecords, error) {
	query := url.Values{}
	if inspector != "" {
		query.Set("inspector_name", inspector)
	}
	if plate != "" {
		query.Set("truck_plate", plate)
	}
	if limit <= 0 {
		limit = 100
	}
	query.Set("limit", strconv.Itoa(limit))

	var resp models.InspectionRecords
	if err := c.DoAuthed(ctx, ts, http.MethodGet, "/mixer-inspection/records", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateFailedItem reports a part or tire that did not pass.
func (c *InspectionClient) CreateFailedItem(ctx context.Context, ts TokenSource, in models.FailedItemInput) (*models.FailedItem, error) {
	var resp models.FailedItem
	if err := c.DoAuthed(ctx, ts, http.MethodPost, "/mixer-inspection/failed-items", nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
