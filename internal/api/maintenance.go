package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ukydev/fleetfix/internal/models"
)

// QueryRequest is the body of the maintenance request query.
type QueryRequest struct {
	models.FilterSet
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// queryBody is the wire form: flow and mechanic_name collapse to a bare
// string when they hold exactly one value.
type queryBody struct {
	SearchCode    string `json:"search_code,omitempty"`
	SearchVehicle string `json:"search_vehicle,omitempty"`
	MechanicName  any    `json:"mechanic_name,omitempty"`
	Truckplate    string `json:"truckplate,omitempty"`
	Flow          any    `json:"flow,omitempty"`
	Customer      string `json:"customer,omitempty"`
	Plant         string `json:"plant,omitempty"`
	IsBroken      *bool  `json:"is_broken,omitempty"`
	DateStart     string `json:"datestart,omitempty"`
	DateEnd       string `json:"dateend,omitempty"`
	GetAll        bool   `json:"get_all,omitempty"`
	Limit         int    `json:"limit"`
	Offset        int    `json:"offset"`
}

func oneOrMany(values []string) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}

func (q QueryRequest) body() queryBody {
	f := q.FilterSet.Normalize()
	return queryBody{
		SearchCode:    f.SearchCode,
		SearchVehicle: f.SearchVehicle,
		MechanicName:  oneOrMany(f.MechanicNames),
		Truckplate:    f.Truckplate,
		Flow:          oneOrMany(f.Flows),
		Customer:      f.Customer,
		Plant:         f.Plant,
		IsBroken:      f.IsBroken,
		DateStart:     f.DateStart,
		DateEnd:       f.DateEnd,
		GetAll:        f.GetAll,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
}

// Pagination describes the server-side page of a query.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
	TotalPages int  `json:"total_pages"`
}

// QueryResponse is the result of a maintenance request query.
type QueryResponse struct {
	Data       []models.MaintenanceRequest `json:"data"`
	Count      int                         `json:"count"`
	TotalCount int                         `json:"total_count"`
	Pagination Pagination                  `json:"pagination"`
}

// MaintenanceClient talks to the mena-fixer maintenance API.
type MaintenanceClient struct {
	*Client
}

// NewMaintenanceClient creates a maintenance API client.
func NewMaintenanceClient(baseURL string, timeout time.Duration) *MaintenanceClient {
	return &MaintenanceClient{Client: NewClient(baseURL, timeout)}
}

// Query lists maintenance requests matching q.
func (c *MaintenanceClient) Query(ctx context.Context, q QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.Do(ctx, http.MethodPost, "/mena-fixer/query", nil, q.body(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Autocomplete suggests customers and plants matching term.
func (c *MaintenanceClient) Autocomplete(ctx context.Context, term string, limit int) (*models.CustomerPlantAutocomplete, error) {
	query := url.Values{}
	if term != "" {
		query.Set("q", term)
	}
	if limit <= 0 {
		limit = 20
	}
	query.Set("limit", strconv.Itoa(limit))

	var resp models.CustomerPlantAutocomplete
	if err := c.Do(ctx, http.MethodGet, "/mena-fixer/autocomplete", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tasks returns the tasks of one maintenance request grouped by type.
func (c *MaintenanceClient) Tasks(ctx context.Context, code string) (*models.MaintenanceTasks, error) {
	body := map[string]string{"maintenance_request": code}
	var resp models.MaintenanceTasks
	if err := c.Do(ctx, http.MethodPost, "/mena-fixer/maintenance-tasks", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TasksBatch returns the short task list of several requests keyed by code.
func (c *MaintenanceClient) TasksBatch(ctx context.Context, codes []string) (map[string][]models.TaskItem, error) {
	body := map[string][]string{"maintenance_requests": codes}
	var resp struct {
		Results map[string][]models.TaskItem `json:"results"`
	}
	if err := c.Do(ctx, http.MethodPost, "/mena-fixer/maintenance-tasks/batch", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = map[string][]models.TaskItem{}
	}
	return resp.Results, nil
}

// CreateRecords stores new repair records.
func (c *MaintenanceClient) CreateRecords(ctx context.Context, records []models.RepairRecordInput) (*models.RepairRecordsResult, error) {
	body := map[string][]models.RepairRecordInput{"records": records}
	var resp models.RepairRecordsResult
	if err := c.Do(ctx, http.MethodPost, "/mena-fixer/repair-records", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Records lists the repair records of one maintenance request.
func (c *MaintenanceClient) Records(ctx context.Context, code string) (*models.RepairRecordsByRequest, error) {
	query := url.Values{"maintenance_request_code": {code}}
	var resp models.RepairRecordsByRequest
	if err := c.Do(ctx, http.MethodGet, "/mena-fixer/repair-records", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateRecord patches one repair record.
func (c *MaintenanceClient) UpdateRecord(ctx context.Context, id int, update models.RepairRecordUpdate) (*models.RepairRecordUpdateResult, error) {
	var resp models.RepairRecordUpdateResult
	path := "/mena-fixer/repair-records/" + strconv.Itoa(id)
	if err := c.Do(ctx, http.MethodPatch, path, nil, update, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
