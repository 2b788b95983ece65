package models

import (
	"strings"
	"time"
)

// OverallStatus is the coarsest classification of a request's repair records.
type OverallStatus string

const (
	StatusNoRecords    OverallStatus = "no_records"
	StatusHasDraft     OverallStatus = "has_draft"
	StatusHasSaved     OverallStatus = "has_saved"
	StatusHasCompleted OverallStatus = "has_completed"
)

// Tab is the list bucket a maintenance request is shown under.
type Tab string

const (
	TabPending    Tab = "pending"
	TabInProgress Tab = "in_progress"
	TabCompleted  Tab = "completed"
)

// IsValidTab checks if a tab name is known
func IsValidTab(tab Tab) bool {
	switch tab {
	case TabPending, TabInProgress, TabCompleted:
		return true
	default:
		return false
	}
}

// StatusCounts holds the number of repair records per record status.
type StatusCounts struct {
	Completed int `json:"completed" bson:"completed"`
	Saved     int `json:"saved" bson:"saved"`
	Draft     int `json:"draft" bson:"draft"`
}

// RepairRecordsInfo summarizes the repair records attached to a request.
type RepairRecordsInfo struct {
	Total         int           `json:"total" bson:"total"`
	StatusCounts  StatusCounts  `json:"status_counts" bson:"status_counts"`
	OverallStatus OverallStatus `json:"overall_status" bson:"overall_status"`
}

// DeriveOverallStatus maps status counts onto the precedence
// has_completed > has_saved > has_draft > no_records.
func DeriveOverallStatus(c StatusCounts) OverallStatus {
	switch {
	case c.Completed > 0:
		return StatusHasCompleted
	case c.Saved > 0:
		return StatusHasSaved
	case c.Draft > 0:
		return StatusHasDraft
	default:
		return StatusNoRecords
	}
}

// Status returns the reported overall status, deriving it from the counts
// when the server sent an unknown value. A nil summary has no records.
func (r *RepairRecordsInfo) Status() OverallStatus {
	if r == nil {
		return StatusNoRecords
	}
	switch r.OverallStatus {
	case StatusNoRecords, StatusHasDraft, StatusHasSaved, StatusHasCompleted:
		return r.OverallStatus
	default:
		return DeriveOverallStatus(r.StatusCounts)
	}
}

// TabFor routes an overall status to exactly one tab.
func TabFor(status OverallStatus) Tab {
	switch status {
	case StatusHasCompleted:
		return TabCompleted
	case StatusHasSaved, StatusHasDraft:
		return TabInProgress
	default:
		return TabPending
	}
}

// MaintenanceRequest represents one repair ticket from the maintenance API.
type MaintenanceRequest struct {
	Code             string             `json:"code" bson:"code"`
	Flow             string             `json:"flow" bson:"flow"`
	BranchName       *string            `json:"branch_name,omitempty" bson:"branch_name,omitempty"`
	IsBroken         *bool              `json:"is_broken,omitempty" bson:"is_broken,omitempty"`
	DispatcherName   *string            `json:"dispatcher_name,omitempty" bson:"dispatcher_name,omitempty"`
	MechanicName     *string            `json:"mechanic_name,omitempty" bson:"mechanic_name,omitempty"`
	ScheduleAt       *string            `json:"schedule_at,omitempty" bson:"schedule_at,omitempty"`
	EstimateFinishAt *string            `json:"estimate_finish_at,omitempty" bson:"estimate_finish_at,omitempty"`
	Truckplate       *string            `json:"truckplate,omitempty" bson:"truckplate,omitempty"`
	VehicleName      *string            `json:"vehicle_name,omitempty" bson:"vehicle_name,omitempty"` // plate shown to mechanics
	VehicleCode      *string            `json:"vehicle_code,omitempty" bson:"vehicle_code,omitempty"` // fleet number
	Customer         *string            `json:"customer,omitempty" bson:"customer,omitempty"`
	Plant            *string            `json:"plant,omitempty" bson:"plant,omitempty"`
	RepairRecords    *RepairRecordsInfo `json:"repair_records,omitempty" bson:"repair_records,omitempty"`
}

// Tab returns the list bucket for this request.
func (m *MaintenanceRequest) Tab() Tab {
	return TabFor(m.RepairRecords.Status())
}

var scheduleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ScheduledTime parses schedule_at. Missing or unparseable values yield the
// Unix epoch so they order as the oldest records.
func (m *MaintenanceRequest) ScheduledTime() time.Time {
	if m.ScheduleAt == nil {
		return time.Unix(0, 0).UTC()
	}
	s := strings.TrimSpace(*m.ScheduleAt)
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// CacheEntry is one stored list result.
type CacheEntry struct {
	Data      []MaintenanceRequest `json:"data" bson:"data"`
	FetchedAt time.Time            `json:"fetched_at" bson:"fetched_at"`
}
