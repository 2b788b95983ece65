package models

// Repair record statuses.
const (
	RecordDraft     = "draft"
	RecordSaved     = "saved"
	RecordCompleted = "completed"
)

// MaxRepairImages is the number of photo slots on a repair record.
const MaxRepairImages = 3

// MaintenanceTask is one reported problem under a maintenance request.
type MaintenanceTask struct {
	ID           int     `json:"id"`
	Problem      string  `json:"problem"`
	InformMileNo float64 `json:"inform_mile_no"`
	TruckNum     *string `json:"trucknum,omitempty"`
	Truckplate   *string `json:"truckplate,omitempty"`
	DriverName   *string `json:"driver_name,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
}

// MaintenanceTasks groups the tasks of one request by maintenance type.
type MaintenanceTasks struct {
	MaintenanceRequest string                       `json:"maintenance_request"`
	TasksByType        map[string][]MaintenanceTask `json:"tasks_by_type"`
}

// TaskIDs returns every task id across all maintenance types.
func (t *MaintenanceTasks) TaskIDs() []int {
	var ids []int
	if t == nil {
		return ids
	}
	for _, tasks := range t.TasksByType {
		for _, task := range tasks {
			ids = append(ids, task.ID)
		}
	}
	return ids
}

// TaskItem is the short task form returned by the batch endpoint.
type TaskItem struct {
	ID      int    `json:"id"`
	Problem string `json:"problem"`
}

// RepairRecordInput creates a repair record.
type RepairRecordInput struct {
	MaintenanceRequestCode string  `json:"maintenance_request_code"`
	MaintenanceTaskID      int     `json:"maintenance_task_id"`
	RepairDescription      *string `json:"repair_description"`
	ImageURL1              *string `json:"image_url_1"`
	ImageURL2              *string `json:"image_url_2"`
	ImageURL3              *string `json:"image_url_3"`
	Status                 string  `json:"status"`
	MechanicName           string  `json:"mechanic_name"`
}

// RepairRecordUpdate patches an existing repair record.
type RepairRecordUpdate struct {
	RepairDescription *string `json:"repair_description"`
	ImageURL1         *string `json:"image_url_1"`
	ImageURL2         *string `json:"image_url_2"`
	ImageURL3         *string `json:"image_url_3"`
	Status            string  `json:"status"`
	MechanicName      string  `json:"mechanic_name"`
}

// RepairRecord is a stored repair record.
type RepairRecord struct {
	ID                     int     `json:"id"`
	MaintenanceRequestCode string  `json:"maintenance_request_code"`
	MaintenanceTaskID      int     `json:"maintenance_task_id"`
	RepairDescription      *string `json:"repair_description,omitempty"`
	ImageURL1              *string `json:"image_url_1,omitempty"`
	ImageURL2              *string `json:"image_url_2,omitempty"`
	ImageURL3              *string `json:"image_url_3,omitempty"`
	Status                 *string `json:"status,omitempty"`
	MechanicName           *string `json:"mechanic_name,omitempty"`
	CreatedAt              *string `json:"created_at,omitempty"`
	UpdatedAt              *string `json:"updated_at,omitempty"`
	CompletedAt            *string `json:"completed_at,omitempty"`
}

// ImageURLs returns the three photo slots, empty where unset.
func (r *RepairRecord) ImageURLs() [MaxRepairImages]string {
	return [MaxRepairImages]string{deref(r.ImageURL1), deref(r.ImageURL2), deref(r.ImageURL3)}
}

// RepairRecordsResult is returned when records are created.
type RepairRecordsResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Count   int            `json:"count"`
	Records []RepairRecord `json:"records"`
}

// RepairRecordUpdateResult is returned when a record is patched.
type RepairRecordUpdateResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Record  RepairRecord `json:"record"`
}

// TaskRepairRecords holds the record history of one task.
type TaskRepairRecords struct {
	MaintenanceTaskID int            `json:"maintenance_task_id"`
	MaintenanceType   string         `json:"maintenance_type"`
	Problem           string         `json:"problem"`
	InformMileNo      float64        `json:"inform_mile_no"`
	Records           []RepairRecord `json:"records"`
}

// RepairRecordsByRequest is the record listing for one maintenance request.
// Maps are keyed by task id rendered as a string.
type RepairRecordsByRequest struct {
	MaintenanceRequestCode string                       `json:"maintenance_request_code"`
	TasksRecords           map[string]TaskRepairRecords `json:"tasks_records"`
	LatestRecords          map[string]RepairRecord      `json:"latest_records"`
	TotalRecords           int                          `json:"total_records"`
}

// Latest returns the newest record for a task, if any.
func (r *RepairRecordsByRequest) Latest(taskID int) (*RepairRecord, bool) {
	if r == nil {
		return nil, false
	}
	rec, ok := r.LatestRecords[itoa(taskID)]
	if !ok {
		return nil, false
	}
	return &rec, true
}

// CustomerPlant is one customer/plant pair.
type CustomerPlant struct {
	Customer string `json:"customer"`
	Plant    string `json:"plant"`
}

// CustomerPlantAutocomplete lists suggestions for the customer/plant filter.
type CustomerPlantAutocomplete struct {
	Customers          []string        `json:"customers"`
	Plants             []string        `json:"plants"`
	CustomerPlantPairs []CustomerPlant `json:"customer_plant_pairs"`
}
