package models

// ChecklistItem is one part to check during a truck inspection.
type ChecklistItem struct {
	ID          int     `json:"id"`
	Category    *string `json:"category"`
	PartName    string  `json:"part_name"`
	CheckMethod *string `json:"check_method"`
}

// Truck is a fleet truck as returned by the truck search.
type Truck struct {
	Truckplate    string   `json:"truckplate"`
	TruckNum      string   `json:"trucknum,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Customer      string   `json:"customer,omitempty"`
	Plant         string   `json:"plant,omitempty"`
	DateStart     string   `json:"datestart,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	TypeTruck     string   `json:"typetruck,omitempty"`
	StartDate     string   `json:"startdate,omitempty"`
	LatestMileage *float64 `json:"latest_mileage,omitempty"`
}

// MileageInput records an odometer reading.
type MileageInput struct {
	TruckPlate string `json:"truck_plate"`
	Mileage    int    `json:"mileage"`
	DateCreate string `json:"date_create,omitempty"`
}

// Mileage is a stored odometer reading.
type Mileage struct {
	ID         string `json:"id"`
	TruckPlate string `json:"truck_plate"`
	DateCreate string `json:"date_create"`
	Mileage    int    `json:"mileage"`
	Message    string `json:"message"`
}

// InspectionRecordInput creates an inspection record.
type InspectionRecordInput struct {
	InspectorName  string `json:"inspector_name"`
	TruckPlate     string `json:"truck_plate"`
	InspectionDate string `json:"inspection_date,omitempty"`
}

// InspectionRecord is a stored inspection.
type InspectionRecord struct {
	ID             string `json:"id"`
	InspectorName  string `json:"inspector_name"`
	TruckPlate     string `json:"truck_plate"`
	InspectionDate string `json:"inspection_date"`
	CreatedAt      string `json:"created_at,omitempty"`
	Message        string `json:"message,omitempty"`
}

// InspectionRecords is a page of inspection records.
type InspectionRecords struct {
	Records []InspectionRecord `json:"records"`
	Total   int                `json:"total"`
}

// Failed item types.
const (
	FailTypeFail        = "fail"
	FailTypeNeedsRepair = "needs-repair"
	FailedItemPending   = "pending"
)

// FailedItemInput reports a part or tire that did not pass inspection.
type FailedItemInput struct {
	Truckplate  string `json:"truckplate"`
	IDVehicle   string `json:"id_vehicle,omitempty"`
	SubVehicle  string `json:"sub_vehicle,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Status      string `json:"status,omitempty"`
	FailType    string `json:"fail_type,omitempty"`
	UserCreate  string `json:"usercreate,omitempty"`
	Remark      string `json:"remark,omitempty"`
}

// FailedItem is a stored failed item.
type FailedItem struct {
	FailedItemInput
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Message   string `json:"message"`
}

// Inspection item results.
const (
	ItemPass        = "pass"
	ItemFail        = "fail"
	ItemConditional = "conditional"
	ItemNeedsRepair = "needs-repair"
	ItemNotChecked  = "not-checked"
)

// InspectionOutcome computes the overall result: any fail fails the
// inspection, any needs-repair makes it conditional.
func InspectionOutcome(statuses []string) string {
	outcome := ItemPass
	for _, s := range statuses {
		switch s {
		case ItemFail:
			return ItemFail
		case ItemNeedsRepair:
			outcome = ItemConditional
		}
	}
	return outcome
}
