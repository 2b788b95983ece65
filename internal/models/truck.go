package models

// TireInfo describes the truck a tire listing belongs to.
type TireInfo struct {
	Truckplate string  `json:"truckplate"`
	TruckNum   *string `json:"trucknum,omitempty"`
	Customer   *string `json:"customer,omitempty"`
	Plant      *string `json:"plant,omitempty"`
	TypeTruck  *string `json:"typetruck,omitempty"`
}

// Tire is one mounted tire.
type Tire struct {
	TirePosition   string   `json:"tire_position"`
	SerialNo       *string  `json:"serial_no,omitempty"`
	TreadMM        *float64 `json:"tread_mm,omitempty"`
	InitialMileage *float64 `json:"initial_mileage,omitempty"`
}

// TruckTires is the tire listing for one truck.
type TruckTires struct {
	Info TireInfo `json:"info"`
	Data []Tire   `json:"data"`
}

// TireTreadUpdate records the latest tread measurement for a tire.
type TireTreadUpdate struct {
	TirePosition string  `json:"tire_position"`
	LastMM       float64 `json:"last_mm"`
	SerialNo     string  `json:"serial_no"`
}

// TireMileage is the stored state of a tire after an update.
type TireMileage struct {
	Truckplate     string   `json:"truckplate"`
	TirePosition   string   `json:"tire_position"`
	Product        *string  `json:"product,omitempty"`
	SerialNo       *string  `json:"serial_no,omitempty"`
	TreadMM        *float64 `json:"tread_mm,omitempty"`
	LastMM         *float64 `json:"last_mm,omitempty"`
	InitialMileage *float64 `json:"initial_mileage,omitempty"`
	RequestRef     *string  `json:"request_ref,omitempty"`
	ChangedIn      *string  `json:"changed_in,omitempty"`
	UpdatedAt      *string  `json:"updated_at,omitempty"`
}

// PhotoSide is one of the five reference photo positions of a truck.
type PhotoSide string

const (
	SideLeft     PhotoSide = "left"
	SideRight    PhotoSide = "right"
	SideFront    PhotoSide = "front"
	SideBack     PhotoSide = "back"
	SideInterior PhotoSide = "interior"
)

// PhotoSides lists every side in display order.
var PhotoSides = []PhotoSide{SideLeft, SideRight, SideFront, SideBack, SideInterior}

// IsValidPhotoSide checks if a side name is known
func IsValidPhotoSide(side PhotoSide) bool {
	for _, s := range PhotoSides {
		if s == side {
			return true
		}
	}
	return false
}

// TruckImageURLs holds the public photo URL per side.
type TruckImageURLs struct {
	Left     *string `json:"left,omitempty"`
	Right    *string `json:"right,omitempty"`
	Front    *string `json:"front,omitempty"`
	Back     *string `json:"back,omitempty"`
	Interior *string `json:"interior,omitempty"`
}

// Get returns the URL for a side, empty when unset.
func (u *TruckImageURLs) Get(side PhotoSide) string {
	if u == nil {
		return ""
	}
	switch side {
	case SideLeft:
		return deref(u.Left)
	case SideRight:
		return deref(u.Right)
	case SideFront:
		return deref(u.Front)
	case SideBack:
		return deref(u.Back)
	case SideInterior:
		return deref(u.Interior)
	}
	return ""
}

// Set stores the URL for a side. Empty values clear the side.
func (u *TruckImageURLs) Set(side PhotoSide, url string) {
	p := StringPtr(url)
	switch side {
	case SideLeft:
		u.Left = p
	case SideRight:
		u.Right = p
	case SideFront:
		u.Front = p
	case SideBack:
		u.Back = p
	case SideInterior:
		u.Interior = p
	}
}

// Count returns how many sides have a photo.
func (u *TruckImageURLs) Count() int {
	n := 0
	for _, side := range PhotoSides {
		if u.Get(side) != "" {
			n++
		}
	}
	return n
}

// TruckImageSubmission is the stored photo set of one truck.
type TruckImageSubmission struct {
	Truckplate string          `json:"truckplate"`
	ImageURLs  *TruckImageURLs `json:"image_urls"`
	Approve    bool            `json:"approve"`
	CreatedAt  string          `json:"created_at,omitempty"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
}

// TruckImageSubmissionCreate creates a photo set.
type TruckImageSubmissionCreate struct {
	Truckplate string          `json:"truckplate"`
	ImageURLs  *TruckImageURLs `json:"image_urls,omitempty"`
	Approve    bool            `json:"approve"`
}

// TruckImageSubmissionUpdate replaces the photos of an existing set.
type TruckImageSubmissionUpdate struct {
	ImageURLs *TruckImageURLs `json:"image_urls,omitempty"`
	Approve   bool            `json:"approve"`
}
