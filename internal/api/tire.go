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

var (
	ErrPlateRequired       = errors.New("truck plate is required")
	ErrTireIdentityMissing = errors.New("serial no and tire position are required")
	ErrNegativeMileage     = errors.New("last mileage must be a positive number")
)

// TireClient talks to the tire API.
type TireClient struct {
	*Client
}

// NewTireClient creates a tire API client.
func NewTireClient(baseURL string, timeout time.Duration) *TireClient {
	return &TireClient{Client: NewClient(baseURL, timeout)}
}

// ByTruck lists the tires mounted on a truck.
func (c *TireClient) ByTruck(ctx context.Context, plate string) (*models.TruckTires, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, ErrPlateRequired
	}
	var resp models.TruckTires
	if err := c.Do(ctx, http.MethodGet, "/tire/truck/"+url.PathEscape(plate), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateTreadUpdate checks an update before it is sent.
func ValidateTreadUpdate(plate string, u models.TireTreadUpdate) error {
	if strings.TrimSpace(plate) == "" {
		return ErrPlateRequired
	}
	if u.SerialNo == "" || u.TirePosition == "" {
		return ErrTireIdentityMissing
	}
	if u.LastMM < 0 {
		return ErrNegativeMileage
	}
	return nil
}

// UpdateLastMM records the latest tread depth of a tire.
func (c *TireClient) UpdateLastMM(ctx context.Context, plate string, u models.TireTreadUpdate) (*models.TireMileage, error) {
	if err := ValidateTreadUpdate(plate, u); err != nil {
		return nil, err
	}
	var resp models.TireMileage
	path := "/tire/update-last-mm/" + url.PathEscape(strings.TrimSpace(plate))
	if err := c.Do(ctx, http.MethodPost, path, nil, u, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
