package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/service"
	"github.com/ukydev/fleetfix/internal/upload"
)

// TruckHandler serves truck search, tire tread and truck photos.
type TruckHandler struct {
	tires       TireService
	photos      PhotoService
	inspections InspectionService
	auth        AuthService
}

// NewTruckHandler creates a truck handler.
func NewTruckHandler(tires TireService, photos PhotoService, inspections InspectionService, authService AuthService) *TruckHandler {
	return &TruckHandler{tires: tires, photos: photos, inspections: inspections, auth: authService}
}

// Search finds trucks by plate. It always answers with a list.
func (h *TruckHandler) Search(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	trucks := h.inspections.SearchTrucks(r.Context(), actor, r.URL.Query().Get("q"))
	if trucks == nil {
		trucks = []models.Truck{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"trucks": trucks})
}

// GetTires lists the tires of a truck.
func (h *TruckHandler) GetTires(w http.ResponseWriter, r *http.Request) {
	res, err := h.tires.Get(r.Context(), mux.Vars(r)["plate"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type tireReadingForm struct {
	TirePosition string   `json:"tire_position"`
	SerialNo     string   `json:"serial_no"`
	LastMM       *float64 `json:"last_mm"`
}

type failedTireForm struct {
	TirePosition string `json:"tire_position"`
	SerialNo     string `json:"serial_no"`
	Notes        string `json:"notes"`
}

// SubmitTires records tread readings. Form fields: readings and failed as
// JSON arrays; a failed tire's photo goes in failed_image_<index>.
func (h *TruckHandler) SubmitTires(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	if err := parseMultipart(w, r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var readings []tireReadingForm
	var failed []failedTireForm
	if err := jsonField(r, "readings", &readings); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := jsonField(r, "failed", &failed); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var sub service.TireSubmission
	for _, rd := range readings {
		// a blank reading is reported as missing by the service
		if rd.LastMM == nil {
			continue
		}
		sub.Readings = append(sub.Readings, service.TireReading{
			Position: rd.TirePosition,
			SerialNo: rd.SerialNo,
			LastMM:   *rd.LastMM,
		})
	}
	for i, ft := range failed {
		img, err := formFile(r, fmt.Sprintf("failed_image_%d", i))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		sub.Failed = append(sub.Failed, service.FailedTire{
			Position: ft.TirePosition,
			SerialNo: ft.SerialNo,
			Notes:    ft.Notes,
			Image:    img,
		})
	}

	res, err := h.tires.Submit(r.Context(), actor, mux.Vars(r)["plate"], sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetPhotos returns the truck's photo set; submission is null when none exists.
func (h *TruckHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	plate := mux.Vars(r)["plate"]
	sub, err := h.photos.Get(r.Context(), plate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"truckplate": plate, "submission": sub})
}

// SubmitPhotos uploads photos sent in fields named after the side
// (left, right, front, back, interior).
func (h *TruckHandler) SubmitPhotos(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	photos := make(map[models.PhotoSide]*upload.File)
	for _, field := range fileFields(r) {
		f, err := formFile(r, field)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		photos[models.PhotoSide(field)] = f
	}

	res, err := h.photos.Submit(r.Context(), mux.Vars(r)["plate"], photos)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
