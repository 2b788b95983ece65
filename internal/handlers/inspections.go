package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ukydev/fleetfix/internal/service"
)

// InspectionHandler serves the truck inspection screen.
type InspectionHandler struct {
	inspections InspectionService
	auth        AuthService
}

// NewInspectionHandler creates an inspection handler.
func NewInspectionHandler(inspections InspectionService, authService AuthService) *InspectionHandler {
	return &InspectionHandler{inspections: inspections, auth: authService}
}

// Checklist returns the items to check for a customer.
func (h *InspectionHandler) Checklist(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	items, err := h.inspections.Checklist(r.Context(), actor, r.URL.Query().Get("customer"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Records lists the caller's inspections, optionally for one truck.
func (h *InspectionHandler) Records(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	res, err := h.inspections.Records(r.Context(), actor, r.URL.Query().Get("truckplate"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type inspectionItemForm struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Item     string `json:"item"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

// Submit stores an inspection. Form fields: truckplate, trucknum, optional
// mileage and items as a JSON array; an item's photo goes in image_<id>.
func (h *InspectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	if err := parseMultipart(w, r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub := service.InspectionSubmission{
		Truckplate: r.FormValue("truckplate"),
		TruckNum:   r.FormValue("trucknum"),
	}
	if raw := strings.TrimSpace(r.FormValue("mileage")); raw != "" {
		mileage, err := strconv.Atoi(raw)
		if err != nil || mileage < 0 {
			respondError(w, http.StatusBadRequest, service.ErrInvalidMileage.Error())
			return
		}
		sub.Mileage = &mileage
	}

	var items []inspectionItemForm
	if err := jsonField(r, "items", &items); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, it := range items {
		img, err := formFile(r, "image_"+it.ID)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		sub.Items = append(sub.Items, service.InspectionItem{
			ID:       it.ID,
			Category: it.Category,
			Name:     it.Item,
			Status:   it.Status,
			Notes:    it.Notes,
			Image:    img,
		})
	}

	res, err := h.inspections.Submit(r.Context(), actor, sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}
