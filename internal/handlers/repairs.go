package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/service"
	"github.com/ukydev/fleetfix/internal/upload"
)

// RepairHandler serves the repair list and repair detail screens.
type RepairHandler struct {
	repairs RepairService
	auth    AuthService
}

// NewRepairHandler creates a repair handler.
func NewRepairHandler(repairs RepairService, authService AuthService) *RepairHandler {
	return &RepairHandler{repairs: repairs, auth: authService}
}

// List returns one page of the caller's repair list.
func (h *RepairHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	res, err := h.repairs.List(r.Context(), actor, listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Refresh bypasses the cache for the caller's current filters.
func (h *RepairHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	res, err := h.repairs.Refresh(r.Context(), actor, listQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Summary lists tasks for the selected requests. Codes come as repeated
// code parameters or one comma separated value.
func (h *RepairHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var codes []string
	for _, v := range r.URL.Query()["code"] {
		codes = append(codes, strings.Split(v, ",")...)
	}
	res, err := h.repairs.Summary(r.Context(), codes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Detail returns a request's tasks and repair records.
func (h *RepairHandler) Detail(w http.ResponseWriter, r *http.Request) {
	res, err := h.repairs.Detail(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// SaveTask stores the mechanic's description and photos for one task.
// Photos are sent as image_1, image_2 and image_3.
func (h *RepairHandler) SaveTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	vars := mux.Vars(r)
	taskID, err := strconv.Atoi(vars["taskID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task id")
		return
	}
	if err := parseMultipart(w, r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := service.SaveTaskInput{
		Code:        vars["code"],
		TaskID:      taskID,
		Description: r.FormValue("description"),
		Images:      make([]*upload.File, models.MaxRepairImages),
	}
	for i := range in.Images {
		f, err := formFile(r, fmt.Sprintf("image_%d", i+1))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Images[i] = f
	}

	rec, err := h.repairs.SaveTask(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "record": rec})
}

// Complete marks every saved task of a request completed.
func (h *RepairHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFor(h.auth, r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	records, err := h.repairs.Complete(r.Context(), actor, mux.Vars(r)["code"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(records),
		"records": records,
	})
}

// Autocomplete suggests customers and plants.
func (h *RepairHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	res, err := h.repairs.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
