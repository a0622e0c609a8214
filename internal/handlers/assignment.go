package handlers

import (
	"encoding/json"
	"net/http"
)

// acceptAssignment binds a driver (and optionally a vehicle) to a job order
func (r *Router) acceptAssignment(w http.ResponseWriter, req *http.Request) {
	var body struct {
		JobOrder  string `json:"job_order"`
		DriverID  uint   `json:"driver_id"`
		VehicleID *uint  `json:"vehicle_id,omitempty"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	a, err := r.assignments.Accept(req.Context(), body.JobOrder, body.DriverID, body.VehicleID, actorFrom(req))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// completeAssignment closes out a driver's assignment on a job order
func (r *Router) completeAssignment(w http.ResponseWriter, req *http.Request) {
	var body struct {
		JobOrder string `json:"job_order"`
		DriverID uint   `json:"driver_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	a, err := r.assignments.Complete(req.Context(), body.JobOrder, body.DriverID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
