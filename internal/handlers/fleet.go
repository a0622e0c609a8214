package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kargoline/tmsgo/internal/models"
)

// listCustomers returns all customers
func (r *Router) listCustomers(w http.ResponseWriter, req *http.Request) {
	customers, err := r.store.ListCustomers(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

// createCustomer registers a new customer
func (r *Router) createCustomer(w http.ResponseWriter, req *http.Request) {
	var c models.Customer
	if err := json.NewDecoder(req.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if c.Name == "" {
		respondError(w, http.StatusBadRequest, "Customer name is required")
		return
	}

	if err := r.store.CreateCustomer(req.Context(), &c); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// listDrivers returns all drivers
func (r *Router) listDrivers(w http.ResponseWriter, req *http.Request) {
	drivers, err := r.store.ListDrivers(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, drivers)
}

// createDriver registers a new driver. New drivers start out available.
func (r *Router) createDriver(w http.ResponseWriter, req *http.Request) {
	var d models.Driver
	if err := json.NewDecoder(req.Body).Decode(&d); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if d.Name == "" || d.LicenseNo == "" {
		respondError(w, http.StatusBadRequest, "Driver name and license_no are required")
		return
	}
	if d.Status == "" {
		d.Status = models.DriverStatusAvailable
	}

	if err := r.store.CreateDriver(req.Context(), &d); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// listVehicles returns all vehicles
func (r *Router) listVehicles(w http.ResponseWriter, req *http.Request) {
	vehicles, err := r.store.ListVehicles(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vehicles)
}

// createVehicle registers a new vehicle
func (r *Router) createVehicle(w http.ResponseWriter, req *http.Request) {
	var v models.Vehicle
	if err := json.NewDecoder(req.Body).Decode(&v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if v.PlateNumber == "" {
		respondError(w, http.StatusBadRequest, "Vehicle plate_number is required")
		return
	}

	if err := r.store.CreateVehicle(req.Context(), &v); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}
