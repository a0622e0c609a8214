package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/services/assignment"
	"github.com/kargoline/tmsgo/internal/services/cancel"
	"github.com/kargoline/tmsgo/internal/services/cascade"
	"github.com/kargoline/tmsgo/internal/services/repair"
	"github.com/kargoline/tmsgo/internal/store"
)

// Router wraps the mux router and the services behind the API
type Router struct {
	*mux.Router
	store       *store.Store
	cascade     *cascade.Service
	cancel      *cancel.Service
	assignments *assignment.Service
	repairs     *repair.Service
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(st *store.Store, casc *cascade.Service, cnc *cancel.Service, asg *assignment.Service, rep *repair.Service) *Router {
	r := &Router{
		Router:      mux.NewRouter(),
		store:       st,
		cascade:     casc,
		cancel:      cnc,
		assignments: asg,
		repairs:     rep,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", r.getStatus).Methods("GET")

	// Master data
	api.HandleFunc("/customers", r.listCustomers).Methods("GET")
	api.HandleFunc("/customers", r.createCustomer).Methods("POST")
	api.HandleFunc("/drivers", r.listDrivers).Methods("GET")
	api.HandleFunc("/drivers", r.createDriver).Methods("POST")
	api.HandleFunc("/vehicles", r.listVehicles).Methods("GET")
	api.HandleFunc("/vehicles", r.createVehicle).Methods("POST")

	// Job orders
	api.HandleFunc("/joborders", r.listJobOrders).Methods("GET")
	api.HandleFunc("/joborders", r.createJobOrder).Methods("POST")
	api.HandleFunc("/joborders/{doc}", r.getJobOrder).Methods("GET")
	api.HandleFunc("/joborders/{doc}", r.updateJobOrder).Methods("PUT")
	api.HandleFunc("/joborders/{doc}", r.deleteJobOrder).Methods("DELETE")
	api.HandleFunc("/joborders/{doc}/restore", r.restoreJobOrder).Methods("POST")
	api.HandleFunc("/joborders/{doc}/status", r.transitionJobOrder).Methods("POST")
	api.HandleFunc("/joborders/{doc}/cancel", r.cancelJobOrder).Methods("POST")
	api.HandleFunc("/joborders/{doc}/history", r.jobOrderHistory).Methods("GET")
	api.HandleFunc("/joborders/{doc}/qr", r.jobOrderQR).Methods("GET")

	// Manifests
	api.HandleFunc("/manifests", r.listManifests).Methods("GET")
	api.HandleFunc("/manifests", r.createManifest).Methods("POST")
	api.HandleFunc("/manifests/{doc}", r.getManifest).Methods("GET")
	api.HandleFunc("/manifests/{doc}/status", r.transitionManifest).Methods("POST")
	api.HandleFunc("/manifests/{doc}/cancel", r.cancelManifest).Methods("POST")
	api.HandleFunc("/manifests/{doc}/joborders", r.linkJobOrder).Methods("POST")
	api.HandleFunc("/manifests/{doc}/joborders/{jo}", r.unlinkJobOrder).Methods("DELETE")
	api.HandleFunc("/manifests/{doc}/recalculate", r.recalculateManifest).Methods("POST")

	// Delivery orders
	api.HandleFunc("/deliveryorders", r.listDeliveryOrders).Methods("GET")
	api.HandleFunc("/deliveryorders", r.createDeliveryOrder).Methods("POST")
	api.HandleFunc("/deliveryorders/{doc}", r.getDeliveryOrder).Methods("GET")
	api.HandleFunc("/deliveryorders/{doc}/cancel", r.cancelDeliveryOrder).Methods("POST")

	// Invoices
	api.HandleFunc("/invoices", r.listInvoices).Methods("GET")
	api.HandleFunc("/invoices", r.createInvoice).Methods("POST")
	api.HandleFunc("/invoices/{doc}", r.getInvoice).Methods("GET")
	api.HandleFunc("/invoices/{doc}/pay", r.payInvoice).Methods("POST")
	api.HandleFunc("/invoices/{doc}/cancel", r.cancelInvoice).Methods("POST")

	// Assignments
	api.HandleFunc("/assignments/accept", r.acceptAssignment).Methods("POST")
	api.HandleFunc("/assignments/complete", r.completeAssignment).Methods("POST")

	// Repair jobs (operator tooling)
	api.HandleFunc("/repair/reattach-orphans", r.repairReattach).Methods("POST")
	api.HandleFunc("/repair/recalculate-manifests", r.repairRecalculate).Methods("POST")
	api.HandleFunc("/repair/release-invoice-sources", r.repairReleaseInvoices).Methods("POST")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns the current status
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"service": "tms-backoffice",
	})
}

// actorFrom reads the audit identity the gateway forwards with each request.
// Audit stamping is always explicit; there is no ambient current-user state.
func actorFrom(req *http.Request) string {
	if a := req.Header.Get("X-Actor"); a != "" {
		return a
	}
	return "api"
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps the shared error kinds onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrInvalidTransition):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errs.ErrInvariantViolation):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
