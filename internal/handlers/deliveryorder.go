package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
)

// listDeliveryOrders returns all delivery orders
func (r *Router) listDeliveryOrders(w http.ResponseWriter, req *http.Request) {
	dos, err := r.store.ListDeliveryOrders(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dos)
}

// getDeliveryOrder returns a delivery order with its derived crew
func (r *Router) getDeliveryOrder(w http.ResponseWriter, req *http.Request) {
	do, err := r.store.GetDeliveryOrder(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	crew, err := r.assignments.ResolveCrew(req.Context(), do)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"delivery_order": do,
		"crew":           crew,
	})
}

// createDeliveryOrder generates a dispatch document from a job order or a
// manifest
func (r *Router) createDeliveryOrder(w http.ResponseWriter, req *http.Request) {
	var do models.DeliveryOrder
	if err := json.NewDecoder(req.Body).Decode(&do); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// The source document must exist.
	switch do.Source.Type {
	case models.SourceJobOrder:
		jo, err := r.store.GetJobOrder(req.Context(), do.Source.ID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if do.GoodsSummary == "" {
			do.GoodsSummary = jo.GoodsDescription
		}
	case models.SourceManifest:
		mf, err := r.store.GetManifest(req.Context(), do.Source.ID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if do.GoodsSummary == "" {
			do.GoodsSummary = mf.CargoSummary
		}
	default:
		respondError(w, http.StatusBadRequest, "source_type must be job_order or manifest")
		return
	}

	if do.DODate == nil {
		now := time.Now().UTC()
		do.DODate = &now
	}

	if err := r.store.CreateDeliveryOrder(req.Context(), &do); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, do)
}

// cancelDeliveryOrder cancels a dispatch document. Allowed from any state.
func (r *Router) cancelDeliveryOrder(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	do, err := r.store.GetDeliveryOrder(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if do.IsCancelled() {
		respondServiceError(w, errs.InvalidTransition("delivery order", string(do.Status), string(models.DeliveryOrderStatusCancelled)))
		return
	}

	now := time.Now().UTC()
	do.Status = models.DeliveryOrderStatusCancelled
	do.CancelledAt = &now
	do.CancellationReason = body.Reason

	if err := r.store.SaveDeliveryOrder(req.Context(), do); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, do)
}
