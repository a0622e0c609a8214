package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/store"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// listJobOrders returns all job orders
func (r *Router) listJobOrders(w http.ResponseWriter, req *http.Request) {
	orders, err := r.store.ListJobOrders(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// getJobOrder returns a single job order by document number
func (r *Router) getJobOrder(w http.ResponseWriter, req *http.Request) {
	jo, err := r.store.GetJobOrder(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jo)
}

// createJobOrder creates a new job order
func (r *Router) createJobOrder(w http.ResponseWriter, req *http.Request) {
	var jo models.JobOrder
	if err := json.NewDecoder(req.Body).Decode(&jo); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := r.store.CreateJobOrder(req.Context(), &jo); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, jo)
}

// updateJobOrder updates an existing job order. The write goes through the
// store's single mutation path, so the cascade fires afterwards.
func (r *Router) updateJobOrder(w http.ResponseWriter, req *http.Request) {
	raw, err := io.ReadAll(req.Body)
	if err != nil || !json.Valid(raw) {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	jo, err := r.store.MutateJobOrder(req.Context(), mux.Vars(req)["doc"],
		func(tx *gorm.DB, jo *models.JobOrder) error {
			return json.Unmarshal(raw, jo)
		})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jo)
}

// deleteJobOrder soft-deletes a job order
func (r *Router) deleteJobOrder(w http.ResponseWriter, req *http.Request) {
	if err := r.store.DeleteJobOrder(req.Context(), mux.Vars(req)["doc"]); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "job order deleted",
	})
}

// restoreJobOrder undoes a soft delete
func (r *Router) restoreJobOrder(w http.ResponseWriter, req *http.Request) {
	if err := r.store.RestoreJobOrder(req.Context(), mux.Vars(req)["doc"]); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "job order restored",
	})
}

// transitionJobOrder applies a forward status transition
func (r *Router) transitionJobOrder(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Status models.JobOrderStatus `json:"status"`
		Notes  string                `json:"notes"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	actor := actorFrom(req)

	// Cancellation is never a bare status write: it stamps metadata, releases
	// the assignment and cancels direct dispatch documents, so it always runs
	// through the orchestrator.
	if body.Status == models.JobOrderStatusCancelled {
		jo, err := r.cancel.CancelJobOrder(req.Context(), mux.Vars(req)["doc"], body.Notes, actor, models.TriggerUser)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, jo)
		return
	}

	jo, err := r.store.MutateJobOrder(req.Context(), mux.Vars(req)["doc"],
		func(tx *gorm.DB, jo *models.JobOrder) error {
			if !models.CanTransitionJobOrder(jo.Status, body.Status) {
				return errs.InvalidTransition("job order", string(jo.Status), string(body.Status))
			}
			jo.Status = body.Status
			return store.AppendStatusHistory(tx, jo, actor, body.Notes, models.TriggerUser)
		})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jo)
}

// cancelJobOrder cancels a job order and cascades
func (r *Router) cancelJobOrder(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	jo, err := r.cancel.CancelJobOrder(req.Context(), mux.Vars(req)["doc"], body.Reason, actorFrom(req), models.TriggerUser)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jo)
}

// jobOrderHistory returns the append-only transition log
func (r *Router) jobOrderHistory(w http.ResponseWriter, req *http.Request) {
	jo, err := r.store.GetJobOrder(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	rows, err := r.store.StatusHistoryOf(req.Context(), jo.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// jobOrderQR renders the job order's QR payload as a PNG label
func (r *Router) jobOrderQR(w http.ResponseWriter, req *http.Request) {
	jo, err := r.store.GetJobOrder(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	png, err := qrcode.Encode(jo.QRCodeString, qrcode.Medium, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
