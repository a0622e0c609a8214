package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
)

// listManifests returns all manifests
func (r *Router) listManifests(w http.ResponseWriter, req *http.Request) {
	manifests, err := r.store.ListManifests(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, manifests)
}

// getManifest returns a manifest together with its linked job orders
func (r *Router) getManifest(w http.ResponseWriter, req *http.Request) {
	mf, err := r.store.GetManifest(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	orders, err := r.store.LinkedJobOrdersOf(req.Context(), mf.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"manifest":   mf,
		"job_orders": orders,
	})
}

// createManifest creates a new manifest. Derived aggregate fields are not
// accepted from the client; they belong to the recalculation engine.
func (r *Router) createManifest(w http.ResponseWriter, req *http.Request) {
	var mf models.Manifest
	if err := json.NewDecoder(req.Body).Decode(&mf); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	mf.CargoWeight = 0
	mf.CargoSummary = ""

	if err := r.store.CreateManifest(req.Context(), &mf); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mf)
}

// transitionManifest applies a forward status transition, stamping the
// matching timestamp
func (r *Router) transitionManifest(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Status models.ManifestStatus `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	mf, err := r.store.GetManifest(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if !mf.ApplyTransition(body.Status, time.Now().UTC()) {
		respondServiceError(w, errs.InvalidTransition("manifest", string(mf.Status), string(body.Status)))
		return
	}
	if err := r.store.SaveManifest(req.Context(), mf); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mf)
}

// cancelManifest cancels a manifest without touching its cargo links
func (r *Router) cancelManifest(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	mf, err := r.cancel.CancelManifest(req.Context(), mux.Vars(req)["doc"], body.Reason, actorFrom(req))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mf)
}

// linkJobOrder adds a job order to the manifest and recalculates
func (r *Router) linkJobOrder(w http.ResponseWriter, req *http.Request) {
	var body struct {
		JobOrder string `json:"job_order"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := r.store.LinkJobOrder(req.Context(), mux.Vars(req)["doc"], body.JobOrder); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "job order linked",
	})
}

// unlinkJobOrder removes a job order from the manifest and recalculates
func (r *Router) unlinkJobOrder(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	if err := r.store.UnlinkJobOrder(req.Context(), vars["doc"], vars["jo"]); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "job order unlinked",
	})
}

// recalculateManifest re-derives the manifest aggregates on demand
func (r *Router) recalculateManifest(w http.ResponseWriter, req *http.Request) {
	out, err := r.cascade.Recalculate(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
