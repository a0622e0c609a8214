package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kargoline/tmsgo/internal/services/repair"
)

// repairReattach re-links orphaned cancelled job orders to empty manifests
func (r *Router) repairReattach(w http.ResponseWriter, req *http.Request) {
	r.runRepair(w, req, r.repairs.ReattachOrphans)
}

// repairRecalculate re-derives all manifest aggregates
func (r *Router) repairRecalculate(w http.ResponseWriter, req *http.Request) {
	r.runRepair(w, req, r.repairs.RecalculateAll)
}

// repairReleaseInvoices releases stale source references on cancelled invoices
func (r *Router) repairReleaseInvoices(w http.ResponseWriter, req *http.Request) {
	r.runRepair(w, req, r.repairs.ReleaseInvoiceSources)
}

func (r *Router) runRepair(w http.ResponseWriter, req *http.Request, job func(context.Context, repair.Options) (*repair.Report, error)) {
	var opts repair.Options
	if req.Body != nil {
		if err := json.NewDecoder(req.Body).Decode(&opts); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	report, err := job(req.Context(), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
