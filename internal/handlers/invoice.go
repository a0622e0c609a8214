package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
)

// listInvoices returns all invoices with their effective (overdue-aware)
// status
func (r *Router) listInvoices(w http.ResponseWriter, req *http.Request) {
	invoices, err := r.store.ListInvoices(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	now := time.Now().UTC()
	type invoiceView struct {
		models.Invoice
		EffectiveStatus models.InvoiceStatus `json:"effective_status"`
	}
	views := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, invoiceView{Invoice: inv, EffectiveStatus: inv.EffectiveStatus(now)})
	}
	respondJSON(w, http.StatusOK, views)
}

// getInvoice returns a single invoice by document number
func (r *Router) getInvoice(w http.ResponseWriter, req *http.Request) {
	inv, err := r.store.GetInvoice(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// createInvoice bills a job order, manifest or delivery order
func (r *Router) createInvoice(w http.ResponseWriter, req *http.Request) {
	var inv models.Invoice
	if err := json.NewDecoder(req.Body).Decode(&inv); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := r.store.CreateInvoice(req.Context(), &inv); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// payInvoice settles a pending invoice
func (r *Router) payInvoice(w http.ResponseWriter, req *http.Request) {
	var body struct {
		PaidAmount  float64         `json:"paid_amount"`
		PaymentMeta json.RawMessage `json:"payment_meta,omitempty"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	inv, err := r.store.GetInvoice(req.Context(), mux.Vars(req)["doc"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if inv.IsTerminal() {
		respondServiceError(w, errs.InvalidTransition("invoice", string(inv.Status), string(models.InvoiceStatusPaid)))
		return
	}

	now := time.Now().UTC()
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAmount = body.PaidAmount
	inv.PaidAt = &now
	if len(body.PaymentMeta) > 0 {
		inv.PaymentMeta = []byte(body.PaymentMeta)
	}

	if err := r.store.SaveInvoice(req.Context(), inv); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// cancelInvoice cancels an invoice and releases its source for rebilling
func (r *Router) cancelInvoice(w http.ResponseWriter, req *http.Request) {
	inv, err := r.cancel.CancelInvoice(req.Context(), mux.Vars(req)["doc"], actorFrom(req))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}
