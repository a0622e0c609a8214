package store

import (
	"context"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
)

// GetDeliveryOrder loads a delivery order by document number
func (s *Store) GetDeliveryOrder(ctx context.Context, doc string) (*models.DeliveryOrder, error) {
	var do models.DeliveryOrder
	err := s.db.WithContext(ctx).Where("doc_number = ?", doc).First(&do).Error
	if err != nil {
		return nil, translate("delivery order", doc, err)
	}
	return &do, nil
}

// ListDeliveryOrders returns all delivery orders, newest first
func (s *Store) ListDeliveryOrders(ctx context.Context) ([]models.DeliveryOrder, error) {
	var dos []models.DeliveryOrder
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&dos).Error; err != nil {
		return nil, errs.Persistence("list delivery orders", err)
	}
	return dos, nil
}

// CreateDeliveryOrder persists a new delivery order
func (s *Store) CreateDeliveryOrder(ctx context.Context, do *models.DeliveryOrder) error {
	if err := s.db.WithContext(ctx).Create(do).Error; err != nil {
		return errs.Persistence("create delivery order", err)
	}
	return nil
}

// SaveDeliveryOrder persists delivery order changes
func (s *Store) SaveDeliveryOrder(ctx context.Context, do *models.DeliveryOrder) error {
	if err := s.db.WithContext(ctx).Save(do).Error; err != nil {
		return errs.Persistence("save delivery order", err)
	}
	return nil
}

// DeliveryOrdersForJobOrder returns delivery orders generated directly from
// the job order, plus manifest-sourced ones selecting it (the
// less-than-truckload case).
func (s *Store) DeliveryOrdersForJobOrder(ctx context.Context, jo *models.JobOrder) ([]models.DeliveryOrder, error) {
	var dos []models.DeliveryOrder
	err := s.db.WithContext(ctx).
		Where("(source_type = ? AND source_id = ?) OR selected_job_order_id = ?",
			models.SourceJobOrder, jo.DocNumber, jo.ID).
		Find(&dos).Error
	if err != nil {
		return nil, errs.Persistence("list delivery orders for job order", err)
	}
	return dos, nil
}

// GetInvoice loads an invoice by document number
func (s *Store) GetInvoice(ctx context.Context, doc string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Where("doc_number = ?", doc).First(&inv).Error
	if err != nil {
		return nil, translate("invoice", doc, err)
	}
	return &inv, nil
}

// ListInvoices returns all invoices, newest first
func (s *Store) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, errs.Persistence("list invoices", err)
	}
	return invoices, nil
}

// CreateInvoice persists a new invoice. The source document must not already
// carry a live invoice.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if !inv.Source.IsZero() {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Invoice{}).
			Where("source_type = ? AND source_id = ? AND status <> ?",
				inv.Source.Type, inv.Source.ID, models.InvoiceStatusCancelled).
			Count(&count).Error
		if err != nil {
			return errs.Persistence("check invoice source", err)
		}
		if count > 0 {
			return errs.InvariantViolation("document " + inv.Source.String() + " already has a live invoice")
		}
	}
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return errs.Persistence("create invoice", err)
	}
	return nil
}

// SaveInvoice persists invoice changes
func (s *Store) SaveInvoice(ctx context.Context, inv *models.Invoice) error {
	if err := s.db.WithContext(ctx).Save(inv).Error; err != nil {
		return errs.Persistence("save invoice", err)
	}
	return nil
}

// CancelledInvoicesWithSource returns cancelled invoices that still carry a
// source reference. Input for the invoice-release repair.
func (s *Store) CancelledInvoicesWithSource(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Where("status = ? AND source_id IS NOT NULL AND source_id <> ''", models.InvoiceStatusCancelled).
		Find(&invoices).Error
	if err != nil {
		return nil, errs.Persistence("list cancelled invoices", err)
	}
	return invoices, nil
}
