// Package cancel implements the cancellation orchestrator: the cancel
// operations for job orders, manifests and invoices, including the resource
// release each one carries.
package cancel

import (
	"context"
	"fmt"
	"time"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service orchestrates document cancellation
type Service struct {
	store *store.Store
	log   *logrus.Entry
}

// New creates the cancellation service
func New(st *store.Store) *Service {
	return &Service{
		store: st,
		log:   logrus.WithField("component", "cancel"),
	}
}

// CancelJobOrder cancels a job order: stamps cancellation metadata, appends a
// status history row, cancels the active assignment (freeing the driver when
// idle), cancels dispatch documents generated directly from the job order,
// and fires the cascade so every containing manifest recalculates. The job
// order stays linked to its manifests; cancelled cargo remains part of the
// audit totals.
func (s *Service) CancelJobOrder(ctx context.Context, doc, reason, actor string, trigger models.TriggerType) (*models.JobOrder, error) {
	jo, err := s.store.MutateJobOrder(ctx, doc, func(tx *gorm.DB, jo *models.JobOrder) error {
		if !models.CanTransitionJobOrder(jo.Status, models.JobOrderStatusCancelled) {
			return errs.InvalidTransition("job order", string(jo.Status), string(models.JobOrderStatusCancelled))
		}

		now := time.Now().UTC()
		jo.Status = models.JobOrderStatusCancelled
		jo.CancelledAt = &now
		jo.CancellationReason = reason

		if err := store.AppendStatusHistory(tx, jo, actor, reason, trigger); err != nil {
			return err
		}
		if err := releaseAssignment(tx, jo.ID); err != nil {
			return err
		}
		return cancelDirectDeliveryOrders(tx, jo, reason, now)
	})
	if err != nil {
		return jo, err
	}

	s.log.WithFields(logrus.Fields{
		"job_order": doc,
		"actor":     actor,
		"trigger":   trigger,
	}).Info("job order cancelled")
	return jo, nil
}

// releaseAssignment cancels the job order's active assignment and flips the
// driver back to available when no other active assignment remains.
func releaseAssignment(tx *gorm.DB, jobOrderID uint) error {
	var a models.Assignment
	err := tx.Where("job_order_id = ? AND status = ?", jobOrderID, models.AssignmentStatusActive).
		First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return errs.Persistence("load active assignment", err)
	}

	a.Status = models.AssignmentStatusCancelled
	if err := tx.Save(&a).Error; err != nil {
		return errs.Persistence("cancel assignment", err)
	}

	var remaining int64
	err = tx.Model(&models.Assignment{}).
		Where("driver_id = ? AND status = ?", a.DriverID, models.AssignmentStatusActive).
		Count(&remaining).Error
	if err != nil {
		return errs.Persistence("count driver assignments", err)
	}
	if remaining == 0 {
		err = tx.Model(&models.Driver{}).
			Where("id = ?", a.DriverID).
			Update("status", models.DriverStatusAvailable).Error
		if err != nil {
			return errs.Persistence("release driver", err)
		}
	}
	return nil
}

// cancelDirectDeliveryOrders cancels dispatch documents whose source is the
// job order itself. Manifest-sourced dispatch documents are left alone: the
// trip may still run with other cargo.
func cancelDirectDeliveryOrders(tx *gorm.DB, jo *models.JobOrder, reason string, now time.Time) error {
	var dos []models.DeliveryOrder
	err := tx.Where("source_type = ? AND source_id = ? AND status <> ?",
		models.SourceJobOrder, jo.DocNumber, models.DeliveryOrderStatusCancelled).
		Find(&dos).Error
	if err != nil {
		return errs.Persistence("list delivery orders", err)
	}
	for i := range dos {
		do := &dos[i]
		do.Status = models.DeliveryOrderStatusCancelled
		do.CancelledAt = &now
		do.CancellationReason = fmt.Sprintf("job order %s cancelled: %s", jo.DocNumber, reason)
		if err := tx.Save(do).Error; err != nil {
			return errs.Persistence("cancel delivery order", err)
		}
	}
	return nil
}

// CancelManifest cancels a manifest. Only the manifest's own status and
// metadata change: the job order links and the cargo totals stay exactly as
// they are.
func (s *Service) CancelManifest(ctx context.Context, doc, reason, actor string) (*models.Manifest, error) {
	mf, err := s.store.GetManifest(ctx, doc)
	if err != nil {
		return nil, err
	}

	if !mf.ApplyTransition(models.ManifestStatusCancelled, time.Now().UTC()) {
		return nil, errs.InvalidTransition("manifest", string(mf.Status), string(models.ManifestStatusCancelled))
	}
	mf.CancellationReason = reason

	if err := s.store.SaveManifest(ctx, mf); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"manifest": doc, "actor": actor}).Info("manifest cancelled")
	return mf, nil
}

// CancelInvoice cancels an invoice and releases its source linkage so the
// underlying document can be billed again. The original reference is kept in
// a human-readable note; nothing ever re-attaches a released source.
func (s *Service) CancelInvoice(ctx context.Context, doc, actor string) (*models.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, doc)
	if err != nil {
		return nil, err
	}
	if inv.IsTerminal() {
		return nil, errs.InvalidTransition("invoice", string(inv.Status), string(models.InvoiceStatusCancelled))
	}

	now := time.Now().UTC()
	inv.Status = models.InvoiceStatusCancelled
	inv.CancelledAt = &now
	ReleaseSource(inv)

	if err := s.store.SaveInvoice(ctx, inv); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"invoice": doc, "actor": actor}).Info("invoice cancelled, source released")
	return inv, nil
}

// ReleaseSource clears the invoice's source reference, preserving the
// original value in the notes. Shared with the retroactive repair job.
func ReleaseSource(inv *models.Invoice) {
	if inv.Source.IsZero() {
		return
	}
	note := fmt.Sprintf("[source released] was %s", inv.Source.String())
	if inv.Notes != "" {
		inv.Notes += "\n"
	}
	inv.Notes += note
	inv.Source = models.SourceRef{}
}
