package store

import (
	"context"
	"time"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GetJobOrder loads a job order by document number
func (s *Store) GetJobOrder(ctx context.Context, doc string) (*models.JobOrder, error) {
	var jo models.JobOrder
	err := s.db.WithContext(ctx).Where("doc_number = ?", doc).First(&jo).Error
	if err != nil {
		return nil, translate("job order", doc, err)
	}
	return &jo, nil
}

// ListJobOrders returns all job orders, newest first
func (s *Store) ListJobOrders(ctx context.Context) ([]models.JobOrder, error) {
	var orders []models.JobOrder
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, errs.Persistence("list job orders", err)
	}
	return orders, nil
}

// CreateJobOrder persists a new job order and fires the cascade hook
func (s *Store) CreateJobOrder(ctx context.Context, jo *models.JobOrder) error {
	if err := s.db.WithContext(ctx).Create(jo).Error; err != nil {
		return errs.Persistence("create job order", err)
	}
	s.fireHook(ctx, jo.DocNumber)
	return nil
}

// MutateJobOrder is the single write path for existing job orders. It loads
// the document, runs fn inside one transaction (fn may append history rows,
// touch assignments, and so on), saves the document, and fires the cascade
// hook after commit. Every status transition, assignment event and
// cancellation goes through here.
func (s *Store) MutateJobOrder(ctx context.Context, doc string, fn func(tx *gorm.DB, jo *models.JobOrder) error) (*models.JobOrder, error) {
	var jo models.JobOrder
	err := s.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("doc_number = ?", doc).First(&jo).Error; err != nil {
			return translate("job order", doc, err)
		}
		if err := fn(tx, &jo); err != nil {
			return err
		}
		if err := tx.Save(&jo).Error; err != nil {
			return errs.Persistence("save job order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.fireHook(ctx, jo.DocNumber)
	return &jo, nil
}

// DeleteJobOrder soft-deletes a job order and fires the cascade hook so the
// manifests it sat on recalculate without it.
func (s *Store) DeleteJobOrder(ctx context.Context, doc string) error {
	res := s.db.WithContext(ctx).Where("doc_number = ?", doc).Delete(&models.JobOrder{})
	if res.Error != nil {
		return errs.Persistence("delete job order", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("job order", doc)
	}
	s.fireHook(ctx, doc)
	return nil
}

// RestoreJobOrder undoes a soft delete and fires the cascade hook
func (s *Store) RestoreJobOrder(ctx context.Context, doc string) error {
	res := s.db.WithContext(ctx).Unscoped().Model(&models.JobOrder{}).
		Where("doc_number = ?", doc).
		Update("deleted_at", nil)
	if res.Error != nil {
		return errs.Persistence("restore job order", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("job order", doc)
	}
	s.fireHook(ctx, doc)
	return nil
}

// AppendStatusHistory appends one row to the append-only transition log.
// Runs inside the caller's transaction.
func AppendStatusHistory(tx *gorm.DB, jo *models.JobOrder, changedBy, notes string, trigger models.TriggerType) error {
	row := models.StatusHistory{
		JobOrderID: jo.ID,
		Status:     jo.Status,
		ChangedBy:  changedBy,
		Notes:      notes,
		Trigger:    trigger,
		ChangedAt:  time.Now().UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return errs.Persistence("append status history", err)
	}
	return nil
}

// StatusHistoryOf returns the transition log for a job order, oldest first
func (s *Store) StatusHistoryOf(ctx context.Context, jobOrderID uint) ([]models.StatusHistory, error) {
	var rows []models.StatusHistory
	err := s.db.WithContext(ctx).
		Where("job_order_id = ?", jobOrderID).
		Order("changed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errs.Persistence("list status history", err)
	}
	return rows, nil
}

// fireHook runs the cascade after a committed write. The mutation is already
// durable at this point, so a failing cascade is logged as degraded state for
// the repair jobs to reconcile, never surfaced as a write failure.
func (s *Store) fireHook(ctx context.Context, doc string) {
	if s.hook == nil {
		return
	}
	if err := s.hook(ctx, doc); err != nil {
		logrus.WithError(err).WithField("job_order", doc).
			Error("cascade failed after committed write, run the repair jobs to reconcile")
	}
}
