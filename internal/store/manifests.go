package store

import (
	"context"
	"fmt"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"gorm.io/gorm"
)

// GetManifest loads a manifest by document number
func (s *Store) GetManifest(ctx context.Context, doc string) (*models.Manifest, error) {
	var mf models.Manifest
	err := s.db.WithContext(ctx).Where("doc_number = ?", doc).First(&mf).Error
	if err != nil {
		return nil, translate("manifest", doc, err)
	}
	return &mf, nil
}

// ListManifests returns all manifests, newest first
func (s *Store) ListManifests(ctx context.Context) ([]models.Manifest, error) {
	var manifests []models.Manifest
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&manifests).Error; err != nil {
		return nil, errs.Persistence("list manifests", err)
	}
	return manifests, nil
}

// CreateManifest persists a new manifest
func (s *Store) CreateManifest(ctx context.Context, mf *models.Manifest) error {
	if err := s.db.WithContext(ctx).Create(mf).Error; err != nil {
		return errs.Persistence("create manifest", err)
	}
	return nil
}

// SaveManifest persists manifest changes outside the derived-field path
// (status transitions, planning fields). Aggregate fields are written only
// by the recalculation engine.
func (s *Store) SaveManifest(ctx context.Context, mf *models.Manifest) error {
	if err := s.db.WithContext(ctx).Save(mf).Error; err != nil {
		return errs.Persistence("save manifest", err)
	}
	return nil
}

// LinkJobOrder inserts a manifest<->job order link and fires the cascade hook
// so the manifest aggregates pick up the new cargo. A duplicate link is an
// invariant violation.
func (s *Store) LinkJobOrder(ctx context.Context, manifestDoc, jobOrderDoc string) error {
	mf, err := s.GetManifest(ctx, manifestDoc)
	if err != nil {
		return err
	}
	jo, err := s.GetJobOrder(ctx, jobOrderDoc)
	if err != nil {
		return err
	}

	err = s.Transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ManifestJobOrder{}).
			Where("manifest_id = ? AND job_order_id = ?", mf.ID, jo.ID).
			Count(&count).Error; err != nil {
			return errs.Persistence("check manifest link", err)
		}
		if count > 0 {
			return errs.InvariantViolation(fmt.Sprintf("job order %s is already on manifest %s", jobOrderDoc, manifestDoc))
		}
		link := models.ManifestJobOrder{ManifestID: mf.ID, JobOrderID: jo.ID}
		if err := tx.Create(&link).Error; err != nil {
			return errs.Persistence("create manifest link", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.fireHook(ctx, jobOrderDoc)
	return nil
}

// UnlinkJobOrder removes a manifest<->job order link and fires the cascade hook
func (s *Store) UnlinkJobOrder(ctx context.Context, manifestDoc, jobOrderDoc string) error {
	mf, err := s.GetManifest(ctx, manifestDoc)
	if err != nil {
		return err
	}
	jo, err := s.GetJobOrder(ctx, jobOrderDoc)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("manifest_id = ? AND job_order_id = ?", mf.ID, jo.ID).
		Delete(&models.ManifestJobOrder{})
	if res.Error != nil {
		return errs.Persistence("delete manifest link", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("manifest link", manifestDoc+"/"+jobOrderDoc)
	}
	s.fireHook(ctx, jobOrderDoc)
	return nil
}

// LinkedManifestsOf returns every manifest that references the job order
func (s *Store) LinkedManifestsOf(ctx context.Context, jobOrderID uint) ([]models.Manifest, error) {
	var manifests []models.Manifest
	err := s.db.WithContext(ctx).
		Joins("JOIN manifest_job_orders mjo ON mjo.manifest_id = manifests.id").
		Where("mjo.job_order_id = ?", jobOrderID).
		Find(&manifests).Error
	if err != nil {
		return nil, errs.Persistence("list linked manifests", err)
	}
	return manifests, nil
}

// LinkedJobOrdersOf returns every job order linked to the manifest, cancelled
// ones included. Manifest totals are audit totals over the whole planned
// load, so nothing here filters on status.
func (s *Store) LinkedJobOrdersOf(ctx context.Context, manifestID uint) ([]models.JobOrder, error) {
	var orders []models.JobOrder
	err := s.db.WithContext(ctx).
		Joins("JOIN manifest_job_orders mjo ON mjo.job_order_id = job_orders.id").
		Where("mjo.manifest_id = ?", manifestID).
		Order("job_orders.id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, errs.Persistence("list linked job orders", err)
	}
	return orders, nil
}

// EmptyManifests returns manifests with zero linked job orders. Input for the
// orphan reattach repair.
func (s *Store) EmptyManifests(ctx context.Context) ([]models.Manifest, error) {
	var manifests []models.Manifest
	err := s.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM manifest_job_orders mjo WHERE mjo.manifest_id = manifests.id)").
		Find(&manifests).Error
	if err != nil {
		return nil, errs.Persistence("list empty manifests", err)
	}
	return manifests, nil
}

// ManifestCountFor returns how many manifests reference the job order
func (s *Store) ManifestCountFor(ctx context.Context, jobOrderID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ManifestJobOrder{}).
		Where("job_order_id = ?", jobOrderID).
		Count(&count).Error
	if err != nil {
		return 0, errs.Persistence("count manifest links", err)
	}
	return count, nil
}
