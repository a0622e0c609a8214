package store

import (
	"context"

	"github.com/kargoline/tmsgo/internal/models"
)

// GetJobOrderAny loads a job order by document number including soft-deleted
// rows. The cascade trigger uses it so a deletion can still locate the
// manifests the job order sat on.
func (s *Store) GetJobOrderAny(ctx context.Context, doc string) (*models.JobOrder, error) {
	var jo models.JobOrder
	err := s.db.WithContext(ctx).Unscoped().Where("doc_number = ?", doc).First(&jo).Error
	if err != nil {
		return nil, translate("job order", doc, err)
	}
	return &jo, nil
}
