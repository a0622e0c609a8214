// Package cascade keeps manifest aggregates consistent with the live set of
// job orders they contain. It owns the derived fields on Manifest
// (cargo_weight, cargo_summary, and the driver/vehicle release path); no
// other component writes them.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/store"
	"github.com/sirupsen/logrus"
)

// maxSummaryDescriptions caps how many distinct goods descriptions appear in
// a cargo summary before it is truncated with ", etc.".
const maxSummaryDescriptions = 3

// Service is the recalculation engine plus the cascade trigger
type Service struct {
	store *store.Store
	log   *logrus.Entry
}

// New creates the cascade service and registers it as the job order write
// hook, so every persisted job order mutation flows through OnJobOrderChanged.
func New(st *store.Store) *Service {
	s := &Service{
		store: st,
		log:   logrus.WithField("component", "cascade"),
	}
	st.SetJobOrderHook(s.OnJobOrderChanged)
	return s
}

// Outcome describes what one recalculation computed and whether the stored
// aggregate actually changed.
type Outcome struct {
	ManifestDoc  string  `json:"manifest_doc"`
	CargoWeight  float64 `json:"cargo_weight"`
	CargoSummary string  `json:"cargo_summary"`
	ReleasedCrew bool    `json:"released_crew"`
	Changed      bool    `json:"changed"`
}

// OnJobOrderChanged is the cascade trigger: invoked after every job order
// create, update, delete or restore. It recalculates every manifest linked to
// the job order, each in its own write so one failing manifest does not abort
// the others, and then syncs dispatch documents sourced from the job order.
func (s *Service) OnJobOrderChanged(ctx context.Context, jobOrderDoc string) error {
	jo, err := s.store.GetJobOrderAny(ctx, jobOrderDoc)
	if err != nil {
		return err
	}

	manifests, err := s.store.LinkedManifestsOf(ctx, jo.ID)
	if err != nil {
		return err
	}

	var failures []error
	for i := range manifests {
		if _, err := s.recalculate(ctx, &manifests[i], false); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"manifest":  manifests[i].DocNumber,
				"job_order": jobOrderDoc,
			}).Error("manifest recalculation failed, continuing with siblings")
			failures = append(failures, fmt.Errorf("manifest %s: %w", manifests[i].DocNumber, err))
		}
	}

	if !jo.DeletedAt.Valid {
		if err := s.syncDeliveryOrders(ctx, jo); err != nil {
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}

// Recalculate re-derives the aggregate fields of one manifest and persists
// them. Callable directly by repair tooling.
func (s *Service) Recalculate(ctx context.Context, manifestDoc string) (*Outcome, error) {
	mf, err := s.store.GetManifest(ctx, manifestDoc)
	if err != nil {
		return nil, err
	}
	return s.recalculate(ctx, mf, false)
}

// Preview computes the aggregates without writing anything. Used by repair
// dry runs.
func (s *Service) Preview(ctx context.Context, mf *models.Manifest) (*Outcome, error) {
	return s.recalculate(ctx, mf, true)
}

// RecalculateManifest recalculates an already-loaded manifest and persists
// the result.
func (s *Service) RecalculateManifest(ctx context.Context, mf *models.Manifest) (*Outcome, error) {
	return s.recalculate(ctx, mf, false)
}

func (s *Service) recalculate(ctx context.Context, mf *models.Manifest, dryRun bool) (*Outcome, error) {
	orders, err := s.store.LinkedJobOrdersOf(ctx, mf.ID)
	if err != nil {
		return nil, err
	}

	// Totals run over every linked job order, cancelled ones included: the
	// manifest records the full planned load for audit, not the live load.
	var totalWeight float64
	var totalQuantity int
	var distinct []string
	seen := make(map[string]bool)
	activeCount := 0

	for i := range orders {
		jo := &orders[i]
		totalWeight += jo.GoodsWeight
		totalQuantity += jo.GoodsQuantity
		if desc := strings.TrimSpace(jo.GoodsDescription); desc != "" && !seen[desc] {
			seen[desc] = true
			distinct = append(distinct, desc)
		}
		if !jo.IsCancelled() {
			activeCount++
		}
	}

	summary := buildCargoSummary(totalQuantity, distinct)
	releaseCrew := activeCount == 0

	out := &Outcome{
		ManifestDoc:  mf.DocNumber,
		CargoWeight:  totalWeight,
		CargoSummary: summary,
		ReleasedCrew: releaseCrew && (mf.DriverID != nil || mf.VehicleID != nil),
	}
	out.Changed = totalWeight != mf.CargoWeight || summary != mf.CargoSummary || out.ReleasedCrew

	if dryRun || !out.Changed {
		return out, nil
	}

	// One write for all derived fields. Skipped entirely when nothing
	// changed, so re-running against an unchanged job order set leaves the
	// row untouched.
	updates := map[string]interface{}{
		"cargo_weight":  totalWeight,
		"cargo_summary": summary,
	}
	if releaseCrew {
		updates["driver_id"] = nil
		updates["vehicle_id"] = nil
	}
	err = s.store.DB().WithContext(ctx).
		Model(&models.Manifest{}).
		Where("id = ?", mf.ID).
		Updates(updates).Error
	if err != nil {
		return nil, errs.Persistence("save manifest aggregates", err)
	}

	mf.CargoWeight = totalWeight
	mf.CargoSummary = summary
	if releaseCrew {
		mf.DriverID = nil
		mf.VehicleID = nil
	}

	s.log.WithFields(logrus.Fields{
		"manifest":     mf.DocNumber,
		"cargo_weight": totalWeight,
		"released":     releaseCrew,
	}).Debug("manifest aggregates recalculated")

	return out, nil
}

// buildCargoSummary renders e.g. "12 packages, cement bags, steel pipes" or
// "40 packages, tiles, paint, rebar, etc." when more than three distinct
// descriptions exist.
func buildCargoSummary(totalQuantity int, descriptions []string) string {
	summary := fmt.Sprintf("%d packages", totalQuantity)
	if len(descriptions) == 0 {
		return summary
	}
	shown := descriptions
	if len(shown) > maxSummaryDescriptions {
		shown = shown[:maxSummaryDescriptions]
	}
	summary += ", " + strings.Join(shown, ", ")
	if len(descriptions) > maxSummaryDescriptions {
		summary += ", etc."
	}
	return summary
}

// syncDeliveryOrders pushes the job order's status onto its dispatch
// documents via the fixed mapping table.
func (s *Service) syncDeliveryOrders(ctx context.Context, jo *models.JobOrder) error {
	mapped, ok := models.DeliveryStatusForJobOrder(jo.Status)
	if !ok {
		return nil
	}

	dos, err := s.store.DeliveryOrdersForJobOrder(ctx, jo)
	if err != nil {
		return err
	}

	var failures []error
	for i := range dos {
		do := &dos[i]
		if do.IsCancelled() || do.Status == mapped {
			continue
		}
		do.Status = mapped
		if mapped == models.DeliveryOrderStatusDelivered && do.DeliveredDate == nil {
			t := jo.UpdatedAt
			do.DeliveredDate = &t
		}
		if err := s.store.SaveDeliveryOrder(ctx, do); err != nil {
			s.log.WithError(err).WithField("delivery_order", do.DocNumber).
				Error("delivery order status sync failed")
			failures = append(failures, fmt.Errorf("delivery order %s: %w", do.DocNumber, err))
		}
	}
	return errors.Join(failures...)
}
