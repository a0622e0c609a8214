package repair

import (
	"context"
	"errors"
	"strings"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
)

// ReattachOrphans finds manifests with zero linked job orders and re-links
// the cancelled job orders that plausibly belonged to them: city or address
// fuzzily matching both ends of the trip, created no more than a day before
// the manifest, and not linked to any other manifest. The heuristic is
// approximate, so this is an operator-reviewed dry-run tool, not a background
// job.
func (s *Service) ReattachOrphans(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{DryRun: opts.DryRun}

	manifests, err := s.emptyManifestsInScope(ctx, opts.ScopeID)
	if err != nil {
		return nil, err
	}

	for i := range manifests {
		mf := &manifests[i]
		report.Processed++

		candidates, err := s.candidateOrphansFor(ctx, mf)
		if err != nil {
			report.Details = append(report.Details, Detail{
				Entity: mf.DocNumber, Action: "skipped", Error: err.Error(),
			})
			continue
		}
		if len(candidates) == 0 {
			report.Unmatched++
			report.Details = append(report.Details, Detail{
				Entity: mf.DocNumber, Action: "unmatched",
				Note: "no cancelled job orders match this lane and window",
			})
			continue
		}

		if opts.DryRun {
			report.Changed++
			for _, jo := range candidates {
				report.Details = append(report.Details, Detail{
					Entity: mf.DocNumber, Action: "would-reattach", Note: jo.DocNumber,
				})
			}
			continue
		}

		// All-or-nothing per manifest: stop at the first failing link and
		// report it rather than leaving a half-applied fix uncounted.
		reattached := 0
		for _, jo := range candidates {
			err := s.store.LinkJobOrder(ctx, mf.DocNumber, jo.DocNumber)
			if err != nil && !errors.Is(err, errs.ErrInvariantViolation) {
				report.Details = append(report.Details, Detail{
					Entity: mf.DocNumber, Action: "failed", Note: jo.DocNumber, Error: err.Error(),
				})
				break
			}
			if err == nil {
				reattached++
				report.Details = append(report.Details, Detail{
					Entity: mf.DocNumber, Action: "reattached", Note: jo.DocNumber,
				})
			}
		}
		if reattached > 0 {
			report.Changed++
			s.log.WithFields(map[string]interface{}{
				"manifest": mf.DocNumber, "reattached": reattached,
			}).Info("orphaned job orders reattached")
		}
	}

	return report, nil
}

func (s *Service) emptyManifestsInScope(ctx context.Context, scopeID string) ([]models.Manifest, error) {
	if scopeID == "" {
		return s.store.EmptyManifests(ctx)
	}
	mf, err := s.store.GetManifest(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	linked, err := s.store.LinkedJobOrdersOf(ctx, mf.ID)
	if err != nil {
		return nil, err
	}
	if len(linked) > 0 {
		return nil, nil
	}
	return []models.Manifest{*mf}, nil
}

// candidateOrphansFor returns cancelled, unlinked job orders created within
// the reattach window whose lane matches the manifest's.
func (s *Service) candidateOrphansFor(ctx context.Context, mf *models.Manifest) ([]models.JobOrder, error) {
	var cancelled []models.JobOrder
	err := s.store.DB().WithContext(ctx).
		Where("status = ?", models.JobOrderStatusCancelled).
		Where("created_at <= ? AND created_at >= ?", mf.CreatedAt, mf.CreatedAt.Add(-reattachWindow)).
		Find(&cancelled).Error
	if err != nil {
		return nil, errs.Persistence("list cancelled job orders", err)
	}

	var candidates []models.JobOrder
	for _, jo := range cancelled {
		if !laneMatches(&jo, mf) {
			continue
		}
		count, err := s.store.ManifestCountFor(ctx, jo.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}
		candidates = append(candidates, jo)
	}
	return candidates, nil
}

// laneMatches applies the fuzzy city heuristic: both ends of the job order
// (city or street address) must contain, or be contained in, the manifest's
// origin and destination city.
func laneMatches(jo *models.JobOrder, mf *models.Manifest) bool {
	origin := fuzzyContains(jo.PickupCity, mf.OriginCity) || fuzzyContains(jo.PickupAddress, mf.OriginCity)
	dest := fuzzyContains(jo.DeliveryCity, mf.DestCity) || fuzzyContains(jo.DeliveryAddress, mf.DestCity)
	return origin && dest
}

func fuzzyContains(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
