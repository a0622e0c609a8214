package repair

import (
	"context"
	"fmt"

	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/services/cascade"
)

// RecalculateAll re-derives the aggregates of every manifest (or a single one
// when scoped) through the same recalculation engine the cascade uses, and
// reports which stored aggregates actually differed. In dry-run mode nothing
// is written; the report is the auditable diff.
func (s *Service) RecalculateAll(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{DryRun: opts.DryRun}

	var manifests []models.Manifest
	if opts.ScopeID != "" {
		mf, err := s.store.GetManifest(ctx, opts.ScopeID)
		if err != nil {
			return nil, err
		}
		manifests = []models.Manifest{*mf}
	} else {
		var err error
		manifests, err = s.store.ListManifests(ctx)
		if err != nil {
			return nil, err
		}
	}

	for i := range manifests {
		mf := &manifests[i]
		report.Processed++

		var out *cascade.Outcome
		var err error
		if opts.DryRun {
			out, err = s.cascade.Preview(ctx, mf)
		} else {
			out, err = s.cascade.RecalculateManifest(ctx, mf)
		}
		if err != nil {
			// Degraded, not fatal: one broken manifest must not stop the rest.
			s.log.WithError(err).WithField("manifest", mf.DocNumber).Error("recalculation failed")
			report.Details = append(report.Details, Detail{
				Entity: mf.DocNumber, Action: "failed", Error: err.Error(),
			})
			continue
		}

		if !out.Changed {
			report.Details = append(report.Details, Detail{Entity: mf.DocNumber, Action: "no-op"})
			continue
		}

		report.Changed++
		action := "recalculated"
		if opts.DryRun {
			action = "would-recalculate"
		}
		note := fmt.Sprintf("weight %.2f, summary %q", out.CargoWeight, out.CargoSummary)
		if out.ReleasedCrew {
			note += ", crew released"
		}
		report.Details = append(report.Details, Detail{Entity: mf.DocNumber, Action: action, Note: note})
	}

	return report, nil
}
