package repair

import (
	"context"

	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/services/cancel"
)

// ReleaseInvoiceSources finds cancelled invoices that still carry a source
// reference (left behind by writes that predate the release rule) and applies
// the cancellation release retroactively so the underlying documents become
// billable again.
func (s *Service) ReleaseInvoiceSources(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{DryRun: opts.DryRun}

	var invoices []models.Invoice
	if opts.ScopeID != "" {
		inv, err := s.store.GetInvoice(ctx, opts.ScopeID)
		if err != nil {
			return nil, err
		}
		if inv.Status == models.InvoiceStatusCancelled && !inv.Source.IsZero() {
			invoices = []models.Invoice{*inv}
		}
	} else {
		var err error
		invoices, err = s.store.CancelledInvoicesWithSource(ctx)
		if err != nil {
			return nil, err
		}
	}

	for i := range invoices {
		inv := &invoices[i]
		report.Processed++

		ref := inv.Source.String()
		if opts.DryRun {
			report.Changed++
			report.Details = append(report.Details, Detail{
				Entity: inv.DocNumber, Action: "would-release", Note: ref,
			})
			continue
		}

		cancel.ReleaseSource(inv)
		if err := s.store.SaveInvoice(ctx, inv); err != nil {
			report.Details = append(report.Details, Detail{
				Entity: inv.DocNumber, Action: "failed", Note: ref, Error: err.Error(),
			})
			continue
		}

		report.Changed++
		report.Details = append(report.Details, Detail{
			Entity: inv.DocNumber, Action: "released", Note: ref,
		})
		s.log.WithField("invoice", inv.DocNumber).Info("stale invoice source released")
	}

	return report, nil
}
