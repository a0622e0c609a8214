package repair_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/services/cascade"
	"github.com/kargoline/tmsgo/internal/services/repair"
	"github.com/kargoline/tmsgo/internal/store"
	"github.com/kargoline/tmsgo/internal/testutil"
)

func newRepair(t *testing.T) (*store.Store, *repair.Service) {
	t.Helper()
	st := testutil.OpenStore(t)
	return st, repair.New(st, cascade.New(st))
}

func seedCancelledJobOrder(t *testing.T, st *store.Store, pickup, delivery string) *models.JobOrder {
	t.Helper()
	ctx := context.Background()

	var cust models.Customer
	err := st.DB().Where("code = ?", "CUST-0001").First(&cust).Error
	if err != nil {
		cust = models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
		require.NoError(t, st.CreateCustomer(ctx, &cust))
	}

	jo := models.JobOrder{
		CustomerID:       cust.ID,
		PickupCity:       pickup,
		DeliveryCity:     delivery,
		GoodsDescription: "cement bags",
		GoodsWeight:      100,
		GoodsQuantity:    10,
	}
	require.NoError(t, st.CreateJobOrder(ctx, &jo))
	_, err = st.MutateJobOrder(ctx, jo.DocNumber, func(tx *gorm.DB, mut *models.JobOrder) error {
		mut.Status = models.JobOrderStatusCancelled
		return nil
	})
	require.NoError(t, err)
	return &jo
}

func TestReattachOrphans(t *testing.T) {
	st, rep := newRepair(t)
	ctx := context.Background()

	jo := seedCancelledJobOrder(t, st, "Jakarta", "Bandung")
	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung"}
	require.NoError(t, st.CreateManifest(ctx, &mf))

	report, err := rep.ReattachOrphans(ctx, repair.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)
	require.Equal(t, 1, report.Changed)

	count, err := st.ManifestCountFor(ctx, jo.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	// The link fired the cascade, so the audit totals are already in place.
	got, err := st.GetManifest(ctx, mf.DocNumber)
	require.NoError(t, err)
	require.Equal(t, 100.0, got.CargoWeight)

	// Re-running finds nothing to do: the manifest is no longer empty.
	again, err := rep.ReattachOrphans(ctx, repair.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, again.Processed)
	require.Equal(t, 0, again.Changed)
}

func TestReattachOrphansDryRun(t *testing.T) {
	st, rep := newRepair(t)
	ctx := context.Background()

	jo := seedCancelledJobOrder(t, st, "Jakarta", "Bandung")
	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung"}
	require.NoError(t, st.CreateManifest(ctx, &mf))

	report, err := rep.ReattachOrphans(ctx, repair.Options{DryRun: true})
	require.NoError(t, err)
	require.Equal(t, 1, report.Changed)
	require.Len(t, report.Details, 1)
	require.Equal(t, "would-reattach", report.Details[0].Action)
	require.Equal(t, jo.DocNumber, report.Details[0].Note)

	count, err := st.ManifestCountFor(ctx, jo.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, count, "dry run must not write")
}

func TestReattachOrphansLaneMismatch(t *testing.T) {
	st, rep := newRepair(t)
	ctx := context.Background()

	seedCancelledJobOrder(t, st, "Surabaya", "Medan")
	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung"}
	require.NoError(t, st.CreateManifest(ctx, &mf))

	report, err := rep.ReattachOrphans(ctx, repair.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)
	require.Equal(t, 0, report.Changed)
	require.Equal(t, 1, report.Unmatched)
}

func TestReattachOrphansOutsideWindow(t *testing.T) {
	st, rep := newRepair(t)
	ctx := context.Background()

	jo := seedCancelledJobOrder(t, st, "Jakarta", "Bandung")

	// Age the job order past the window.
	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, st.DB().Model(&models.JobOrder{}).
		Where("id = ?", jo.ID).Update("created_at", old).Error)

	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung"}
	require.NoError(t, st.CreateManifest(ctx, &mf))

	report, err := rep.ReattachOrphans(ctx, repair.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Unmatched)
}

func TestRecalculateAllFixesDrift(t *testing.T) {
	st, rep := newRepair(t)
	ctx := context.Background()

	jo := seedCancelledJobOrder(t, st, "Jakarta", "Bandung")
	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung"}
	require.NoError(t, st.CreateManifest(ctx, &mf))
	require.NoError(t, st.LinkJobOrder(ctx, mf.DocNumber, jo.DocNumber))

	// Simulate drift from a write that bypassed the cascade.
	require.NoError(t, st.DB().Model(&models.Manifest{}).
		Where("id = ?", mf.ID).Update("cargo_weight", 999).Error)

	dry, err := rep.RecalculateAll(ctx, repair.Options{DryRun: true})
	require.NoError(t, err)
	require.Equal(t, 1, dry.Changed)

	still, err := st.GetManifest(ctx, mf.DocNumber)
	require.NoError(t, err)
	require.Equal(t, 999.0, still.CargoWeight, "dry run must not write")

	applied, err := rep.RecalculateAll(ctx, repair.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, applied.Changed)

	fixed, err := st.GetManifest(ctx, mf.DocNumber)
	require.NoError(t, err)
	require.Equal(t, 100.0, fixed.CargoWeight)

	// A clean second pass reports no-ops only.
	clean, err := rep.RecalculateAll(ctx, repair.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, clean.Changed)
}

func TestReleaseInvoiceSources(t *testing.T) {
	st, rep := newRepair(t)
	ctx := context.Background()

	cust := models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &cust))

	// A legacy cancelled invoice that kept its source reference.
	inv := models.Invoice{
		CustomerID: cust.ID,
		Source:     models.JobOrderRef("JO-20260801-0001"),
		Total:      1000,
		Status:     models.InvoiceStatusCancelled,
	}
	require.NoError(t, st.DB().Create(&inv).Error)

	report, err := rep.ReleaseInvoiceSources(ctx, repair.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)
	require.Equal(t, 1, report.Changed)

	got, err := st.GetInvoice(ctx, inv.DocNumber)
	require.NoError(t, err)
	require.True(t, got.Source.IsZero())
	require.Contains(t, got.Notes, "JO-20260801-0001")

	// Idempotent: nothing left to release.
	again, err := rep.ReleaseInvoiceSources(ctx, repair.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, again.Processed)
}
