package cancel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/services/cancel"
	"github.com/kargoline/tmsgo/internal/services/cascade"
	"github.com/kargoline/tmsgo/internal/store"
	"github.com/kargoline/tmsgo/internal/testutil"
)

func newServices(t *testing.T) (*store.Store, *cancel.Service) {
	t.Helper()
	st := testutil.OpenStore(t)
	cascade.New(st)
	return st, cancel.New(st)
}

func seedJobOrder(t *testing.T, st *store.Store) *models.JobOrder {
	t.Helper()
	ctx := context.Background()
	cust := models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &cust))
	jo := models.JobOrder{
		CustomerID:       cust.ID,
		PickupCity:       "Jakarta",
		DeliveryCity:     "Bandung",
		GoodsDescription: "electronics",
		GoodsWeight:      120,
		GoodsQuantity:    12,
	}
	require.NoError(t, st.CreateJobOrder(ctx, &jo))
	return &jo
}

func TestCancelJobOrder(t *testing.T) {
	st, svc := newServices(t)
	ctx := context.Background()
	jo := seedJobOrder(t, st)

	got, err := svc.CancelJobOrder(ctx, jo.DocNumber, "customer withdrew", "ops-1", models.TriggerUser)
	require.NoError(t, err)
	require.Equal(t, models.JobOrderStatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	require.Equal(t, "customer withdrew", got.CancellationReason)

	history, err := st.StatusHistoryOf(ctx, jo.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.JobOrderStatusCancelled, history[0].Status)
	require.Equal(t, "ops-1", history[0].ChangedBy)
	require.Equal(t, models.TriggerUser, history[0].Trigger)
}

func TestCancelJobOrderIsTerminal(t *testing.T) {
	st, svc := newServices(t)
	ctx := context.Background()
	jo := seedJobOrder(t, st)

	_, err := st.MutateJobOrder(ctx, jo.DocNumber, func(tx *gorm.DB, mut *models.JobOrder) error {
		mut.Status = models.JobOrderStatusDelivered
		return nil
	})
	require.NoError(t, err)

	_, err = svc.CancelJobOrder(ctx, jo.DocNumber, "too late", "ops-1", models.TriggerUser)
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrInvalidTransition))
}

func TestCancelJobOrderReleasesAssignment(t *testing.T) {
	st, svc := newServices(t)
	ctx := context.Background()
	jo := seedJobOrder(t, st)

	driver := models.Driver{Name: "Budi Santoso", LicenseNo: "B-771234", Status: models.DriverStatusOnDuty}
	require.NoError(t, st.CreateDriver(ctx, &driver))
	a := models.Assignment{
		JobOrderID: jo.ID,
		DriverID:   driver.ID,
		Status:     models.AssignmentStatusActive,
		AssignedAt: time.Now().UTC(),
	}
	require.NoError(t, st.DB().Create(&a).Error)

	_, err := svc.CancelJobOrder(ctx, jo.DocNumber, "changed plans", "ops-1", models.TriggerUser)
	require.NoError(t, err)

	var reloaded models.Assignment
	require.NoError(t, st.DB().First(&reloaded, a.ID).Error)
	require.Equal(t, models.AssignmentStatusCancelled, reloaded.Status)

	d, err := st.GetDriver(ctx, driver.ID)
	require.NoError(t, err)
	require.Equal(t, models.DriverStatusAvailable, d.Status, "driver with no other work goes back to available")
}

func TestCancelJobOrderCancelsDirectDeliveryOrdersOnly(t *testing.T) {
	st, svc := newServices(t)
	ctx := context.Background()
	jo := seedJobOrder(t, st)

	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung"}
	require.NoError(t, st.CreateManifest(ctx, &mf))
	require.NoError(t, st.LinkJobOrder(ctx, mf.DocNumber, jo.DocNumber))

	direct := models.DeliveryOrder{Source: models.JobOrderRef(jo.DocNumber)}
	require.NoError(t, st.CreateDeliveryOrder(ctx, &direct))
	viaManifest := models.DeliveryOrder{Source: models.ManifestRef(mf.DocNumber)}
	require.NoError(t, st.CreateDeliveryOrder(ctx, &viaManifest))

	_, err := svc.CancelJobOrder(ctx, jo.DocNumber, "customer withdrew", "ops-1", models.TriggerUser)
	require.NoError(t, err)

	gotDirect, err := st.GetDeliveryOrder(ctx, direct.DocNumber)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryOrderStatusCancelled, gotDirect.Status)
	require.Contains(t, gotDirect.CancellationReason, jo.DocNumber)

	gotManifest, err := st.GetDeliveryOrder(ctx, viaManifest.DocNumber)
	require.NoError(t, err)
	require.NotEqual(t, models.DeliveryOrderStatusCancelled, gotManifest.Status,
		"the trip may still run with other cargo")

	// The cancelled job order stays on the manifest and in its totals.
	count, err := st.ManifestCountFor(ctx, jo.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	gotMf, err := st.GetManifest(ctx, mf.DocNumber)
	require.NoError(t, err)
	require.Equal(t, 120.0, gotMf.CargoWeight)
}

func TestCancelManifestLeavesLinksAndTotals(t *testing.T) {
	st, svc := newServices(t)
	ctx := context.Background()
	jo := seedJobOrder(t, st)

	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung"}
	require.NoError(t, st.CreateManifest(ctx, &mf))
	require.NoError(t, st.LinkJobOrder(ctx, mf.DocNumber, jo.DocNumber))

	got, err := svc.CancelManifest(ctx, mf.DocNumber, "truck breakdown", "ops-1")
	require.NoError(t, err)
	require.Equal(t, models.ManifestStatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	require.Equal(t, 120.0, got.CargoWeight)

	count, err := st.ManifestCountFor(ctx, jo.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestCancelInvoiceReleasesSource(t *testing.T) {
	st, svc := newServices(t)
	ctx := context.Background()
	jo := seedJobOrder(t, st)

	inv := models.Invoice{CustomerID: jo.CustomerID, Source: models.JobOrderRef(jo.DocNumber), Total: 1000}
	require.NoError(t, st.CreateInvoice(ctx, &inv))

	got, err := svc.CancelInvoice(ctx, inv.DocNumber, "ops-1")
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusCancelled, got.Status)
	require.True(t, got.Source.IsZero())
	require.Contains(t, got.Notes, jo.DocNumber, "the released reference is preserved as a note")

	// With the reference released, the job order is billable again.
	again := models.Invoice{CustomerID: jo.CustomerID, Source: models.JobOrderRef(jo.DocNumber), Total: 1000}
	require.NoError(t, st.CreateInvoice(ctx, &again))
}

func TestCancelInvoiceTerminal(t *testing.T) {
	st, svc := newServices(t)
	ctx := context.Background()
	jo := seedJobOrder(t, st)

	paid := time.Now().UTC()
	inv := models.Invoice{
		CustomerID: jo.CustomerID,
		Source:     models.JobOrderRef(jo.DocNumber),
		Total:      1000,
		Status:     models.InvoiceStatusPaid,
		PaidAt:     &paid,
	}
	require.NoError(t, st.CreateInvoice(ctx, &inv))

	_, err := svc.CancelInvoice(ctx, inv.DocNumber, "ops-1")
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrInvalidTransition))
}
