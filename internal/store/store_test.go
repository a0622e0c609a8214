package store_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/testutil"
)

func TestDocNumberSequence(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	customer := models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &customer))

	first := models.JobOrder{CustomerID: customer.ID, PickupCity: "Jakarta", DeliveryCity: "Bandung"}
	second := models.JobOrder{CustomerID: customer.ID, PickupCity: "Jakarta", DeliveryCity: "Bandung"}
	require.NoError(t, st.CreateJobOrder(ctx, &first))
	require.NoError(t, st.CreateJobOrder(ctx, &second))

	stem := fmt.Sprintf("JO-%s-", time.Now().UTC().Format("20060102"))
	require.Equal(t, stem+"0001", first.DocNumber)
	require.Equal(t, stem+"0002", second.DocNumber)
	require.True(t, strings.HasPrefix(first.QRCodeString, "JO:"))
	require.NotEqual(t, first.QRCodeString, second.QRCodeString)
}

func TestGetJobOrderNotFound(t *testing.T) {
	st := testutil.OpenStore(t)

	_, err := st.GetJobOrder(context.Background(), "JO-19990101-0001")
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestLinkJobOrderDuplicate(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	customer := models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &customer))

	jo := models.JobOrder{CustomerID: customer.ID}
	require.NoError(t, st.CreateJobOrder(ctx, &jo))

	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung"}
	require.NoError(t, st.CreateManifest(ctx, &mf))

	require.NoError(t, st.LinkJobOrder(ctx, mf.DocNumber, jo.DocNumber))

	err := st.LinkJobOrder(ctx, mf.DocNumber, jo.DocNumber)
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrInvariantViolation))

	count, err := st.ManifestCountFor(ctx, jo.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestDeleteAndRestoreJobOrder(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	customer := models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &customer))

	jo := models.JobOrder{CustomerID: customer.ID}
	require.NoError(t, st.CreateJobOrder(ctx, &jo))

	require.NoError(t, st.DeleteJobOrder(ctx, jo.DocNumber))

	_, err := st.GetJobOrder(ctx, jo.DocNumber)
	require.True(t, errors.Is(err, errs.ErrNotFound))

	// The unscoped read still sees the row, which is what lets the cascade
	// recalculate manifests after a delete.
	any, err := st.GetJobOrderAny(ctx, jo.DocNumber)
	require.NoError(t, err)
	require.True(t, any.DeletedAt.Valid)

	require.NoError(t, st.RestoreJobOrder(ctx, jo.DocNumber))
	restored, err := st.GetJobOrder(ctx, jo.DocNumber)
	require.NoError(t, err)
	require.Equal(t, jo.DocNumber, restored.DocNumber)
}

func TestCreateInvoiceRejectsLiveDuplicateSource(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	customer := models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &customer))

	jo := models.JobOrder{CustomerID: customer.ID}
	require.NoError(t, st.CreateJobOrder(ctx, &jo))

	first := models.Invoice{CustomerID: customer.ID, Source: models.JobOrderRef(jo.DocNumber), Total: 100}
	require.NoError(t, st.CreateInvoice(ctx, &first))

	second := models.Invoice{CustomerID: customer.ID, Source: models.JobOrderRef(jo.DocNumber), Total: 100}
	err := st.CreateInvoice(ctx, &second)
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrInvariantViolation))
}

func TestMutateJobOrderFiresHook(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	customer := models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &customer))

	var fired []string
	st.SetJobOrderHook(func(ctx context.Context, doc string) error {
		fired = append(fired, doc)
		return nil
	})

	jo := models.JobOrder{CustomerID: customer.ID}
	require.NoError(t, st.CreateJobOrder(ctx, &jo))
	require.Equal(t, []string{jo.DocNumber}, fired)

	_, err := st.MutateJobOrder(ctx, jo.DocNumber, func(tx *gorm.DB, mut *models.JobOrder) error {
		mut.GoodsWeight = 500
		return nil
	})
	require.NoError(t, err)
	require.Len(t, fired, 2)

	reloaded, err := st.GetJobOrder(ctx, jo.DocNumber)
	require.NoError(t, err)
	require.Equal(t, 500.0, reloaded.GoodsWeight)
}

func TestMutateJobOrderSurvivesHookFailure(t *testing.T) {
	st := testutil.OpenStore(t)
	ctx := context.Background()

	customer := models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &customer))

	jo := models.JobOrder{CustomerID: customer.ID}
	require.NoError(t, st.CreateJobOrder(ctx, &jo))

	st.SetJobOrderHook(func(ctx context.Context, doc string) error {
		return errors.New("cascade unavailable")
	})

	// The write committed before the hook ran, so the mutation is durable and
	// the caller gets the document back. The broken cascade is repair-job work.
	mutated, err := st.MutateJobOrder(ctx, jo.DocNumber, func(tx *gorm.DB, mut *models.JobOrder) error {
		mut.GoodsWeight = 750
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, mutated)
	require.Equal(t, 750.0, mutated.GoodsWeight)

	reloaded, err := st.GetJobOrder(ctx, jo.DocNumber)
	require.NoError(t, err)
	require.Equal(t, 750.0, reloaded.GoodsWeight)
}
