package assignment_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kargoline/tmsgo/internal/errs"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/services/assignment"
	"github.com/kargoline/tmsgo/internal/store"
	"github.com/kargoline/tmsgo/internal/testutil"
)

type env struct {
	st      *store.Store
	svc     *assignment.Service
	cust    models.Customer
	driver  models.Driver
	vehicle models.Vehicle
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := testutil.OpenStore(t)
	e := &env{st: st, svc: assignment.New(st)}
	ctx := context.Background()

	e.cust = models.Customer{Code: "CUST-0001", Name: "PT Sinar Abadi"}
	require.NoError(t, st.CreateCustomer(ctx, &e.cust))
	e.driver = models.Driver{Name: "Budi Santoso", LicenseNo: "B-771234", Status: models.DriverStatusAvailable}
	require.NoError(t, st.CreateDriver(ctx, &e.driver))
	e.vehicle = models.Vehicle{PlateNumber: "B 9001 TMS", VehicleType: "CDD", Active: true}
	require.NoError(t, st.CreateVehicle(ctx, &e.vehicle))
	return e
}

func (e *env) newJobOrder(t *testing.T) *models.JobOrder {
	t.Helper()
	jo := models.JobOrder{CustomerID: e.cust.ID, PickupCity: "Jakarta", DeliveryCity: "Bandung"}
	require.NoError(t, e.st.CreateJobOrder(context.Background(), &jo))
	return &jo
}

func TestAccept(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	jo := e.newJobOrder(t)

	a, err := e.svc.Accept(ctx, jo.DocNumber, e.driver.ID, &e.vehicle.ID, "driver-app")
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusActive, a.Status)
	require.Equal(t, jo.ID, a.JobOrderID)

	got, err := e.st.GetJobOrder(ctx, jo.DocNumber)
	require.NoError(t, err)
	require.Equal(t, models.JobOrderStatusAssigned, got.Status)

	d, err := e.st.GetDriver(ctx, e.driver.ID)
	require.NoError(t, err)
	require.Equal(t, models.DriverStatusOnDuty, d.Status)

	history, err := e.st.StatusHistoryOf(ctx, jo.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Contains(t, history[0].Notes, e.driver.Name)
}

func TestAcceptRejectsNonCreatedJobOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	jo := e.newJobOrder(t)

	_, err := e.svc.Accept(ctx, jo.DocNumber, e.driver.ID, nil, "driver-app")
	require.NoError(t, err)

	// Already assigned: the status flow rejects a second accept.
	_, err = e.svc.Accept(ctx, jo.DocNumber, e.driver.ID, nil, "driver-app")
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrInvalidTransition))
}

func TestAcceptVehicleExclusivity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.newJobOrder(t)
	second := e.newJobOrder(t)

	other := models.Driver{Name: "Agus Wijaya", LicenseNo: "B-772345", Status: models.DriverStatusAvailable}
	require.NoError(t, e.st.CreateDriver(ctx, &other))

	_, err := e.svc.Accept(ctx, first.DocNumber, e.driver.ID, &e.vehicle.ID, "driver-app")
	require.NoError(t, err)

	_, err = e.svc.Accept(ctx, second.DocNumber, other.ID, &e.vehicle.ID, "driver-app")
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrInvariantViolation))

	got, err := e.st.GetJobOrder(ctx, second.DocNumber)
	require.NoError(t, err)
	require.Equal(t, models.JobOrderStatusCreated, got.Status, "failed accept leaves the job order untouched")
}

func TestAcceptDriverCapacity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for i := 0; i < models.MaxActiveAssignmentsPerDriver; i++ {
		jo := e.newJobOrder(t)
		a := models.Assignment{
			JobOrderID: jo.ID,
			DriverID:   e.driver.ID,
			Status:     models.AssignmentStatusActive,
			AssignedAt: time.Now().UTC(),
		}
		require.NoError(t, e.st.DB().Create(&a).Error, fmt.Sprintf("assignment %d", i))
	}

	jo := e.newJobOrder(t)
	_, err := e.svc.Accept(ctx, jo.DocNumber, e.driver.ID, nil, "driver-app")
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrInvariantViolation))
}

func TestComplete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	jo := e.newJobOrder(t)

	_, err := e.svc.Accept(ctx, jo.DocNumber, e.driver.ID, &e.vehicle.ID, "driver-app")
	require.NoError(t, err)

	a, err := e.svc.Complete(ctx, jo.DocNumber, e.driver.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusCompleted, a.Status)

	d, err := e.st.GetDriver(ctx, e.driver.ID)
	require.NoError(t, err)
	require.Equal(t, models.DriverStatusAvailable, d.Status)
}

func TestResolveCrewFallsBackToLatestAssignment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	jo := e.newJobOrder(t)

	a := models.Assignment{
		JobOrderID: jo.ID,
		DriverID:   e.driver.ID,
		VehicleID:  &e.vehicle.ID,
		Status:     models.AssignmentStatusCancelled,
		AssignedAt: time.Now().UTC(),
	}
	require.NoError(t, e.st.DB().Create(&a).Error)

	do := models.DeliveryOrder{Source: models.JobOrderRef(jo.DocNumber)}
	require.NoError(t, e.st.CreateDeliveryOrder(ctx, &do))

	crew, err := e.svc.ResolveCrew(ctx, &do)
	require.NoError(t, err)
	require.NotNil(t, crew.Driver)
	require.Equal(t, e.driver.ID, crew.Driver.ID)
	require.Equal(t, string(models.AssignmentStatusCancelled), crew.AssignmentStatus)
}

func TestResolveCrewFromManifest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mf := models.Manifest{OriginCity: "Jakarta", DestCity: "Bandung", DriverID: &e.driver.ID, VehicleID: &e.vehicle.ID}
	require.NoError(t, e.st.CreateManifest(ctx, &mf))

	do := models.DeliveryOrder{Source: models.ManifestRef(mf.DocNumber)}
	require.NoError(t, e.st.CreateDeliveryOrder(ctx, &do))

	crew, err := e.svc.ResolveCrew(ctx, &do)
	require.NoError(t, err)
	require.NotNil(t, crew.Driver)
	require.NotNil(t, crew.Vehicle)
	require.Equal(t, e.vehicle.PlateNumber, crew.Vehicle.PlateNumber)
}
