package models

import (
	"testing"
	"time"
)

func TestCanTransitionJobOrder(t *testing.T) {
	if !CanTransitionJobOrder(JobOrderStatusCreated, JobOrderStatusAssigned) {
		t.Fatalf("expected created -> assigned allowed")
	}
	if !CanTransitionJobOrder(JobOrderStatusInTransit, JobOrderStatusCancelled) {
		t.Fatalf("expected in_transit -> cancelled allowed")
	}
	if CanTransitionJobOrder(JobOrderStatusCreated, JobOrderStatusInTransit) {
		t.Fatalf("expected created -> in_transit not allowed (skips assigned)")
	}
	if CanTransitionJobOrder(JobOrderStatusDelivered, JobOrderStatusCancelled) {
		t.Fatalf("expected delivered to be terminal")
	}
	if CanTransitionJobOrder(JobOrderStatusCancelled, JobOrderStatusCreated) {
		t.Fatalf("expected cancelled to be terminal")
	}
}

func TestJobOrderIsTerminal(t *testing.T) {
	jo := &JobOrder{Status: JobOrderStatusNearby}
	if jo.IsTerminal() {
		t.Fatalf("nearby is not terminal")
	}
	jo.Status = JobOrderStatusDelivered
	if !jo.IsTerminal() {
		t.Fatalf("delivered is terminal")
	}
	jo.Status = JobOrderStatusCancelled
	if !jo.IsTerminal() || !jo.IsCancelled() {
		t.Fatalf("cancelled is terminal and cancelled")
	}
}

func TestManifestApplyTransition(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	mf := &Manifest{Status: ManifestStatusPending}
	if !mf.ApplyTransition(ManifestStatusInTransit, now) {
		t.Fatalf("pending -> in_transit should apply")
	}
	if mf.DepartedAt == nil || !mf.DepartedAt.Equal(now) {
		t.Fatalf("expected departed_at stamped with %v, got %v", now, mf.DepartedAt)
	}

	if mf.ApplyTransition(ManifestStatusCompleted, now) {
		t.Fatalf("in_transit -> completed skips arrived, should be rejected")
	}

	if !mf.ApplyTransition(ManifestStatusCancelled, now) {
		t.Fatalf("in_transit -> cancelled should apply")
	}
	if mf.CancelledAt == nil {
		t.Fatalf("expected cancelled_at stamped")
	}
	if mf.ApplyTransition(ManifestStatusInTransit, now) {
		t.Fatalf("cancelled is terminal")
	}
}

func TestDeliveryStatusForJobOrder(t *testing.T) {
	cases := map[JobOrderStatus]DeliveryOrderStatus{
		JobOrderStatusProcessing:     DeliveryOrderStatusAssigned,
		JobOrderStatusInTransit:      DeliveryOrderStatusInTransit,
		JobOrderStatusPickupComplete: DeliveryOrderStatusInTransit,
		JobOrderStatusNearby:         DeliveryOrderStatusNearby,
		JobOrderStatusDelivered:      DeliveryOrderStatusDelivered,
	}
	for from, want := range cases {
		got, ok := DeliveryStatusForJobOrder(from)
		if !ok || got != want {
			t.Fatalf("mapping %s: got %s ok=%v, want %s", from, got, ok, want)
		}
	}

	for _, s := range []JobOrderStatus{JobOrderStatusCreated, JobOrderStatusAssigned, JobOrderStatusCancelled} {
		if _, ok := DeliveryStatusForJobOrder(s); ok {
			t.Fatalf("%s should not drive the dispatch document", s)
		}
	}
}

func TestInvoiceEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	inv := &Invoice{Status: InvoiceStatusPending, DueDate: &past}
	if got := inv.EffectiveStatus(now); got != InvoiceStatusOverdue {
		t.Fatalf("pending past due should read overdue, got %s", got)
	}

	inv.DueDate = &future
	if got := inv.EffectiveStatus(now); got != InvoiceStatusPending {
		t.Fatalf("pending before due should stay pending, got %s", got)
	}

	inv.Status = InvoiceStatusPaid
	inv.DueDate = &past
	if got := inv.EffectiveStatus(now); got != InvoiceStatusPaid {
		t.Fatalf("paid never reads overdue, got %s", got)
	}
}
