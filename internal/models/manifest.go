package models

import (
	"time"

	"gorm.io/gorm"
)

// ManifestStatus defines possible manifest statuses
type ManifestStatus string

const (
	ManifestStatusPending   ManifestStatus = "pending"    // Being built, not yet departed
	ManifestStatusInTransit ManifestStatus = "in_transit" // Truck on the road
	ManifestStatusArrived   ManifestStatus = "arrived"    // Reached the destination city
	ManifestStatusCompleted ManifestStatus = "completed"  // All drops done
	ManifestStatusCancelled ManifestStatus = "cancelled"  // Trip cancelled
)

var manifestTransitions = map[ManifestStatus][]ManifestStatus{
	ManifestStatusPending:   {ManifestStatusInTransit, ManifestStatusCancelled},
	ManifestStatusInTransit: {ManifestStatusArrived, ManifestStatusCancelled},
	ManifestStatusArrived:   {ManifestStatusCompleted, ManifestStatusCancelled},
	ManifestStatusCompleted: {},
	ManifestStatusCancelled: {},
}

// CanTransitionManifest reports whether from -> to is an allowed status flow.
func CanTransitionManifest(from, to ManifestStatus) bool {
	for _, s := range manifestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Manifest groups job orders hauled together by one driver/vehicle on one trip.
//
// CargoWeight and CargoSummary are derived fields owned by the recalculation
// engine; nothing else may write them. DriverID/VehicleID are cleared by the
// engine when no active cargo is left.
type Manifest struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DocNumber  string `gorm:"uniqueIndex;not null" json:"doc_number"` // e.g. "MF-20260829-0001"
	OriginCity string `gorm:"index" json:"origin_city"`
	DestCity   string `gorm:"index" json:"dest_city"`

	// Derived aggregates (recalculation engine only)
	CargoWeight  float64 `json:"cargo_weight"` // kg, includes cancelled job orders (audit totals)
	CargoSummary string  `gorm:"type:text" json:"cargo_summary"`

	Status ManifestStatus `gorm:"default:pending;index" json:"status"`

	DriverID  *uint `gorm:"index" json:"driver_id,omitempty"`
	VehicleID *uint `gorm:"index" json:"vehicle_id,omitempty"`

	PlannedDeparture *time.Time `json:"planned_departure,omitempty"`
	PlannedArrival   *time.Time `json:"planned_arrival,omitempty"`
	DepartedAt       *time.Time `json:"departed_at,omitempty"`
	ArrivedAt        *time.Time `json:"arrived_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`

	// Cancellation metadata
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Driver  *Driver  `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Vehicle *Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
}

// TableName specifies the table name for Manifest model
func (Manifest) TableName() string {
	return "manifests"
}

// BeforeCreate issues the document number before creating
func (m *Manifest) BeforeCreate(tx *gorm.DB) error {
	if m.DocNumber == "" {
		num, err := nextDocNumber(tx, "manifests", "doc_number", "MF")
		if err != nil {
			return err
		}
		m.DocNumber = num
	}
	return nil
}

// ApplyTransition moves the manifest to a new status and stamps the matching
// timestamp on forward transitions. Callers must check CanTransitionManifest
// first; this returns false when the flow is not allowed.
func (m *Manifest) ApplyTransition(to ManifestStatus, now time.Time) bool {
	if !CanTransitionManifest(m.Status, to) {
		return false
	}
	m.Status = to
	switch to {
	case ManifestStatusInTransit:
		if m.DepartedAt == nil {
			t := now
			m.DepartedAt = &t
		}
	case ManifestStatusArrived:
		if m.ArrivedAt == nil {
			t := now
			m.ArrivedAt = &t
		}
	case ManifestStatusCompleted:
		if m.CompletedAt == nil {
			t := now
			m.CompletedAt = &t
		}
	case ManifestStatusCancelled:
		if m.CancelledAt == nil {
			t := now
			m.CancelledAt = &t
		}
	}
	return true
}

// ManifestJobOrder is the link table between manifests and job orders. The
// composite unique index guarantees a job order appears at most once per
// manifest, which is what makes the reattach repair safe to re-run.
type ManifestJobOrder struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ManifestID uint      `gorm:"not null;uniqueIndex:idx_manifest_job_order" json:"manifest_id"`
	JobOrderID uint      `gorm:"not null;uniqueIndex:idx_manifest_job_order;index" json:"job_order_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for ManifestJobOrder model
func (ManifestJobOrder) TableName() string {
	return "manifest_job_orders"
}
