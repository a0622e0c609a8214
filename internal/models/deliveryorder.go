package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryOrderStatus defines possible delivery order statuses
type DeliveryOrderStatus string

const (
	DeliveryOrderStatusPending   DeliveryOrderStatus = "pending"
	DeliveryOrderStatusAssigned  DeliveryOrderStatus = "assigned"
	DeliveryOrderStatusInTransit DeliveryOrderStatus = "in_transit"
	DeliveryOrderStatusNearby    DeliveryOrderStatus = "nearby"
	DeliveryOrderStatusDelivered DeliveryOrderStatus = "delivered"
	DeliveryOrderStatusCancelled DeliveryOrderStatus = "cancelled" // reachable from any state
)

// deliveryStatusByJobOrder is the fixed mapping from the active job order's
// status onto the delivery order dispatch status.
var deliveryStatusByJobOrder = map[JobOrderStatus]DeliveryOrderStatus{
	JobOrderStatusProcessing:     DeliveryOrderStatusAssigned,
	JobOrderStatusInTransit:      DeliveryOrderStatusInTransit,
	JobOrderStatusPickupComplete: DeliveryOrderStatusInTransit,
	JobOrderStatusNearby:         DeliveryOrderStatusNearby,
	JobOrderStatusDelivered:      DeliveryOrderStatusDelivered,
}

// DeliveryStatusForJobOrder maps a job order status onto the delivery order
// status. ok is false for statuses that do not drive the dispatch document
// (created, assigned, cancelled).
func DeliveryStatusForJobOrder(s JobOrderStatus) (DeliveryOrderStatus, bool) {
	d, ok := deliveryStatusByJobOrder[s]
	return d, ok
}

// DeliveryOrder is the dispatch document generated from a job order or a
// manifest. Driver and vehicle are not stored here; they are derived at read
// time from the source's current or most recent assignment.
type DeliveryOrder struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	DocNumber string `gorm:"uniqueIndex;not null" json:"doc_number"` // e.g. "DO-20260829-0001"

	// Source document (job order or manifest)
	Source SourceRef `gorm:"embedded" json:"source"`

	// For manifest-sourced DOs covering a single job order inside the trip
	// (the less-than-truckload case).
	SelectedJobOrderID *uint `gorm:"index" json:"selected_job_order_id,omitempty"`

	Status DeliveryOrderStatus `gorm:"default:pending;index" json:"status"`

	GoodsSummary string `gorm:"type:text" json:"goods_summary"`

	DODate        *time.Time `gorm:"column:do_date" json:"do_date,omitempty"`
	DepartureDate *time.Time `json:"departure_date,omitempty"`
	ETA           *time.Time `gorm:"column:eta" json:"eta,omitempty"`
	DeliveredDate *time.Time `json:"delivered_date,omitempty"`

	// Cancellation metadata
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for DeliveryOrder model
func (DeliveryOrder) TableName() string {
	return "delivery_orders"
}

// BeforeCreate issues the document number before creating
func (d *DeliveryOrder) BeforeCreate(tx *gorm.DB) error {
	if d.DocNumber == "" {
		num, err := nextDocNumber(tx, "delivery_orders", "doc_number", "DO")
		if err != nil {
			return err
		}
		d.DocNumber = num
	}
	return nil
}

// IsCancelled returns true if the delivery order has been cancelled
func (d *DeliveryOrder) IsCancelled() bool {
	return d.Status == DeliveryOrderStatusCancelled
}
