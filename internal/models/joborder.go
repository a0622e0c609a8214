package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobOrderStatus defines possible job order statuses
type JobOrderStatus string

const (
	JobOrderStatusCreated        JobOrderStatus = "created"         // Placed by customer, not yet crewed
	JobOrderStatusAssigned       JobOrderStatus = "assigned"        // Driver/vehicle accepted the order
	JobOrderStatusProcessing     JobOrderStatus = "processing"      // Goods being prepared
	JobOrderStatusInTransit      JobOrderStatus = "in_transit"      // On the road
	JobOrderStatusPickupComplete JobOrderStatus = "pickup_complete" // Goods picked up
	JobOrderStatusNearby         JobOrderStatus = "nearby"          // Approaching the drop point
	JobOrderStatusDelivered      JobOrderStatus = "delivered"       // Done
	JobOrderStatusCancelled      JobOrderStatus = "cancelled"       // Cancelled by customer or ops
)

// jobOrderTransitions is the directed graph of allowed status flows. Cancelled
// is reachable from every non-terminal state; delivered and cancelled are
// terminal.
var jobOrderTransitions = map[JobOrderStatus][]JobOrderStatus{
	JobOrderStatusCreated:        {JobOrderStatusAssigned, JobOrderStatusCancelled},
	JobOrderStatusAssigned:       {JobOrderStatusProcessing, JobOrderStatusCancelled},
	JobOrderStatusProcessing:     {JobOrderStatusInTransit, JobOrderStatusCancelled},
	JobOrderStatusInTransit:      {JobOrderStatusPickupComplete, JobOrderStatusCancelled},
	JobOrderStatusPickupComplete: {JobOrderStatusNearby, JobOrderStatusCancelled},
	JobOrderStatusNearby:         {JobOrderStatusDelivered, JobOrderStatusCancelled},
	JobOrderStatusDelivered:      {},
	JobOrderStatusCancelled:      {},
}

// CanTransitionJobOrder reports whether from -> to is an allowed status flow.
func CanTransitionJobOrder(from, to JobOrderStatus) bool {
	for _, s := range jobOrderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// JobOrder represents a single customer shipment request from pickup to delivery
type JobOrder struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DocNumber  string `gorm:"uniqueIndex;not null" json:"doc_number"` // e.g. "JO-20260829-0001"
	CustomerID uint   `gorm:"index;not null" json:"customer_id"`
	OrderType  string `gorm:"index" json:"order_type"` // regular | express | project

	Status JobOrderStatus `gorm:"default:created;index" json:"status"`

	// Pickup
	PickupAddress string  `gorm:"type:text" json:"pickup_address"`
	PickupCity    string  `gorm:"index" json:"pickup_city"`
	PickupLat     float64 `json:"pickup_lat"`
	PickupLng     float64 `json:"pickup_lng"`

	// Delivery
	DeliveryAddress string  `gorm:"type:text" json:"delivery_address"`
	DeliveryCity    string  `gorm:"index" json:"delivery_city"`
	DeliveryLat     float64 `json:"delivery_lat"`
	DeliveryLng     float64 `json:"delivery_lng"`

	// Goods
	GoodsDescription string  `gorm:"type:text" json:"goods_description"`
	GoodsWeight      float64 `json:"goods_weight"` // kg
	GoodsVolume      float64 `json:"goods_volume"` // m3
	GoodsQuantity    int     `json:"goods_quantity"`

	ShipDate *time.Time `json:"ship_date,omitempty"`

	// Cancellation metadata
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason"`

	QRCodeString string `gorm:"uniqueIndex;not null" json:"qr_code_string"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName specifies the table name for JobOrder model
func (JobOrder) TableName() string {
	return "job_orders"
}

// BeforeCreate issues the document number and QR payload before creating
func (j *JobOrder) BeforeCreate(tx *gorm.DB) error {
	if j.DocNumber == "" {
		num, err := nextDocNumber(tx, "job_orders", "doc_number", "JO")
		if err != nil {
			return err
		}
		j.DocNumber = num
	}
	if j.QRCodeString == "" {
		j.QRCodeString = "JO:" + uuid.NewString()
	}
	return nil
}

// IsCancelled returns true if the job order has been cancelled
func (j *JobOrder) IsCancelled() bool {
	return j.Status == JobOrderStatusCancelled
}

// IsTerminal returns true if no further status flow is allowed
func (j *JobOrder) IsTerminal() bool {
	return len(jobOrderTransitions[j.Status]) == 0
}
