package models

import (
	"time"
)

// AssignmentStatus defines possible assignment statuses
type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "active"    // Driver currently on the job order
	AssignmentStatusCompleted AssignmentStatus = "completed" // Job order delivered
	AssignmentStatusCancelled AssignmentStatus = "cancelled" // Job order cancelled mid-assignment
	AssignmentStatusInactive  AssignmentStatus = "inactive"  // Superseded by a newer assignment
)

// Assignment binds a driver and vehicle to a job order for a period of active
// duty. At most one active assignment may exist per vehicle and per job order
// at any time; both checks run inside the accept transaction.
type Assignment struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	JobOrderID uint             `gorm:"index;not null" json:"job_order_id"`
	DriverID   uint             `gorm:"index;not null" json:"driver_id"`
	VehicleID  *uint            `gorm:"index" json:"vehicle_id,omitempty"`
	Status     AssignmentStatus `gorm:"default:active;index" json:"status"`
	AssignedAt time.Time        `json:"assigned_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	JobOrder *JobOrder `gorm:"foreignKey:JobOrderID" json:"job_order,omitempty"`
	Driver   *Driver   `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Vehicle  *Vehicle  `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
}

// TableName specifies the table name for Assignment model
func (Assignment) TableName() string {
	return "assignments"
}

// IsActive returns true while the driver is on duty for this job order
func (a *Assignment) IsActive() bool {
	return a.Status == AssignmentStatusActive
}
