package models

import (
	"time"

	"gorm.io/gorm"
)

// DriverStatus defines possible driver duty statuses
type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "available" // Ready for a new assignment
	DriverStatusOnDuty    DriverStatus = "on_duty"   // Holds at least one active assignment
	DriverStatusOffDuty   DriverStatus = "off_duty"  // Not working
)

// MaxActiveAssignmentsPerDriver caps how many job orders a driver may carry at once.
const MaxActiveAssignmentsPerDriver = 5

// Driver represents a truck driver available for assignments
type Driver struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;index" json:"name"`
	LicenseNo   string         `gorm:"uniqueIndex;not null" json:"license_no"`
	Phone       string         `json:"phone"`
	Status      DriverStatus   `gorm:"default:available;index" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Driver model
func (Driver) TableName() string {
	return "drivers"
}
