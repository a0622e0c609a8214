package models

import (
	"time"

	"gorm.io/gorm"
)

// Vehicle represents a truck in the fleet
type Vehicle struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PlateNumber string         `gorm:"uniqueIndex;not null" json:"plate_number"`
	VehicleType string         `json:"vehicle_type"` // e.g. "CDD", "fuso", "tronton"
	CapacityKg  float64        `json:"capacity_kg"`
	Active      bool           `gorm:"default:true" json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Vehicle model
func (Vehicle) TableName() string {
	return "vehicles"
}
