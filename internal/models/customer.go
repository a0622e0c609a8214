package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents a billing customer placing job orders
type Customer struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Code        string         `gorm:"uniqueIndex;not null" json:"code"` // e.g. "CUST-0001"
	Name        string         `gorm:"not null;index" json:"name"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	Address     string         `gorm:"type:text" json:"address"`
	City        string         `gorm:"index" json:"city"`
	TaxID       string         `json:"tax_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Customer model
func (Customer) TableName() string {
	return "customers"
}
