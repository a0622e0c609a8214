package models

import (
	"time"
)

// TriggerType records whether a status change came from a user action or the
// system (cascade, repair job).
type TriggerType string

const (
	TriggerUser   TriggerType = "user"
	TriggerSystem TriggerType = "system"
)

// StatusHistory is the append-only log of job order status transitions.
// Rows are never updated or deleted; one row is appended per observed
// transition.
type StatusHistory struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	JobOrderID uint           `gorm:"index;not null" json:"job_order_id"`
	Status     JobOrderStatus `gorm:"not null" json:"status"`
	ChangedBy  string         `gorm:"index" json:"changed_by"`
	Notes      string         `gorm:"type:text" json:"notes"`
	Trigger    TriggerType    `gorm:"column:trigger_type;default:user" json:"trigger_type"`
	ChangedAt  time.Time      `gorm:"not null" json:"changed_at"`
}

// TableName specifies the table name for StatusHistory model
func (StatusHistory) TableName() string {
	return "status_histories"
}
