package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvoiceStatus defines possible invoice statuses
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue" // derived from due date, never stored
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice bills a completed job order, manifest or delivery order. A
// cancelled invoice has its source reference released (cleared) so the
// underlying document can be billed again.
type Invoice struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DocNumber  string `gorm:"uniqueIndex;not null" json:"doc_number"` // e.g. "INV-20260829-0001"
	CustomerID uint   `gorm:"index;not null" json:"customer_id"`

	// Source document. Zero after release.
	Source SourceRef `gorm:"embedded" json:"source"`

	Subtotal   float64 `json:"subtotal"`
	TaxAmount  float64 `json:"tax_amount"`
	Total      float64 `json:"total"`
	PaidAmount float64 `json:"paid_amount"`

	Status  InvoiceStatus `gorm:"default:pending;index" json:"status"`
	DueDate *time.Time    `json:"due_date,omitempty"`
	PaidAt  *time.Time    `json:"paid_at,omitempty"`

	PaymentMeta datatypes.JSON `json:"payment_meta,omitempty"` // method, bank ref, etc.
	Notes       string         `gorm:"type:text" json:"notes"` // receives the source-release note

	// Cancellation metadata
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName specifies the table name for Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// BeforeCreate issues the document number before creating
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.DocNumber == "" {
		num, err := nextDocNumber(tx, "invoices", "doc_number", "INV")
		if err != nil {
			return err
		}
		i.DocNumber = num
	}
	return nil
}

// EffectiveStatus returns the stored status, or overdue when a pending
// invoice has passed its due date.
func (i *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceStatusPending && i.DueDate != nil && now.After(*i.DueDate) {
		return InvoiceStatusOverdue
	}
	return i.Status
}

// IsTerminal returns true if the invoice can no longer change status
func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled
}
