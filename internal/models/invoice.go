package models

import "time"

// Invoice statuses.
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusSent      = "SENT"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusOverdue   = "OVERDUE"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice stores the derived totals as plain columns, computed once at
// creation by the billing calculator. Editing items requires an explicit
// recomputation by the caller; nothing recalculates on read.
type Invoice struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"not null;index;uniqueIndex:idx_invoices_user_number"`
	ClientID uint   `gorm:"not null;index"`
	Client   Client `gorm:"foreignKey:ClientID"`
	Number   string `gorm:"not null;uniqueIndex:idx_invoices_user_number"`
	Date     time.Time
	DueDate  *time.Time
	Status   string `gorm:"not null;default:'DRAFT'"`

	Description string
	Notes       string

	Currency     string   `gorm:"not null;default:'EUR'"`
	ExchangeRate *float64 // USD→EUR rate applied at creation, USD invoices only

	SubtotalCents          int64
	VATRateBps             int
	VATAmountCents         int64
	WithholdingRateBps     int
	WithholdingAmountCents int64
	TotalCents             int64
	TotalEURCents          *int64

	PaidDate  *time.Time
	Items     []InvoiceItem `gorm:"foreignKey:InvoiceID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type InvoiceItem struct {
	ID             uint `gorm:"primaryKey"`
	InvoiceID      uint `gorm:"not null;index"`
	Description    string
	Quantity       float64 `gorm:"not null"`
	UnitPriceCents int64   `gorm:"not null"`
	TotalCents     int64   `gorm:"not null"`
}
