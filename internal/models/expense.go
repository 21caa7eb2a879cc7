package models

import "time"

// Expense is a deductible (or not) business cost. USD expenses carry the
// rate applied at creation and the converted EUR amount used for tax
// reporting; EUR expenses keep AmountEURCents equal to AmountCents.
type Expense struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"not null;index"`
	Date        time.Time
	Description string `gorm:"not null"`
	Category    string

	AmountCents    int64  `gorm:"not null"`
	Currency       string `gorm:"not null;default:'EUR'"`
	VATRateBps     *int
	VATAmountCents *int64
	IsDeductible   bool `gorm:"default:true"`

	ExchangeRate   *float64
	AmountEURCents int64

	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
