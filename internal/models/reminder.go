package models

import "time"

// Reminder is a persisted copy of a generated taxcal.TaxReminder or a
// reminder the user created by hand. The generators themselves never write
// rows; the reminder service copies their output here and completion is
// tracked on the copy only.
type Reminder struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Type        string    `gorm:"not null;index"` // taxcal.Type values
	Date        time.Time `gorm:"not null;index"`
	Completed   bool
	Recurring   bool
	Frequency   *string
	Category    string
	Priority    string `gorm:"not null;default:'medium'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
