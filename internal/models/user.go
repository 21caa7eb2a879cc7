package models

import "time"

// User is the freelancer profile. Every entity in the app hangs off a user
// so handlers always operate with an explicit tenant scope.
type User struct {
	ID         uint   `gorm:"primaryKey"`
	Email      string `gorm:"unique;not null;index"`
	Password   string `gorm:"not null" json:"-"` // bcrypt hash
	Name       string
	Phone      string
	Address    string
	TaxID      string // NIF
	RETANumber string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
