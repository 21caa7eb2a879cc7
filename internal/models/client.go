package models

import "time"

// Client is a customer the freelancer bills. Domestic distinguishes EU
// clients (21% IVA + 15% IRPF withholding) from export clients (neither).
// It defaults from the billing currency at creation time: EUR means EU.
type Client struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	User      User   `gorm:"foreignKey:UserID" json:"-"`
	Name      string `gorm:"not null;index"`
	Email     string
	Phone     string
	Address   string
	Country   string `gorm:"not null"`
	TaxID     string
	Currency  string `gorm:"not null;default:'EUR'"` // EUR or USD
	Domestic  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
