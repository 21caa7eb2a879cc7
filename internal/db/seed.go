package db

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"autonomo/internal/models"
)

// Seed creates a demo freelancer with a pair of clients so a fresh dev
// database has something to look at. Idempotent: existing rows are kept.
func Seed(db *gorm.DB) {
	var user models.User
	if err := db.Where("email = ?", "demo@freelancer.es").First(&user).Error; err == gorm.ErrRecordNotFound {
		hash, _ := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
		user = models.User{
			Email:      "demo@freelancer.es",
			Password:   string(hash),
			Name:       "Demo Freelancer",
			Phone:      "+34 123 456 789",
			Address:    "Madrid, Spain",
			TaxID:      "12345678Z",
			RETANumber: "RETA-001",
		}
		if err := db.Create(&user).Error; err != nil {
			log.Warn().Err(err).Msg("seed: could not create demo user")
			return
		}
	}

	clients := []models.Client{
		{
			UserID: user.ID, Name: "Acme Corp", Email: "billing@acme.com",
			Address: "123 Main St, San Francisco, CA 94105", Country: "United States",
			Currency: "USD", Domestic: false,
		},
		{
			UserID: user.ID, Name: "TechStartup GmbH", Email: "finance@techstartup.de",
			Address: "Alexanderplatz 1, Berlin, Germany", Country: "Germany",
			Currency: "EUR", Domestic: true, TaxID: "DE123456789",
		},
	}
	for _, c := range clients {
		var existing models.Client
		if err := db.Where("user_id = ? AND name = ?", c.UserID, c.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&c).Error; err != nil {
				log.Warn().Err(err).Str("client", c.Name).Msg("seed: could not create client")
			}
		}
	}
}
