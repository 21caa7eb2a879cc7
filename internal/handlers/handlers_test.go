package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"autonomo/internal/auth"
	"autonomo/internal/fx"
	"autonomo/internal/models"
)

type stubRates struct{ rate float64 }

func (s stubRates) USDToEUR(context.Context) fx.Rate {
	return fx.Rate{Rate: s.rate, Timestamp: time.Now(), Source: "test"}
}

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	// unique in-memory DB per test name to avoid leakage via shared cache
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Client{}, &models.Invoice{}, &models.InvoiceItem{}, &models.Expense{}, &models.Reminder{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedHandlerUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{Email: "h@test", Password: "x", Name: "Handler Tester", TaxID: "12345678Z"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return user
}

func seedHandlerClients(t *testing.T, db *gorm.DB, userID uint) (models.Client, models.Client) {
	t.Helper()
	domestic := models.Client{UserID: userID, Name: "TechStartup GmbH", Country: "Germany", Currency: "EUR", Domestic: true}
	if err := db.Create(&domestic).Error; err != nil {
		t.Fatalf("domestic client: %v", err)
	}
	foreign := models.Client{UserID: userID, Name: "Acme Corp", Country: "United States", Currency: "USD", Domestic: false}
	if err := db.Create(&foreign).Error; err != nil {
		t.Fatalf("foreign client: %v", err)
	}
	return domestic, foreign
}

// asUser attaches the auth context and asks for JSON, the way API consumers do.
func asUser(req *http.Request, userID uint) *http.Request {
	req.Header.Set("Accept", "application/json")
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}
