package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"autonomo/internal/billing"
	"autonomo/internal/fx"
	"autonomo/internal/models"
)

type stubRates struct{ rate float64 }

func (s stubRates) USDToEUR(context.Context) fx.Rate {
	return fx.Rate{Rate: s.rate, Timestamp: time.Now(), Source: "test"}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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

func seedUserAndClients(t *testing.T, db *gorm.DB) (models.User, models.Client, models.Client) {
	t.Helper()
	user := models.User{Email: "inv@test", Password: "x", Name: "Tester"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	domestic := models.Client{UserID: user.ID, Name: "TechStartup GmbH", Country: "Germany", Currency: "EUR", Domestic: true}
	if err := db.Create(&domestic).Error; err != nil {
		t.Fatalf("domestic client: %v", err)
	}
	foreign := models.Client{UserID: user.ID, Name: "Acme Corp", Country: "United States", Currency: "USD", Domestic: false}
	if err := db.Create(&foreign).Error; err != nil {
		t.Fatalf("foreign client: %v", err)
	}
	return user, domestic, foreign
}

func TestInvoiceCreateDomestic(t *testing.T) {
	db := setupTestDB(t)
	user, domestic, _ := seedUserAndClients(t, db)
	svc := NewInvoiceService(db, stubRates{rate: 0.85})

	inv, err := svc.Create(context.Background(), user.ID, CreateInvoiceInput{
		Number:   "INV-2024-001",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ClientID: domestic.ID,
		Items:    []ItemInput{{Description: "Consulting", Quantity: 10, UnitPriceCents: 5000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.SubtotalCents != 50000 || inv.VATAmountCents != 10500 || inv.WithholdingAmountCents != 7500 || inv.TotalCents != 60500 {
		t.Fatalf("unexpected totals: %+v", inv)
	}
	if inv.TotalEURCents != nil {
		t.Fatalf("EUR invoice must not carry a converted total")
	}
	if inv.Status != models.InvoiceStatusDraft {
		t.Fatalf("expected DRAFT got %s", inv.Status)
	}
	if len(inv.Items) != 1 || inv.Items[0].TotalCents != 50000 {
		t.Fatalf("unexpected items: %+v", inv.Items)
	}
}

func TestInvoiceCreateUSDConverts(t *testing.T) {
	db := setupTestDB(t)
	user, _, foreign := seedUserAndClients(t, db)
	svc := NewInvoiceService(db, stubRates{rate: 0.85})

	inv, err := svc.Create(context.Background(), user.ID, CreateInvoiceInput{
		Number:   "INV-2024-002",
		Date:     time.Now(),
		ClientID: foreign.ID,
		Items:    []ItemInput{{Description: "Dev", Quantity: 40, UnitPriceCents: 7500}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.VATAmountCents != 0 || inv.WithholdingAmountCents != 0 {
		t.Fatalf("foreign invoice must carry no VAT or withholding: %+v", inv)
	}
	if inv.TotalCents != 300000 {
		t.Fatalf("total: %d", inv.TotalCents)
	}
	if inv.TotalEURCents == nil || *inv.TotalEURCents != 255000 {
		t.Fatalf("EUR conversion: %+v", inv.TotalEURCents)
	}
	if inv.ExchangeRate == nil || *inv.ExchangeRate != 0.85 {
		t.Fatalf("rate not frozen on invoice: %+v", inv.ExchangeRate)
	}
}

func TestInvoiceCreateRejections(t *testing.T) {
	db := setupTestDB(t)
	user, domestic, _ := seedUserAndClients(t, db)
	svc := NewInvoiceService(db, stubRates{rate: 0.85})
	ctx := context.Background()

	if _, err := svc.Create(ctx, user.ID, CreateInvoiceInput{Number: "X", Date: time.Now(), ClientID: domestic.ID}); !errors.Is(err, ErrEmptyInvoice) {
		t.Fatalf("expected ErrEmptyInvoice got %v", err)
	}
	if _, err := svc.Create(ctx, user.ID, CreateInvoiceInput{
		Number: "X", Date: time.Now(), ClientID: 999,
		Items: []ItemInput{{Quantity: 1, UnitPriceCents: 100}},
	}); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound got %v", err)
	}
	if _, err := svc.Create(ctx, user.ID, CreateInvoiceInput{
		Number: "X", Date: time.Now(), ClientID: domestic.ID,
		Items: []ItemInput{{Quantity: -1, UnitPriceCents: 100}},
	}); !errors.Is(err, billing.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput got %v", err)
	}

	// another user's client is invisible
	other := models.User{Email: "other@test", Password: "x"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("other user: %v", err)
	}
	if _, err := svc.Create(ctx, other.ID, CreateInvoiceInput{
		Number: "X", Date: time.Now(), ClientID: domestic.ID,
		Items: []ItemInput{{Quantity: 1, UnitPriceCents: 100}},
	}); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound for foreign tenant got %v", err)
	}
}

func TestInvoiceCreateDuplicateNumber(t *testing.T) {
	db := setupTestDB(t)
	user, domestic, _ := seedUserAndClients(t, db)
	svc := NewInvoiceService(db, stubRates{rate: 0.85})
	ctx := context.Background()

	in := CreateInvoiceInput{
		Number: "INV-DUP", Date: time.Now(), ClientID: domestic.ID,
		Items: []ItemInput{{Quantity: 1, UnitPriceCents: 100}},
	}
	if _, err := svc.Create(ctx, user.ID, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, user.ID, in); !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber got %v", err)
	}
}

func TestInvoiceUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	user, domestic, _ := seedUserAndClients(t, db)
	svc := NewInvoiceService(db, stubRates{rate: 0.85})

	inv, err := svc.Create(context.Background(), user.ID, CreateInvoiceInput{
		Number: "INV-1", Date: time.Now(), ClientID: domestic.ID,
		Items: []ItemInput{{Quantity: 1, UnitPriceCents: 100}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(user.ID, inv.ID, "PAID"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	var loaded models.Invoice
	if err := db.First(&loaded, inv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Status != models.InvoiceStatusPaid || loaded.PaidDate == nil {
		t.Fatalf("expected PAID with paid date, got %+v", loaded)
	}

	if _, err := svc.UpdateStatus(user.ID, inv.ID, "SENT"); err != nil {
		t.Fatalf("back to sent: %v", err)
	}
	if err := db.First(&loaded, inv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.PaidDate != nil {
		t.Fatalf("paid date should clear when leaving PAID")
	}

	if _, err := svc.UpdateStatus(user.ID, inv.ID, "NOPE"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
