package services

import (
	"testing"
	"time"

	"autonomo/internal/models"
	"autonomo/internal/taxcal"
)

func TestSeedCalendarCounts(t *testing.T) {
	db := setupTestDB(t)
	user, _, _ := seedUserAndClients(t, db)
	svc := NewReminderService(db)

	n, err := svc.SeedCalendar(user.ID, 2024)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if want := 43 + 12; n != want {
		t.Fatalf("created %d reminders, want %d", n, want)
	}

	var count int64
	if err := db.Model(&models.Reminder{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != int64(n) {
		t.Fatalf("stored %d rows, want %d", count, n)
	}
}

func TestSeedCalendarReplacesGeneratedKeepsCustom(t *testing.T) {
	db := setupTestDB(t)
	user, _, _ := seedUserAndClients(t, db)
	svc := NewReminderService(db)

	custom := models.Reminder{
		UserID: user.ID, Title: "Renew coworking contract",
		Type: string(taxcal.TypeGeneral), Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Category: string(taxcal.CategoryGeneral), Priority: string(taxcal.PriorityMedium),
	}
	if err := db.Create(&custom).Error; err != nil {
		t.Fatalf("custom reminder: %v", err)
	}

	if _, err := svc.SeedCalendar(user.ID, 2024); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	n, err := svc.SeedCalendar(user.ID, 2024)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var count int64
	if err := db.Model(&models.Reminder{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	// reseeding must not duplicate; the custom reminder survives
	if count != int64(n)+1 {
		t.Fatalf("stored %d rows, want %d generated + 1 custom", count, n)
	}
}

func TestPaymentRemindersFromStoredInvoices(t *testing.T) {
	db := setupTestDB(t)
	user, domestic, _ := seedUserAndClients(t, db)
	svc := NewReminderService(db)

	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	open := models.Invoice{
		UserID: user.ID, ClientID: domestic.ID, Number: "INV-OPEN",
		Date: due.AddDate(0, -1, 0), DueDate: &due, Status: models.InvoiceStatusSent,
		Currency: "EUR",
	}
	paid := models.Invoice{
		UserID: user.ID, ClientID: domestic.ID, Number: "INV-PAID",
		Date: due.AddDate(0, -1, 0), DueDate: &due, Status: models.InvoiceStatusPaid,
		Currency: "EUR",
	}
	if err := db.Create(&open).Error; err != nil {
		t.Fatalf("open invoice: %v", err)
	}
	if err := db.Create(&paid).Error; err != nil {
		t.Fatalf("paid invoice: %v", err)
	}

	got, err := svc.PaymentReminders(user.ID)
	if err != nil {
		t.Fatalf("payment reminders: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d reminders, want 3 for the single open invoice", len(got))
	}
	for _, r := range got {
		if r.Type != taxcal.TypePaymentReceived {
			t.Fatalf("unexpected type %s", r.Type)
		}
	}
}
