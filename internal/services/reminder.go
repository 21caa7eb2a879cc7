package services

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"autonomo/internal/models"
	"autonomo/internal/taxcal"
)

// ReminderService persists copies of generated tax calendar entries and
// derives payment follow-ups from stored invoices.
type ReminderService struct {
	db *gorm.DB
}

func NewReminderService(db *gorm.DB) *ReminderService {
	return &ReminderService{db: db}
}

// Generated reminder types that SeedCalendar owns and may replace wholesale.
var generatedTypes = []string{
	string(taxcal.TypeTaxFiling),
	string(taxcal.TypeRETAPayment),
	string(taxcal.TypeInvoiceDue),
}

// SeedCalendar replaces the user's auto-generated reminders with the
// statutory and invoicing calendars for the given years. User-created
// reminders (other types) are untouched. Returns the number of rows created.
func (s *ReminderService) SeedCalendar(userID uint, years ...int) (int, error) {
	var generated []taxcal.TaxReminder
	for _, year := range years {
		generated = append(generated, taxcal.StatutoryReminders(year)...)
		generated = append(generated, taxcal.InvoicingReminders(year)...)
	}
	rows := make([]models.Reminder, 0, len(generated))
	for _, r := range generated {
		row := models.Reminder{
			UserID:      userID,
			Title:       r.Title,
			Description: r.Description,
			Type:        string(r.Type),
			Date:        r.Date,
			Recurring:   r.Recurring,
			Category:    string(r.Category),
			Priority:    string(r.Priority),
		}
		if r.Frequency != "" {
			f := string(r.Frequency)
			row.Frequency = &f
		}
		rows = append(rows, row)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND type IN ?", userID, generatedTypes).
			Delete(&models.Reminder{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, 100).Error
	})
	if err != nil {
		return 0, fmt.Errorf("seed calendar: %w", err)
	}
	return len(rows), nil
}

// PaymentReminders maps the user's open invoices to payment follow-up
// reminders. Nothing is persisted; the result feeds the calendar page.
func (s *ReminderService) PaymentReminders(userID uint) ([]taxcal.TaxReminder, error) {
	var invoices []models.Invoice
	if err := s.db.Preload("Client").Where("user_id = ?", userID).Find(&invoices).Error; err != nil {
		return nil, err
	}
	summaries := make([]taxcal.InvoiceSummary, 0, len(invoices))
	for _, inv := range invoices {
		summaries = append(summaries, taxcal.InvoiceSummary{
			ID:         strconv.FormatUint(uint64(inv.ID), 10),
			Number:     inv.Number,
			DueDate:    inv.DueDate,
			Status:     inv.Status,
			ClientName: inv.Client.Name,
		})
	}
	return taxcal.PaymentDueReminders(summaries), nil
}
