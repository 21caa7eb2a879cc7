package taxcal

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func byID(reminders []TaxReminder) map[string]TaxReminder {
	m := make(map[string]TaxReminder, len(reminders))
	for _, r := range reminders {
		m[r.ID] = r
	}
	return m
}

func TestStatutoryRemindersCounts(t *testing.T) {
	reminders := StatutoryReminders(2024)
	// 8 modelo130 + 8 modelo303 + 2 modelo100 + 1 modelo390 + 24 reta
	require.Len(t, reminders, 43)

	counts := map[Category]int{}
	for _, r := range reminders {
		counts[r.Category]++
	}
	assert.Equal(t, 8, counts[CategoryModelo130])
	assert.Equal(t, 8, counts[CategoryModelo303])
	assert.Equal(t, 2, counts[CategoryModelo100])
	assert.Equal(t, 1, counts[CategoryModelo390])
	assert.Equal(t, 24, counts[CategoryRETA])

	// ids must be unique
	assert.Len(t, byID(reminders), 43)
}

func TestStatutoryRemindersSortedAscending(t *testing.T) {
	reminders := StatutoryReminders(2024)
	assert.True(t, sort.SliceIsSorted(reminders, func(i, j int) bool {
		return reminders[i].Date.Before(reminders[j].Date)
	}))
}

func TestStatutoryRemindersGoldenDates(t *testing.T) {
	m := byID(StatutoryReminders(2024))

	q1 := m["modelo130-Q1-2024"]
	assert.Contains(t, q1.Title, "Q1")
	assert.Equal(t, d(2024, time.April, 30), q1.Date)
	assert.Equal(t, TypeTaxFiling, q1.Type)
	assert.Equal(t, PriorityHigh, q1.Priority)

	assert.Equal(t, d(2024, time.April, 23), m["modelo130-Q1-2024-reminder"].Date)

	// Q4 slips into January of the next year
	assert.Equal(t, d(2025, time.January, 30), m["modelo130-Q4-2024"].Date)
	assert.Equal(t, d(2025, time.January, 30), m["modelo303-Q4-2024"].Date)

	// annual declarations
	assert.Equal(t, d(2025, time.June, 30), m["modelo100-2024"].Date)
	assert.Equal(t, d(2025, time.June, 16), m["modelo100-2024-reminder"].Date)
	assert.Equal(t, d(2025, time.January, 30), m["modelo390-2024"].Date)
	assert.Equal(t, PriorityMedium, m["modelo390-2024"].Priority)

	// RETA January: due the 30th, reminder the 27th
	assert.Equal(t, d(2024, time.January, 30), m["reta-2024-1"].Date)
	assert.Equal(t, d(2024, time.January, 27), m["reta-2024-1-reminder"].Date)
	assert.Equal(t, TypeRETAPayment, m["reta-2024-1"].Type)

	// February has no 30th; the date normalizes into early March
	assert.Equal(t, d(2024, time.March, 1), m["reta-2024-2"].Date)
}

func TestStatutoryRemindersIdempotent(t *testing.T) {
	assert.Equal(t, StatutoryReminders(2024), StatutoryReminders(2024))
	assert.Equal(t, StatutoryReminders(1999), StatutoryReminders(1999))
}

func TestInvoicingReminders(t *testing.T) {
	reminders := InvoicingReminders(2024)
	require.Len(t, reminders, 12)
	for i, r := range reminders {
		assert.Equal(t, d(2024, time.Month(i+1), 1), r.Date)
		assert.Equal(t, TypeInvoiceDue, r.Type)
		assert.Equal(t, CategoryInvoice, r.Category)
		assert.Equal(t, PriorityHigh, r.Priority)
	}
	assert.Equal(t, "invoice-monthly-2024-1", reminders[0].ID)
}

func TestPaymentDueReminders(t *testing.T) {
	due := d(2024, time.March, 10)
	out := PaymentDueReminders([]InvoiceSummary{
		{ID: "1", Number: "INV-001", DueDate: &due, Status: "SENT", ClientName: "Acme Corp"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, d(2024, time.March, 3), out[0].Date)
	assert.Equal(t, PriorityMedium, out[0].Priority)
	assert.Equal(t, d(2024, time.March, 10), out[1].Date)
	assert.Equal(t, PriorityHigh, out[1].Priority)
	assert.Equal(t, d(2024, time.March, 13), out[2].Date)
	assert.Equal(t, PriorityHigh, out[2].Priority)
	assert.Equal(t, "payment-due-1-7days", out[0].ID)
	assert.Equal(t, "payment-due-1-today", out[1].ID)
	assert.Equal(t, "payment-overdue-1-3days", out[2].ID)
	for _, r := range out {
		assert.Equal(t, TypePaymentReceived, r.Type)
		assert.Contains(t, r.Description, "Acme Corp")
	}
}

func TestPaymentDueRemindersSkips(t *testing.T) {
	due := d(2024, time.March, 10)
	assert.Empty(t, PaymentDueReminders([]InvoiceSummary{
		{ID: "1", Number: "INV-001", DueDate: &due, Status: "PAID", ClientName: "Acme"},
	}))
	assert.Empty(t, PaymentDueReminders([]InvoiceSummary{
		{ID: "2", Number: "INV-002", DueDate: &due, Status: "CANCELLED", ClientName: "Acme"},
	}))
	assert.Empty(t, PaymentDueReminders([]InvoiceSummary{
		{ID: "3", Number: "INV-003", DueDate: nil, Status: "SENT", ClientName: "Acme"},
	}))
	assert.Empty(t, PaymentDueReminders(nil))
}
