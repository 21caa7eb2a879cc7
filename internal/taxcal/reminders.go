// Package taxcal generates the deterministic calendar of obligations a
// Spanish autónomo faces: statutory filings (modelos 130/303/100/390),
// monthly RETA payments, monthly invoicing nudges, and payment-due
// follow-ups tied to real invoices. All functions are pure: the same input
// always yields the same fully-materialized slice, and nothing here touches
// a database or clock.
package taxcal

import (
	"fmt"
	"sort"
	"time"
)

type Type string

const (
	TypeTaxFiling       Type = "TAX_FILING"
	TypeInvoiceDue      Type = "INVOICE_DUE"
	TypePaymentReceived Type = "PAYMENT_RECEIVED"
	TypeExpenseDeadline Type = "EXPENSE_DEADLINE"
	TypeRETAPayment     Type = "RETA_PAYMENT"
	TypeGeneral         Type = "GENERAL"
)

type Category string

const (
	CategoryModelo130 Category = "modelo130"
	CategoryModelo303 Category = "modelo303"
	CategoryModelo100 Category = "modelo100"
	CategoryModelo390 Category = "modelo390"
	CategoryRETA      Category = "reta"
	CategoryInvoice   Category = "invoice"
	CategoryGeneral   Category = "general"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Frequency string

const (
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// TaxReminder is an immutable value object. Callers may persist copies and
// mark those completed; the generators never mutate what they returned.
type TaxReminder struct {
	ID          string
	Title       string
	Description string
	Type        Type
	Date        time.Time
	Recurring   bool
	Frequency   Frequency // empty when not recurring
	Category    Category
	Priority    Priority
}

type quarter struct {
	name  string // Q1..Q4
	label string // Q1 (Jan-Mar)
	due   time.Month
}

// Quarterly declarations are due the last day of the month following the
// quarter end; Q4 slips into January of the next year.
var quarters = [4]quarter{
	{"Q1", "Q1 (Jan-Mar)", time.April},
	{"Q2", "Q2 (Apr-Jun)", time.July},
	{"Q3", "Q3 (Jul-Sep)", time.October},
	{"Q4", "Q4 (Oct-Dec)", time.January},
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

func date(year int, month time.Month, day int) time.Time {
	// time.Date normalizes out-of-range days (Feb 30 -> early March), which
	// matches how the RETA 30th-of-month rule has always behaved.
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StatutoryReminders returns the complete fixed set of Spanish tax filing
// and social security deadlines for a calendar year: 8 modelo 130 entries,
// 8 modelo 303, 2 modelo 100, 1 modelo 390 and 24 RETA entries (due dates
// plus pre-reminders), sorted ascending by date.
func StatutoryReminders(year int) []TaxReminder {
	reminders := make([]TaxReminder, 0, 43)

	// Modelo 130 - quarterly IRPF, due April/July/October 30 and January 30.
	for _, q := range quarters {
		dueYear := year
		if q.name == "Q4" {
			dueYear = year + 1
		}
		due := date(dueYear, q.due, 30)
		reminders = append(reminders,
			TaxReminder{
				ID:          fmt.Sprintf("modelo130-%s-%d", q.name, year),
				Title:       fmt.Sprintf("Modelo 130 - %s", q.label),
				Description: fmt.Sprintf("Quarterly personal income tax declaration for %s. Calculate and pay IRPF for autonomous workers.", q.label),
				Type:        TypeTaxFiling,
				Date:        due,
				Category:    CategoryModelo130,
				Priority:    PriorityHigh,
			},
			TaxReminder{
				ID:          fmt.Sprintf("modelo130-%s-%d-reminder", q.name, year),
				Title:       fmt.Sprintf("⚠️ Modelo 130 Due Soon - %s", q.label),
				Description: "Reminder: Modelo 130 is due in 7 days. Prepare your quarterly income tax declaration.",
				Type:        TypeTaxFiling,
				Date:        due.AddDate(0, 0, -7),
				Category:    CategoryModelo130,
				Priority:    PriorityHigh,
			},
		)
	}

	// Modelo 303 - quarterly IVA, same due dates as modelo 130.
	for _, q := range quarters {
		dueYear := year
		if q.name == "Q4" {
			dueYear = year + 1
		}
		due := date(dueYear, q.due, 30)
		reminders = append(reminders,
			TaxReminder{
				ID:          fmt.Sprintf("modelo303-%s-%d", q.name, year),
				Title:       fmt.Sprintf("Modelo 303 - VAT %s", q.label),
				Description: fmt.Sprintf("Quarterly VAT (IVA) declaration for %s. Report input and output VAT.", q.label),
				Type:        TypeTaxFiling,
				Date:        due,
				Category:    CategoryModelo303,
				Priority:    PriorityHigh,
			},
			TaxReminder{
				ID:          fmt.Sprintf("modelo303-%s-%d-reminder", q.name, year),
				Title:       fmt.Sprintf("⚠️ Modelo 303 Due Soon - %s", q.label),
				Description: "Reminder: VAT declaration is due in 7 days. Calculate your quarterly IVA.",
				Type:        TypeTaxFiling,
				Date:        due.AddDate(0, 0, -7),
				Category:    CategoryModelo303,
				Priority:    PriorityHigh,
			},
		)
	}

	// Modelo 100 - annual IRPF, due June 30 of the following year.
	annualDue := date(year+1, time.June, 30)
	reminders = append(reminders,
		TaxReminder{
			ID:          fmt.Sprintf("modelo100-%d", year),
			Title:       fmt.Sprintf("Modelo 100 - Annual Income Tax %d", year),
			Description: fmt.Sprintf("Annual personal income tax declaration for %d. Comprehensive IRPF filing including all income sources.", year),
			Type:        TypeTaxFiling,
			Date:        annualDue,
			Category:    CategoryModelo100,
			Priority:    PriorityHigh,
		},
		TaxReminder{
			ID:          fmt.Sprintf("modelo100-%d-reminder", year),
			Title:       "⚠️ Annual Tax Declaration Due Soon",
			Description: "Reminder: Modelo 100 annual tax declaration is due in 14 days. Gather all documents.",
			Type:        TypeTaxFiling,
			Date:        annualDue.AddDate(0, 0, -14),
			Category:    CategoryModelo100,
			Priority:    PriorityHigh,
		},
	)

	// Modelo 390 - annual VAT summary, due January 30 of the following year.
	reminders = append(reminders, TaxReminder{
		ID:          fmt.Sprintf("modelo390-%d", year),
		Title:       fmt.Sprintf("Modelo 390 - Annual VAT Summary %d", year),
		Description: fmt.Sprintf("Annual VAT summary declaration for %d. Reconcile quarterly VAT payments with annual totals.", year),
		Type:        TypeTaxFiling,
		Date:        date(year+1, time.January, 30),
		Category:    CategoryModelo390,
		Priority:    PriorityMedium,
	})

	// RETA - monthly social security, due the 30th of each month.
	for month := time.January; month <= time.December; month++ {
		reminders = append(reminders,
			TaxReminder{
				ID:          fmt.Sprintf("reta-%d-%d", year, int(month)),
				Title:       fmt.Sprintf("RETA Payment - %s %d", monthNames[month-1], year),
				Description: "Monthly RETA (Social Security) payment for autonomous workers. Amount varies based on contribution base.",
				Type:        TypeRETAPayment,
				Date:        date(year, month, 30),
				Category:    CategoryRETA,
				Priority:    PriorityMedium,
			},
			TaxReminder{
				ID:          fmt.Sprintf("reta-%d-%d-reminder", year, int(month)),
				Title:       fmt.Sprintf("RETA Payment Due Soon - %s", monthNames[month-1]),
				Description: "Reminder: RETA payment is due in 3 days. Check your contribution amount.",
				Type:        TypeRETAPayment,
				Date:        date(year, month, 27),
				Category:    CategoryRETA,
				Priority:    PriorityMedium,
			},
		)
	}

	// Stable sort keeps the category insertion order for same-date entries.
	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].Date.Before(reminders[j].Date)
	})
	return reminders
}

// InvoicingReminders returns twelve monthly nudges, one on the 1st of each
// month, to generate and send invoices for work done.
func InvoicingReminders(year int) []TaxReminder {
	reminders := make([]TaxReminder, 0, 12)
	for month := time.January; month <= time.December; month++ {
		reminders = append(reminders, TaxReminder{
			ID:          fmt.Sprintf("invoice-monthly-%d-%d", year, int(month)),
			Title:       fmt.Sprintf("📄 Generate Monthly Invoices - %s %d", monthNames[month-1], year),
			Description: fmt.Sprintf("Time to create and send invoices for %s. Review completed work and bill your clients.", monthNames[month-1]),
			Type:        TypeInvoiceDue,
			Date:        date(year, month, 1),
			Category:    CategoryInvoice,
			Priority:    PriorityHigh,
		})
	}
	return reminders
}

// InvoiceSummary is the slice of invoice state the payment-due generator
// needs; it is supplied by the caller and never mutated.
type InvoiceSummary struct {
	ID         string
	Number     string
	DueDate    *time.Time
	Status     string
	ClientName string
}

// PaymentDueReminders emits, for every open invoice with a due date, three
// follow-ups: 7 days before, on the due date, and 3 days after (overdue).
// Invoices that are PAID or CANCELLED, or have no due date, are skipped.
func PaymentDueReminders(invoices []InvoiceSummary) []TaxReminder {
	var reminders []TaxReminder
	for _, inv := range invoices {
		if inv.DueDate == nil || inv.Status == "PAID" || inv.Status == "CANCELLED" {
			continue
		}
		due := *inv.DueDate
		reminders = append(reminders,
			TaxReminder{
				ID:          fmt.Sprintf("payment-due-%s-7days", inv.ID),
				Title:       fmt.Sprintf("💰 Payment Due Soon - Invoice #%s", inv.Number),
				Description: fmt.Sprintf("Invoice #%s for %s is due in 7 days (%s).", inv.Number, inv.ClientName, due.Format("02/01/2006")),
				Type:        TypePaymentReceived,
				Date:        due.AddDate(0, 0, -7),
				Category:    CategoryInvoice,
				Priority:    PriorityMedium,
			},
			TaxReminder{
				ID:          fmt.Sprintf("payment-due-%s-today", inv.ID),
				Title:       fmt.Sprintf("⏰ Payment Due Today - Invoice #%s", inv.Number),
				Description: fmt.Sprintf("Invoice #%s for %s is due today. Follow up if payment not received.", inv.Number, inv.ClientName),
				Type:        TypePaymentReceived,
				Date:        due,
				Category:    CategoryInvoice,
				Priority:    PriorityHigh,
			},
			TaxReminder{
				ID:          fmt.Sprintf("payment-overdue-%s-3days", inv.ID),
				Title:       fmt.Sprintf("🚨 Payment Overdue - Invoice #%s", inv.Number),
				Description: fmt.Sprintf("Invoice #%s for %s is 3 days overdue. Consider sending a reminder or follow-up.", inv.Number, inv.ClientName),
				Type:        TypePaymentReceived,
				Date:        due.AddDate(0, 0, 3),
				Category:    CategoryInvoice,
				Priority:    PriorityHigh,
			},
		)
	}
	return reminders
}
