package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"autonomo/internal/billing"
	"autonomo/internal/fx"
	"autonomo/internal/models"
)

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrDuplicateNumber = errors.New("invoice number already exists")
	ErrEmptyInvoice    = errors.New("invoice needs at least one item")
)

// RateSource supplies the USD→EUR rate for USD invoices; satisfied by
// *fx.Client and by test stubs.
type RateSource interface {
	USDToEUR(ctx context.Context) fx.Rate
}

// InvoiceService turns a creation request into a persisted invoice with
// server-side computed totals.
type InvoiceService struct {
	db    *gorm.DB
	rates RateSource
}

func NewInvoiceService(db *gorm.DB, rates RateSource) *InvoiceService {
	return &InvoiceService{db: db, rates: rates}
}

type ItemInput struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
}

type CreateInvoiceInput struct {
	Number      string      `json:"number"`
	Date        time.Time   `json:"date"`
	DueDate     *time.Time  `json:"due_date"`
	ClientID    uint        `json:"client_id"`
	Description string      `json:"description"`
	Notes       string      `json:"notes"`
	Items       []ItemInput `json:"items"`
}

// Create computes totals from the client's tax profile and stores the
// invoice with its items in one transaction. The currency comes from the
// client; for USD clients the current exchange rate is fetched (with the
// rate client's own fallback) and frozen onto the invoice.
func (s *InvoiceService) Create(ctx context.Context, userID uint, in CreateInvoiceInput) (*models.Invoice, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyInvoice
	}
	var client models.Client
	if err := s.db.Where("id = ? AND user_id = ?", in.ClientID, userID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	lineItems := make([]billing.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		lineItems = append(lineItems, billing.LineItem{
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	var rate *float64
	if client.Currency == "USD" {
		r := s.rates.USDToEUR(ctx)
		rate = &r.Rate
	}
	totals, err := billing.ComputeTotals(lineItems, client.Domestic, client.Currency, rate)
	if err != nil {
		return nil, err
	}

	inv := models.Invoice{
		UserID:                 userID,
		ClientID:               client.ID,
		Number:                 in.Number,
		Date:                   in.Date,
		DueDate:                in.DueDate,
		Status:                 models.InvoiceStatusDraft,
		Description:            in.Description,
		Notes:                  in.Notes,
		Currency:               client.Currency,
		ExchangeRate:           rate,
		SubtotalCents:          totals.SubtotalCents,
		VATRateBps:             totals.VATRateBps,
		VATAmountCents:         totals.VATAmountCents,
		WithholdingRateBps:     totals.WithholdingRateBps,
		WithholdingAmountCents: totals.WithholdingAmountCents,
		TotalCents:             totals.TotalCents,
		TotalEURCents:          totals.TotalEURCents,
	}
	items := make([]models.InvoiceItem, 0, len(lineItems))
	for _, li := range lineItems {
		total, _ := billing.LineTotal(li.Quantity, li.UnitPriceCents) // validated by ComputeTotals
		items = append(items, models.InvoiceItem{
			Description:    li.Description,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
			TotalCents:     total,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}
	inv.Items = items
	inv.Client = client
	return &inv, nil
}

// UpdateStatus transitions an invoice, stamping PaidDate on PAID and
// clearing it otherwise.
func (s *InvoiceService) UpdateStatus(userID, invoiceID uint, status string) (*models.Invoice, error) {
	switch status {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusPaid,
		models.InvoiceStatusOverdue, models.InvoiceStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", billing.ErrInvalidInput, status)
	}
	var inv models.Invoice
	if err := s.db.Where("id = ? AND user_id = ?", invoiceID, userID).First(&inv).Error; err != nil {
		return nil, err
	}
	updates := map[string]any{"status": status}
	if status == models.InvoiceStatusPaid {
		now := time.Now()
		updates["paid_date"] = &now
	} else {
		updates["paid_date"] = nil
	}
	if err := s.db.Model(&inv).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
