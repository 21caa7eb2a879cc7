package pdf

import (
	"io"
	"testing"
	"time"

	"autonomo/internal/models"
)

func TestRenderInvoiceProducesPDF(t *testing.T) {
	rate := 0.85
	eur := int64(255000)
	inv := models.Invoice{
		Number:   "INV-2024-002",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:   models.InvoiceStatusSent,
		Currency: "USD",
		Client: models.Client{
			Name: "Acme Corp", Country: "United States", Currency: "USD",
		},
		Items: []models.InvoiceItem{
			{Description: "Development", Quantity: 40, UnitPriceCents: 7500, TotalCents: 300000},
		},
		SubtotalCents: 300000,
		TotalCents:    300000,
		ExchangeRate:  &rate,
		TotalEURCents: &eur,
	}
	user := models.User{
		Email: "demo@freelancer.es", Name: "Demo Freelancer",
		TaxID: "12345678Z", RETANumber: "RETA-001",
	}

	r, err := RenderInvoice(inv, user)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Fatalf("output does not look like a PDF (%d bytes)", len(data))
	}
}
