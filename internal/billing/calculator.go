package billing

import (
	"errors"
	"fmt"
	"math"
)

// Fixed Spanish tax rates applied to domestic (EU/Spain) clients, in basis
// points. Export-of-services invoices to non-EU clients carry neither.
const (
	DomesticVATRateBps         = 2100 // IVA 21%
	DomesticWithholdingRateBps = 1500 // IRPF retención 15%
)

// ErrInvalidInput marks malformed calculator input (bad quantity, negative
// price, unsupported currency, missing USD rate). Handlers map it to a 400.
var ErrInvalidInput = errors.New("invalid input")

// LineItem is one billable line of an invoice. Quantity may be fractional
// (hours); the unit price is in integer cents.
type LineItem struct {
	Description    string
	Quantity       float64
	UnitPriceCents int64
}

// Totals holds the monetary fields of an invoice, all in integer cents.
// Withholding is informational: it reduces the amount the client actually
// remits but is never subtracted from TotalCents.
type Totals struct {
	SubtotalCents          int64
	VATRateBps             int
	VATAmountCents         int64
	WithholdingRateBps     int
	WithholdingAmountCents int64
	TotalCents             int64
	TotalEURCents          *int64 // only set for USD invoices
}

// LineTotal returns round(quantity × unitPrice) in cents.
func LineTotal(quantity float64, unitPriceCents int64) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive, got %g", ErrInvalidInput, quantity)
	}
	if unitPriceCents < 0 {
		return 0, fmt.Errorf("%w: unit price must not be negative, got %d", ErrInvalidInput, unitPriceCents)
	}
	return int64(math.Round(quantity * float64(unitPriceCents))), nil
}

// Subtotal sums line totals. An empty slice yields 0; rejecting empty
// invoices is the caller's business rule, not the calculator's.
func Subtotal(items []LineItem) (int64, error) {
	var sum int64
	for i, it := range items {
		total, err := LineTotal(it.Quantity, it.UnitPriceCents)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", i+1, err)
		}
		sum += total
	}
	return sum, nil
}

// VAT returns the applicable IVA rate and amount. Domestic clients pay 21%;
// exports of services to non-EU clients are out of scope of Spanish VAT.
func VAT(subtotalCents int64, domestic bool) (rateBps int, amountCents int64) {
	if !domestic {
		return 0, 0
	}
	return DomesticVATRateBps, applyBps(subtotalCents, DomesticVATRateBps)
}

// Withholding returns the IRPF retención rate and amount for domestic
// clients; foreign clients withhold nothing.
func Withholding(subtotalCents int64, domestic bool) (rateBps int, amountCents int64) {
	if !domestic {
		return 0, 0
	}
	return DomesticWithholdingRateBps, applyBps(subtotalCents, DomesticWithholdingRateBps)
}

// Total is subtotal plus VAT. Withholding does not reduce the invoice total;
// it is a downstream remittance obligation shown alongside it.
func Total(subtotalCents, vatAmountCents int64) int64 {
	return subtotalCents + vatAmountCents
}

// ConvertToEUR converts a USD cent amount with the supplied rate, rounding
// to the nearest cent.
func ConvertToEUR(totalCents int64, usdToEur float64) int64 {
	return int64(math.Round(float64(totalCents) * usdToEur))
}

// ComputeTotals derives every monetary field of an invoice from its line
// items and the client's tax classification. usdToEur is required for USD
// invoices and ignored otherwise; totals are computed once at creation time
// and never recomputed implicitly.
func ComputeTotals(items []LineItem, domestic bool, currency string, usdToEur *float64) (Totals, error) {
	switch currency {
	case "EUR", "USD":
	default:
		return Totals{}, fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, currency)
	}
	subtotal, err := Subtotal(items)
	if err != nil {
		return Totals{}, err
	}
	vatRate, vatAmount := VAT(subtotal, domestic)
	whRate, whAmount := Withholding(subtotal, domestic)
	t := Totals{
		SubtotalCents:          subtotal,
		VATRateBps:             vatRate,
		VATAmountCents:         vatAmount,
		WithholdingRateBps:     whRate,
		WithholdingAmountCents: whAmount,
		TotalCents:             Total(subtotal, vatAmount),
	}
	if currency == "USD" {
		if usdToEur == nil {
			return Totals{}, fmt.Errorf("%w: exchange rate required for USD invoices", ErrInvalidInput)
		}
		eur := ConvertToEUR(t.TotalCents, *usdToEur)
		t.TotalEURCents = &eur
	}
	return t, nil
}

// ApplyRate applies a basis-point rate to a cent amount, rounding to the
// nearest cent. Used for expense VAT where the rate comes from the receipt
// rather than the fixed domestic schedule.
func ApplyRate(amountCents int64, rateBps int) int64 {
	return applyBps(amountCents, rateBps)
}

func applyBps(amountCents int64, rateBps int) int64 {
	return int64(math.Round(float64(amountCents) * float64(rateBps) / 10000))
}
