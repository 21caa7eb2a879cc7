package billing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTotal(t *testing.T) {
	got, err := LineTotal(10, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), got)

	// fractional quantities round to the nearest cent
	got, err = LineTotal(2.5, 333)
	require.NoError(t, err)
	assert.Equal(t, int64(833), got)

	// free line is valid
	got, err = LineTotal(1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestLineTotalRejectsBadInput(t *testing.T) {
	_, err := LineTotal(0, 5000)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = LineTotal(-1, 5000)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = LineTotal(1, -100)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubtotal(t *testing.T) {
	sum, err := Subtotal([]LineItem{
		{Quantity: 40, UnitPriceCents: 7500},
		{Quantity: 30, UnitPriceCents: 5000},
		{Quantity: 10, UnitPriceCents: 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500000), sum)

	sum, err = Subtotal(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)

	_, err = Subtotal([]LineItem{{Quantity: 1, UnitPriceCents: 100}, {Quantity: -2, UnitPriceCents: 100}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVATAndWithholding(t *testing.T) {
	rate, amount := VAT(50000, true)
	assert.Equal(t, DomesticVATRateBps, rate)
	assert.Equal(t, int64(10500), amount)

	rate, amount = VAT(50000, false)
	assert.Zero(t, rate)
	assert.Zero(t, amount)

	rate, amount = Withholding(50000, true)
	assert.Equal(t, DomesticWithholdingRateBps, rate)
	assert.Equal(t, int64(7500), amount)

	rate, amount = Withholding(50000, false)
	assert.Zero(t, rate)
	assert.Zero(t, amount)
}

func TestTotalIgnoresWithholding(t *testing.T) {
	// withholding is shown on the invoice but never deducted from the total
	assert.Equal(t, int64(60500), Total(50000, 10500))
	assert.Equal(t, int64(50000), Total(50000, 0))
}

func TestConvertToEUR(t *testing.T) {
	assert.Equal(t, int64(425000), ConvertToEUR(500000, 0.85))
	assert.Equal(t, int64(93), ConvertToEUR(109, 0.855))
}

func TestComputeTotalsDomesticEUR(t *testing.T) {
	totals, err := ComputeTotals([]LineItem{{Description: "Consulting", Quantity: 10, UnitPriceCents: 5000}}, true, "EUR", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), totals.SubtotalCents)
	assert.Equal(t, 2100, totals.VATRateBps)
	assert.Equal(t, int64(10500), totals.VATAmountCents)
	assert.Equal(t, 1500, totals.WithholdingRateBps)
	assert.Equal(t, int64(7500), totals.WithholdingAmountCents)
	assert.Equal(t, int64(60500), totals.TotalCents)
	assert.Nil(t, totals.TotalEURCents)
}

func TestComputeTotalsForeignUSD(t *testing.T) {
	rate := 0.85
	totals, err := ComputeTotals([]LineItem{{Quantity: 40, UnitPriceCents: 7500}}, false, "USD", &rate)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), totals.SubtotalCents)
	assert.Zero(t, totals.VATRateBps)
	assert.Zero(t, totals.VATAmountCents)
	assert.Zero(t, totals.WithholdingAmountCents)
	assert.Equal(t, int64(300000), totals.TotalCents)
	require.NotNil(t, totals.TotalEURCents)
	assert.Equal(t, int64(255000), *totals.TotalEURCents)
}

func TestComputeTotalsRejections(t *testing.T) {
	_, err := ComputeTotals([]LineItem{{Quantity: 1, UnitPriceCents: 100}}, true, "GBP", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeTotals([]LineItem{{Quantity: 1, UnitPriceCents: 100}}, false, "USD", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeTotals([]LineItem{{Quantity: 0, UnitPriceCents: 100}}, true, "EUR", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
