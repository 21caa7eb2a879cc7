// Package pdf renders invoices as PDF documents for download.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"autonomo/internal/models"
	"autonomo/internal/view"
)

// RenderInvoice produces the invoice PDF: header with number and status,
// from/to blocks, the items table, the totals block with Spanish tax labels
// and, for USD invoices, the frozen EUR conversion. The legal footnotes
// depend on whether VAT and withholding were applied.
func RenderInvoice(inv models.Invoice, user models.User) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, "INVOICE", props.Text{Size: 20, Style: fontstyle.Bold}),
		col.New(4).Add(
			text.New("Nº "+inv.Number, props.Text{Size: 10, Align: align.Right}),
			text.New(inv.Date.Format("02/01/2006"), props.Text{Size: 10, Top: 5, Align: align.Right}),
		),
	)
	m.AddRow(8,
		col.New(10),
		text.NewCol(2, inv.Status, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	m.AddRow(40,
		col.New(6).Add(fromBlock(user)...),
		col.New(6).Add(toBlock(inv.Client)...),
	)

	meta := []string{"Invoice Date: " + inv.Date.Format("02/01/2006")}
	if inv.DueDate != nil {
		meta = append(meta, "Due Date: "+inv.DueDate.Format("02/01/2006"))
	}
	if inv.PaidDate != nil {
		meta = append(meta, "Paid Date: "+inv.PaidDate.Format("02/01/2006"))
	}
	m.AddRow(10,
		text.NewCol(12, strings.Join(meta, "    "), props.Text{Size: 9}),
	)

	m.AddRow(10,
		text.NewCol(6, "Descripción", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Cant.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Precio Unit.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	if len(inv.Items) == 0 {
		m.AddRow(8, text.NewCol(12, "No hay conceptos definidos", props.Text{Size: 9}))
	}
	for _, item := range inv.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, formatQuantity(item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, view.Money(item.UnitPriceCents, inv.Currency), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, view.Money(item.TotalCents, inv.Currency), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(4, col.New(12))
	totalsRow(m, "Subtotal:", view.Money(inv.SubtotalCents, inv.Currency), false)
	if inv.VATAmountCents > 0 {
		label := fmt.Sprintf("IVA (%s%%):", bpsPercent(inv.VATRateBps))
		totalsRow(m, label, view.Money(inv.VATAmountCents, inv.Currency), false)
	}
	if inv.WithholdingAmountCents > 0 {
		label := fmt.Sprintf("Retención IRPF (%s%%):", bpsPercent(inv.WithholdingRateBps))
		totalsRow(m, label, "-"+view.Money(inv.WithholdingAmountCents, inv.Currency), false)
	}
	m.AddRow(2, col.New(6), line.NewCol(6))
	totalsRow(m, "TOTAL:", view.Money(inv.TotalCents, inv.Currency), true)

	if inv.Currency == "USD" && inv.TotalEURCents != nil && inv.ExchangeRate != nil {
		totalsRow(m, "Total in EUR (tax purposes):", view.Money(*inv.TotalEURCents, "EUR"), false)
		m.AddRow(6,
			col.New(6),
			text.NewCol(6, fmt.Sprintf("Exchange rate: %.4f EUR/USD", *inv.ExchangeRate),
				props.Text{Size: 8, Align: align.Right}),
		)
	}

	m.AddRow(6, col.New(12))
	for _, note := range legalNotes(inv) {
		m.AddRow(6, text.NewCol(12, note, props.Text{Size: 8}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func totalsRow(m core.Maroto, label, amount string, bold bool) {
	style := fontstyle.Normal
	size := 9.0
	if bold {
		style = fontstyle.Bold
		size = 12
	}
	m.AddRow(7,
		col.New(6),
		text.NewCol(4, label, props.Text{Size: size, Style: style}),
		text.NewCol(2, amount, props.Text{Size: size, Style: style, Align: align.Right}),
	)
}

func fromBlock(user models.User) []core.Component {
	lines := []string{}
	if user.Name != "" {
		lines = append(lines, user.Name)
	}
	lines = append(lines, user.Email)
	if user.Address != "" {
		lines = append(lines, user.Address)
	}
	if user.TaxID != "" {
		lines = append(lines, "Tax ID: "+user.TaxID)
	}
	if user.RETANumber != "" {
		lines = append(lines, "RETA: "+user.RETANumber)
	}
	return addressBlock("From", lines)
}

func toBlock(client models.Client) []core.Component {
	lines := []string{client.Name}
	if client.Email != "" {
		lines = append(lines, client.Email)
	}
	if client.Address != "" {
		lines = append(lines, client.Address)
	}
	lines = append(lines, client.Country)
	if client.TaxID != "" {
		lines = append(lines, "Tax ID: "+client.TaxID)
	}
	lines = append(lines, client.Currency+" Client")
	return addressBlock("To", lines)
}

func addressBlock(title string, lines []string) []core.Component {
	comps := []core.Component{text.New(title, props.Text{Style: fontstyle.Bold, Size: 10})}
	top := 6.0
	for _, l := range lines {
		comps = append(comps, text.New(l, props.Text{Size: 9, Top: top}))
		top += 4.5
	}
	return comps
}

// legalNotes returns the footnotes required on Spanish invoices for the
// tax treatment actually applied.
func legalNotes(inv models.Invoice) []string {
	var notes []string
	if inv.WithholdingAmountCents > 0 {
		notes = append(notes, "RETENCIÓN IRPF: Esta factura está sujeta a retención del IRPF según normativa vigente.")
	}
	if inv.VATAmountCents > 0 {
		notes = append(notes, "IVA: Factura sujeta al Impuesto sobre el Valor Añadido según Ley 37/1992.")
	} else {
		notes = append(notes, "IVA: Operación no sujeta al IVA por tratarse de cliente extracomunitario.")
	}
	return notes
}

func bpsPercent(bps int) string {
	pct := float64(bps) / 100
	if pct == float64(int64(pct)) {
		return strconv.FormatInt(int64(pct), 10)
	}
	return strconv.FormatFloat(pct, 'f', 2, 64)
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return strconv.FormatInt(int64(q), 10)
	}
	return strconv.FormatFloat(q, 'f', 2, 64)
}
