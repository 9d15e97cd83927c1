// Package slip renders a one-page PDF verification slip for an accepted
// receipt.
package slip

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/telebirr-verify/internal/receipt"
)

// Core PDF fonts carry no Ethiopic glyphs, so rows use the English half of
// each operator label.
type row struct {
	label string
	value string
}

func rows(r receipt.Receipt) []row {
	all := []row{
		{"Invoice No.", r.InvoiceNo},
		{"Payment date", r.PaymentDate},
		{"Settled Amount", amountText(r)},
		{"Transaction status", r.TransactionStatus},
		{"Payer Name", r.PayerName},
		{"Payer telebirr no.", r.PayerTelebirrNo},
		{"Credited Party name", r.CreditedPartyName},
		{"Credited party account no", r.CreditedPartyAccountNo},
	}
	out := all[:0]
	for _, rw := range all {
		if rw.value != "" {
			out = append(out, rw)
		}
	}
	return out
}

func amountText(r receipt.Receipt) string {
	amt, err := r.Amount()
	if err != nil {
		return r.SettledAmount
	}
	return amt.StringFixed(2) + " ETB"
}

// Render writes the slip for r to w. now stamps the verification time.
func Render(w io.Writer, r receipt.Receipt, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("telebirr receipt "+r.InvoiceNo, true)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.AddPage()
	pdf.CellFormat(0, 10, "telebirr receipt verification", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Verified "+now.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, rw := range rows(r) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(60, 8, rw.label, "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, latin(rw.value), "B", 1, "L", false, 0, "")
	}

	if r.SourceURL != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 9)
		pdf.Write(5, "Source: ")
		pdf.WriteLinkString(5, r.SourceURL, r.SourceURL)
		pdf.Ln(5)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render slip: %w", err)
	}
	return nil
}

// latin replaces runes outside Latin-1 so core fonts do not print garbage.
func latin(s string) string {
	b := make([]rune, 0, len(s))
	for _, c := range s {
		if c > 0xff {
			c = '?'
		}
		b = append(b, c)
	}
	return string(b)
}
