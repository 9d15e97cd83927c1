package receipt

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/telebirr-verify/internal/failure"
)

// MinHTMLLength is the shortest payload treated as a rendered receipt page.
const MinHTMLLength = 200

// notFoundPhrases are the operator's wordings for an unknown invoice.
var notFoundPhrases = []string{"no data", "not found", "invalid invoice", "does not exist"}

// CheckHTML rejects a payload too short to be a real page.
func CheckHTML(html string) error {
	if n := utf8.RuneCountInString(html); n < MinHTMLLength {
		return failure.New(failure.EmptyHTML).WithDetails(map[string]any{"length": n})
	}
	return nil
}

// CheckNotFound inspects cleaned page text for operator-side "not found"
// wording. It runs before resolution.
func CheckNotFound(text string) error {
	lower := strings.ToLower(text)
	for _, p := range notFoundPhrases {
		if strings.Contains(lower, p) {
			return failure.New(failure.TxNotFound).WithDetails(map[string]any{"phrase": p})
		}
	}
	return nil
}

// Presence reports which required fields a draft carries.
type Presence struct {
	HasInvoiceNo              bool `json:"hasInvoiceNo"`
	HasSettledAmount          bool `json:"hasSettledAmount"`
	HasCreditedPartyAccountNo bool `json:"hasCreditedPartyAccountNo"`
}

// OK reports whether every required field is present.
func (p Presence) OK() bool {
	return p.HasInvoiceNo && p.HasSettledAmount && p.HasCreditedPartyAccountNo
}

// PresenceOf reports the required fields of d.
func PresenceOf(d Draft) Presence {
	return Presence{
		HasInvoiceNo:              d.Has(InvoiceNo),
		HasSettledAmount:          d.Has(SettledAmount),
		HasCreditedPartyAccountNo: d.Has(CreditedPartyAccountNo),
	}
}

// Accept is the final quality gate. A draft missing any required field fails
// with PARSE_FAIL and its Presence as details, whatever else was recovered.
func Accept(d Draft) (Receipt, error) {
	p := PresenceOf(d)
	if !p.OK() {
		return Receipt{}, failure.New(failure.ParseFail).WithDetails(p)
	}
	return Receipt{
		PayerName:              d.Get(PayerName),
		PayerNameParts:         d.PayerNameParts,
		PayerTelebirrNo:        d.Get(PayerTelebirrNo),
		CreditedPartyName:      d.Get(CreditedPartyName),
		CreditedPartyNameParts: d.CreditedPartyNameParts,
		CreditedPartyAccountNo: d.Get(CreditedPartyAccountNo),
		TransactionStatus:      d.Get(TransactionStatus),
		InvoiceNo:              d.Get(InvoiceNo),
		PaymentDate:            d.Get(PaymentDate),
		SettledAmount:          d.Get(SettledAmount),
		RawData:                d.RawData,
	}, nil
}
