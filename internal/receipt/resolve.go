package receipt

import (
	"github.com/hyperifyio/telebirr-verify/internal/extract"
)

// Resolve maps filtered pairs and page text onto the canonical fields using
// DefaultRules. tx is the identifier the caller asked for; it stands in for
// the invoice number when the page text does not carry one.
func Resolve(pairs *extract.Pairs, text, tx string) Draft {
	return DefaultRules.Resolve(pairs, text, tx)
}

// Resolve runs every rule in order. A rule that finds nothing leaves its field
// unset; that is not an error here.
func (rs Rules) Resolve(pairs *extract.Pairs, text, tx string) Draft {
	if pairs == nil {
		pairs = &extract.Pairs{}
	}
	d := Draft{RawData: pairs}
	l := newLookup(pairs)
	search := searchText(text)
	for _, r := range rs {
		if d.Has(r.Field) {
			continue
		}
		if v, ok := r.resolve(l, search); ok {
			d.Set(r.Field, v)
		}
	}
	if !d.Has(InvoiceNo) {
		d.Set(InvoiceNo, tx)
	}
	d.PayerNameParts = ParseEthiopianName(d.Get(PayerName))
	d.CreditedPartyNameParts = ParseEthiopianName(d.Get(CreditedPartyName))
	return d
}
