package receipt

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/telebirr-verify/internal/extract"
)

// Rule resolves one field. Keys are label aliases looked up in the table pairs,
// first match wins; Pattern is searched over the page text and its first group
// is the value. A rule uses Keys, Pattern, or both (keys first).
type Rule struct {
	Field   Field
	Keys    []string
	Pattern *regexp.Regexp
	// Valid, when set, rejects a candidate value; the next source is tried.
	Valid func(string) bool
}

// Rules is an ordered rule table.
type Rules []Rule

// The operator renders labels as "<Amharic>/<English>". Each list carries the
// bilingual form first, then English-only variants seen on older templates.
var (
	payerNameKeys = []string{
		"የከፋይ ስም/Payer Name",
		"Payer Name",
	}
	payerTelebirrKeys = []string{
		"የከፋይ ቴሌብር ቁ./Payer telebirr no.",
		"Payer telebirr no.",
		"Payer telebirr no",
	}
	creditedNameKeys = []string{
		"የገንዘብ ተቀባይ ስም/Credited Party name",
		"Credited Party name",
		"Receiver Name",
	}
	creditedAccountKeys = []string{
		"የገንዘብ ተቀባይ ቴሌብር ቁ./Credited party account no",
		"Credited party account no",
		"Credited party account no.",
		"Credited Party Account Number",
	}
	statusKeys = []string{
		"የክፍያው ሁኔታ/transaction status",
		"transaction status",
	}
)

var (
	invoicePattern = regexp.MustCompile(`(?i:invoice\s*no\.?)[:：]?\s*([A-Z0-9]{6,})`)
	datePattern    = regexp.MustCompile(`(?i:payment\s*date)[:：]?\s*(\d{2}[-/]\d{2}[-/]\d{4}\s+\d{2}:\d{2}:\d{2})`)
	amountPattern  = regexp.MustCompile(`(?i:settled\s*amount)[:：]?\s*(\d{1,3}(?:,\d{3})+(?:\.\d{2})?|\d+(?:\.\d{2})?)\s*(?i:birr)`)

	downloadPrompt = regexp.MustCompile(`(?i)download\s+the\s+pdf`)
)

// DefaultRules is the rule table for the operator's bilingual receipt layout.
// Invoice number, payment date and settled amount are unreliable in table form
// and come from the page text only.
var DefaultRules = Rules{
	{Field: PayerName, Keys: payerNameKeys},
	{Field: PayerTelebirrNo, Keys: payerTelebirrKeys},
	{Field: CreditedPartyName, Keys: creditedNameKeys},
	{Field: CreditedPartyAccountNo, Keys: creditedAccountKeys},
	{Field: TransactionStatus, Keys: statusKeys},
	{Field: InvoiceNo, Pattern: invoicePattern},
	{Field: PaymentDate, Pattern: datePattern},
	{Field: SettledAmount, Pattern: amountPattern, Valid: validAmount},
}

func validAmount(s string) bool {
	_, err := parseAmount(s)
	return err == nil
}

// lookup is the table side of resolution: exact label match first, then
// normalized-label match.
type lookup struct {
	pairs      *extract.Pairs
	normalized map[string]string
}

func newLookup(p *extract.Pairs) lookup {
	l := lookup{pairs: p, normalized: make(map[string]string, p.Len())}
	p.Each(func(label, value string) {
		k := extract.NormalizeKey(label)
		if _, dup := l.normalized[k]; !dup {
			l.normalized[k] = value
		}
	})
	return l
}

func (l lookup) find(alias string) (string, bool) {
	if v, ok := l.pairs.Get(alias); ok {
		return v, true
	}
	v, ok := l.normalized[extract.NormalizeKey(alias)]
	return v, ok
}

// searchText prepares page text for pattern rules.
func searchText(text string) string {
	return extract.CleanText(downloadPrompt.ReplaceAllString(text, " "))
}

func (r Rule) resolve(l lookup, text string) (string, bool) {
	for _, key := range r.Keys {
		if v, ok := l.find(key); ok && r.accepts(v) {
			return v, true
		}
	}
	if r.Pattern != nil {
		if m := r.Pattern.FindStringSubmatch(text); len(m) > 1 && r.accepts(m[1]) {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func (r Rule) accepts(v string) bool {
	if extract.CleanText(v) == "" {
		return false
	}
	return r.Valid == nil || r.Valid(v)
}
