package guard

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/hyperifyio/telebirr-verify/internal/failure"
)

// Placeholder is substituted with the escaped transaction id in a receipt URL
// template.
const Placeholder = "{tx}"

// DefaultTemplate points at the operator's public receipt page.
const DefaultTemplate = "https://transactioninfo.ethiotelecom.et/receipt/" + Placeholder

var (
	txPattern      = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)
	receiptSegment = regexp.MustCompile(`/receipt/([^/?#]+)`)
)

// ValidateTransactionID accepts exactly 10 ASCII letters or digits. Case is
// preserved; nothing is trimmed.
func ValidateTransactionID(tx string) error {
	if !txPattern.MatchString(tx) {
		return failure.New(failure.TxFormat).WithDetails(map[string]any{"length": len(tx)})
	}
	return nil
}

// BuildReceiptURL substitutes tx into template. A template without the
// placeholder gets tx appended as the last path segment.
func BuildReceiptURL(template, tx string) string {
	esc := url.PathEscape(tx)
	if strings.Contains(template, Placeholder) {
		return strings.Replace(template, Placeholder, esc, 1)
	}
	return strings.TrimRight(template, "/") + "/" + esc
}

// Gate rejects URLs that would turn the verifier into an open fetch proxy.
// Host matching is exact and case-sensitive: no subdomains, no wildcards.
type Gate struct {
	AllowedHosts []string
}

// NewGate returns a Gate allowing exactly the given hosts.
func NewGate(hosts ...string) *Gate {
	list := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if s := strings.TrimSpace(h); s != "" {
			list = append(list, s)
		}
	}
	return &Gate{AllowedHosts: list}
}

// AssertAllowedURL parses raw and checks its scheme and host.
func (g *Gate) AssertAllowedURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, failure.Wrap(failure.InvalidURL, err)
	}
	// Relative references and scheme-only strings are not fetchable URLs.
	if u.Scheme == "" {
		return nil, failure.New(failure.InvalidURL).WithDetails(map[string]any{"url": raw})
	}
	if !isHTTPScheme(u) {
		return nil, failure.New(failure.InvalidProto).WithDetails(map[string]any{"scheme": u.Scheme})
	}
	if u.Hostname() == "" {
		return nil, failure.New(failure.InvalidURL).WithDetails(map[string]any{"url": raw})
	}
	if !g.hostAllowed(u.Hostname()) {
		return nil, failure.New(failure.HostNotAllowed).WithDetails(map[string]any{"host": u.Hostname()})
	}
	return u, nil
}

// Allowed reports whether u passes the gate. Used on redirect hops.
func (g *Gate) Allowed(u *url.URL) bool {
	return u != nil && isHTTPScheme(u) && g.hostAllowed(u.Hostname())
}

func (g *Gate) hostAllowed(host string) bool {
	if g == nil {
		return false
	}
	for _, h := range g.AllowedHosts {
		if h == host {
			return true
		}
	}
	return false
}

func isHTTPScheme(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

// ExtractTransactionIDFromURL recovers an id from a receipt link. It tries a
// /receipt/{id} segment, then the tx and id query parameters, then the final
// path segment. ok is false only when nothing is left to try.
func ExtractTransactionIDFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if m := receiptSegment.FindStringSubmatch(u.EscapedPath()); m != nil {
		if id, err := url.PathUnescape(m[1]); err == nil && id != "" {
			return id, true
		}
	}
	q := u.Query()
	for _, key := range []string{"tx", "id"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v, true
		}
	}
	segs := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return "", false
	}
	return segs[len(segs)-1], true
}
