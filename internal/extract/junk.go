package extract

import "strings"

// IsJunkPair reports whether a scanned pair is page chrome rather than data:
// an empty side, a PDF download prompt, or a label repeated as its own value.
func IsJunkPair(label, value string) bool {
	k, v := NormalizeKey(label), NormalizeKey(value)
	if k == "" || v == "" {
		return true
	}
	if v == "download the pdf" || v == "download pdf" {
		return true
	}
	if strings.Contains(v, "download") && strings.Contains(v, "pdf") {
		return true
	}
	return k == v
}

// FilterJunk returns the pairs that survive IsJunkPair, in their original order.
func FilterJunk(p *Pairs) *Pairs {
	out := &Pairs{}
	p.Each(func(label, value string) {
		if !IsJunkPair(label, value) {
			out.Set(label, value)
		}
	})
	return out
}
