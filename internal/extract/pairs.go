package extract

import (
	"bytes"
	"encoding/json"
)

// Pairs is an insertion-ordered label→value map. Labels are unique; the first
// value stored for a label is kept. The zero value is ready to use.
type Pairs struct {
	keys []string
	vals map[string]string
}

// NewPairs builds Pairs from alternating label, value arguments.
func NewPairs(kv ...string) *Pairs {
	p := &Pairs{}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

// Set stores value under label unless the label is already present. It
// reports whether the value was stored.
func (p *Pairs) Set(label, value string) bool {
	if p.vals == nil {
		p.vals = make(map[string]string)
	}
	if _, dup := p.vals[label]; dup {
		return false
	}
	p.vals[label] = value
	p.keys = append(p.keys, label)
	return true
}

// Get returns the value stored under the exact label.
func (p *Pairs) Get(label string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.vals[label]
	return v, ok
}

func (p *Pairs) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the labels in insertion order.
func (p *Pairs) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Each calls fn for every pair in insertion order.
func (p *Pairs) Each(fn func(label, value string)) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		fn(k, p.vals[k])
	}
}

// MarshalJSON writes the pairs as a JSON object in insertion order.
func (p *Pairs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the document order of its keys.
func (p *Pairs) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = Pairs{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var val string
		if err := dec.Decode(&val); err != nil {
			return err
		}
		p.Set(key, val)
	}
	_, err := dec.Token()
	return err
}
