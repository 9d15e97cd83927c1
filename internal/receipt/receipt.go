package receipt

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hyperifyio/telebirr-verify/internal/extract"
)

// Field names one canonical receipt field.
type Field int

const (
	PayerName Field = iota
	PayerTelebirrNo
	CreditedPartyName
	CreditedPartyAccountNo
	TransactionStatus
	InvoiceNo
	PaymentDate
	SettledAmount
)

var fieldNames = [...]string{
	PayerName:              "payerName",
	PayerTelebirrNo:        "payerTelebirrNo",
	CreditedPartyName:      "creditedPartyName",
	CreditedPartyAccountNo: "creditedPartyAccountNo",
	TransactionStatus:      "transactionStatus",
	InvoiceNo:              "invoiceNo",
	PaymentDate:            "paymentDate",
	SettledAmount:          "settledAmount",
}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "unknown"
}

// NameParts splits a personal name by position: given name, father's name,
// grandfather's name, then whatever is left.
type NameParts struct {
	Full        string `json:"full,omitempty"`
	First       string `json:"first,omitempty"`
	Father      string `json:"father,omitempty"`
	Grandfather string `json:"grandfather,omitempty"`
	Rest        string `json:"rest,omitempty"`
}

// Draft is what resolution recovered from a page. Every field may be missing;
// only Accept turns a Draft into a Receipt.
type Draft struct {
	values map[Field]string

	PayerNameParts         *NameParts
	CreditedPartyNameParts *NameParts
	// RawData is the junk-filtered pair map, kept for diagnostics.
	RawData *extract.Pairs
}

// Get returns the value of f, or "" when it was not resolved.
func (d Draft) Get(f Field) string { return d.values[f] }

// Has reports whether f was resolved.
func (d Draft) Has(f Field) bool { return d.values[f] != "" }

// Set stores a cleaned value. Empty values are never stored.
func (d *Draft) Set(f Field, v string) {
	v = extract.CleanText(v)
	if v == "" {
		return
	}
	if d.values == nil {
		d.values = make(map[Field]string)
	}
	d.values[f] = v
}

// Receipt is an accepted canonical record. InvoiceNo, SettledAmount and
// CreditedPartyAccountNo are always set; the other fields are omitted when the
// page did not carry them.
type Receipt struct {
	PayerName              string         `json:"payerName,omitempty"`
	PayerNameParts         *NameParts     `json:"payerNameParts,omitempty"`
	PayerTelebirrNo        string         `json:"payerTelebirrNo,omitempty"`
	CreditedPartyName      string         `json:"creditedPartyName,omitempty"`
	CreditedPartyNameParts *NameParts     `json:"creditedPartyNameParts,omitempty"`
	CreditedPartyAccountNo string         `json:"creditedPartyAccountNo"`
	TransactionStatus      string         `json:"transactionStatus,omitempty"`
	InvoiceNo              string         `json:"invoiceNo"`
	PaymentDate            string         `json:"paymentDate,omitempty"`
	SettledAmount          string         `json:"settledAmount"`
	RawData                *extract.Pairs `json:"rawData"`
	SourceURL              string         `json:"sourceUrl,omitempty"`
}

// Amount parses SettledAmount, ignoring thousands separators.
func (r Receipt) Amount() (decimal.Decimal, error) {
	return parseAmount(r.SettledAmount)
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}
