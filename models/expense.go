package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type (
	// ExpenseRecord is one expense extracted from a WhatsApp message.
	ExpenseRecord struct {
		Item     Text  `json:"item"`
		Price    Price `json:"price"`
		Quantity Text  `json:"quantity"`
		Category Text  `json:"category"`
		Project  Text  `json:"project"`
	}

	// Text decodes from any JSON value: numbers and booleans keep their
	// literal text, null becomes empty and objects or arrays keep their JSON.
	Text string

	// Price is a non-negative amount of money. It decodes from JSON numbers
	// and from numeric strings like "50", "50,00" or "R$ 1.234,50".
	Price float64
)

const (
	// NotAvailable fills text fields the model could not extract.
	NotAvailable = "N/A"

	// TimestampLayout mimics the pt-BR locale date format.
	TimestampLayout = "02/01/2006, 15:04:05"
)

var (
	// ErrNotAnObject ...
	ErrNotAnObject = errors.New("model reply is not a json object")

	regexPriceToken = regexp.MustCompile(`^\s*(?:R\$)?\s*(-?)([0-9][0-9.,]*)\s*$`)
)

// ParseExpenseRecord decodes a model JSON reply and applies the defaults.
func ParseExpenseRecord(b []byte) (*ExpenseRecord, error) {
	b = bytes.TrimSpace(b)
	if !bytes.HasPrefix(b, []byte("{")) {
		return nil, ErrNotAnObject
	}
	var r ExpenseRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("error unmarshaling expense record: %w", err)
	}
	r.Normalize()
	return &r, nil
}

// Normalize fills blank text fields with "N/A" and clamps the price.
func (r *ExpenseRecord) Normalize() {
	for _, s := range []*Text{&r.Item, &r.Quantity, &r.Category, &r.Project} {
		*s = Text(strings.TrimSpace(string(*s)))
		if *s == "" {
			*s = NotAvailable
		}
	}
	if r.Price < 0 {
		r.Price = 0
	}
}

// ConfirmationMessage is the reply sent after the record is stored.
func (r *ExpenseRecord) ConfirmationMessage() string {
	return fmt.Sprintf("✅ Gasto registrado!\nItem: %s\nValor: %s\nObra: %s", r.Item, r.Price, r.Project)
}

// Row renders the spreadsheet row. The last column carries the whole record
// as JSON.
func (r *ExpenseRecord) Row(t time.Time) []interface{} {
	raw, err := json.Marshal(r)
	if err != nil {
		raw = []byte(NotAvailable)
	}
	return []interface{}{
		t.Format(TimestampLayout),
		string(r.Item),
		float64(r.Price),
		string(r.Quantity),
		string(r.Category),
		string(r.Project),
		string(raw),
	}
}

// UnmarshalJSON never fails on a valid JSON value.
func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case nil:
	case string:
		*t = Text(x)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return nil
		}
		*t = Text(buf.String())
	}
	return nil
}

func (p Price) String() string {
	return strconv.FormatFloat(float64(p), 'f', -1, 64)
}

// UnmarshalJSON never fails on a malformed price, it falls back to zero.
func (p *Price) UnmarshalJSON(b []byte) error {
	*p = 0
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		*p = Price(x)
	case string:
		if price, ok := ParsePrice(x); ok {
			*p = price
		}
	}
	if *p < 0 {
		*p = 0
	}
	return nil
}

// ParsePrice parses a price token written either with a dot or a comma as
// decimal separator. When both appear, the last one is the decimal separator.
func ParsePrice(tok string) (Price, bool) {
	m := regexPriceToken.FindStringSubmatch(tok)
	if m == nil {
		return 0, false
	}
	sign, digits := m[1], m[2]
	lastDot, lastComma := strings.LastIndex(digits, "."), strings.LastIndex(digits, ",")
	switch {
	case lastComma > lastDot:
		digits = strings.ReplaceAll(digits, ".", "")
		digits = strings.Replace(digits, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		digits = strings.ReplaceAll(digits, ",", "")
	case strings.Count(digits, ".") > 1:
		digits = strings.ReplaceAll(digits, ".", "")
	}
	if strings.Count(digits, ",") > 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	if sign == "-" {
		f = -f
	}
	return Price(f), true
}
