package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an amount is created without a currency.
const DefaultCurrency = "GBP"

const amountScale = 2

// Amount is a monetary value held at exactly two fraction digits.
type Amount struct {
	value    decimal.Decimal
	currency string
}

// NewAmount rounds value to two places. An empty currency means GBP.
func NewAmount(value decimal.Decimal, currency string) (Amount, error) {
	ve := &ValidationError{}
	value = value.Round(amountScale)
	if !value.IsPositive() {
		ve.Add("amount", "must be greater than zero")
	}
	cur, err := normalizeCurrency(currency)
	if err != nil {
		ve.AddErr("currency", err)
	}
	if err := ve.OrNil(); err != nil {
		return Amount{}, err
	}
	return Amount{value: value, currency: cur}, nil
}

// ParseAmount parses a decimal string such as "35" or "35.001".
func ParseAmount(value, currency string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		ve := &ValidationError{}
		ve.AddErr("amount", err)
		return Amount{}, ve
	}
	return NewAmount(d, currency)
}

func normalizeCurrency(s string) (string, error) {
	if s == "" {
		return DefaultCurrency, nil
	}
	cur := strings.ToUpper(strings.TrimSpace(s))
	if len(cur) != 3 {
		return "", fmt.Errorf("currency code %q must have 3 letters", s)
	}
	for i := 0; i < len(cur); i++ {
		if cur[i] < 'A' || cur[i] > 'Z' {
			return "", fmt.Errorf("currency code %q must have 3 letters", s)
		}
	}
	return cur, nil
}

func (a Amount) Value() decimal.Decimal { return a.value }

func (a Amount) Currency() string { return a.currency }

// String renders the value with two fraction digits, e.g. "35.00".
func (a Amount) String() string { return a.value.StringFixed(amountScale) }

func (a Amount) IsZero() bool { return a.currency == "" }

// Equal compares value and currency.
func (a Amount) Equal(b Amount) bool {
	return a.currency == b.currency && a.value.Equal(b.value)
}

type amountJSON struct {
	Amount   json.RawMessage `json:"amount"`
	Currency string          `json:"currency"`
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{Amount: a.String(), Currency: a.currency})
}

// UnmarshalJSON accepts the amount as a JSON string or number.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var raw amountJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s := strings.Trim(string(raw.Amount), `"`)
	parsed, err := ParseAmount(s, raw.Currency)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
