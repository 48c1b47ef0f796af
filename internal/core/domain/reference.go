package domain

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/shopspring/decimal"
)

// DefaultReferenceMaxLength caps consumer and payment references unless
// configured otherwise.
const DefaultReferenceMaxLength = 50

// Reference ties a transaction to the merchant's own bookkeeping.
type Reference struct {
	consumer string
	payment  string
	meta     map[string]any
}

// NewReference builds a Reference with the default length cap.
func NewReference(consumer, payment string, meta map[string]any) (Reference, error) {
	return NewReferenceWithLimit(consumer, payment, meta, DefaultReferenceMaxLength)
}

// NewReferenceWithLimit builds a Reference whose strings are at most maxLen
// characters. maxLen <= 0 disables the cap.
func NewReferenceWithLimit(consumer, payment string, meta map[string]any, maxLen int) (Reference, error) {
	ve := &ValidationError{}
	checkRef := func(field, v string) {
		switch {
		case v == "":
			ve.Add(field, "must not be empty")
		case maxLen > 0 && len([]rune(v)) > maxLen:
			ve.Add(field, fmt.Sprintf("must be at most %d characters", maxLen))
		}
	}
	checkRef("yourConsumerReference", consumer)
	checkRef("yourPaymentReference", payment)

	for k, v := range meta {
		if !flatMetaValue(v) {
			ve.Add("yourMetaData", fmt.Sprintf("value of %q must be a string, number or bool", k))
		}
	}
	if err := ve.OrNil(); err != nil {
		return Reference{}, err
	}

	return Reference{consumer: consumer, payment: payment, meta: maps.Clone(meta)}, nil
}

func flatMetaValue(v any) bool {
	switch v.(type) {
	case string, bool, json.Number, decimal.Decimal,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func (r Reference) ConsumerReference() string { return r.consumer }

func (r Reference) PaymentReference() string { return r.payment }

// MetaData returns a copy of the metadata map, nil when none was given.
func (r Reference) MetaData() map[string]any { return maps.Clone(r.meta) }

func (r Reference) IsZero() bool { return r.consumer == "" }
