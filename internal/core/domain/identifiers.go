package domain

import (
	"judokit/internal/core/validation"
)

// JudoID identifies the merchant account a transaction is directed to.
type JudoID struct {
	value string
}

// NewJudoID validates s as a 6 to 10 digit, Luhn valid judo id.
func NewJudoID(s string) (JudoID, error) {
	ok, err := validation.Luhn(s)
	if err != nil {
		ve := &ValidationError{}
		ve.AddErr("judoId", err)
		return JudoID{}, ve
	}
	if !ok || !validation.JudoIDValid(s) {
		return JudoID{}, NewValidationError("judoId", "must be 6-10 digits and pass the Luhn check")
	}
	return JudoID{value: s}, nil
}

func (id JudoID) String() string { return id.value }

// IsZero reports whether id was never constructed.
func (id JudoID) IsZero() bool { return id.value == "" }

// ReceiptID identifies a transaction previously executed by the gateway.
type ReceiptID struct {
	value string
}

// NewReceiptID validates s as a Luhn valid receipt id.
func NewReceiptID(s string) (ReceiptID, error) {
	ok, err := validation.Luhn(s)
	if err != nil {
		ve := &ValidationError{}
		ve.AddErr("receiptId", err)
		return ReceiptID{}, ve
	}
	if !ok {
		return ReceiptID{}, NewValidationError("receiptId", "must pass the Luhn check")
	}
	return ReceiptID{value: s}, nil
}

func (id ReceiptID) String() string { return id.value }

func (id ReceiptID) IsZero() bool { return id.value == "" }
