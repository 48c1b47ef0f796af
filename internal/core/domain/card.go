package domain

import (
	"strings"

	"judokit/internal/core/validation"
)

// CardDetails is the masked card description returned by the gateway. It is
// only ever decoded from a response.
type CardDetails struct {
	LastFour  string                 `json:"cardLastfour"`
	EndDate   string                 `json:"endDate"`
	Network   validation.CardNetwork `json:"cardNetwork"`
	CardToken string                 `json:"cardToken"`
}

// PaymentToken pairs the consumer and card tokens of a stored card.
type PaymentToken struct {
	ConsumerToken string
	CardToken     string
}

// NewPaymentToken requires both tokens.
func NewPaymentToken(consumerToken, cardToken string) (PaymentToken, error) {
	ve := &ValidationError{}
	if consumerToken == "" {
		ve.Add("consumerToken", "must not be empty")
	}
	if cardToken == "" {
		ve.Add("cardToken", "must not be empty")
	}
	if err := ve.OrNil(); err != nil {
		return PaymentToken{}, err
	}
	return PaymentToken{ConsumerToken: consumerToken, CardToken: cardToken}, nil
}

// CardAddress is the billing address checked by AVS.
type CardAddress struct {
	Line1    string
	Line2    string
	Line3    string
	Town     string
	Postcode string
	Country  validation.BillingCountry
}

// CardInput is raw card entry for a non-token transaction.
type CardInput struct {
	Number       string
	ExpiryDate   string
	SecurityCode string
	StartDate    string
	IssueNumber  string
}

// Normalized strips the spaces users type between card number groups.
func (c CardInput) Normalized() CardInput {
	c.Number = strings.ReplaceAll(strings.TrimSpace(c.Number), " ", "")
	c.ExpiryDate = strings.TrimSpace(c.ExpiryDate)
	c.SecurityCode = strings.TrimSpace(c.SecurityCode)
	c.StartDate = strings.TrimSpace(c.StartDate)
	c.IssueNumber = strings.TrimSpace(c.IssueNumber)
	return c
}

// Network detects the card scheme from the number.
func (c CardInput) Network() validation.CardNetwork {
	return validation.DetectNetwork(c.Normalized().Number)
}
