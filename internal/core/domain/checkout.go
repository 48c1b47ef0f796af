package domain

import "encoding/json"

// CheckoutRequest is the loosely typed transaction request accepted from
// outer surfaces. Its fields are validated when the transaction is created.
type CheckoutRequest struct {
	Type              string          `json:"type"`
	JudoID            string          `json:"judoId,omitempty"`
	ReceiptID         string          `json:"receiptId,omitempty"`
	Amount            json.Number     `json:"amount,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	ConsumerReference string          `json:"yourConsumerReference,omitempty"`
	PaymentReference  string          `json:"yourPaymentReference,omitempty"`
	MetaData          map[string]any  `json:"yourMetaData,omitempty"`
	CardNumber        string          `json:"cardNumber,omitempty"`
	ExpiryDate        string          `json:"expiryDate,omitempty"`
	SecurityCode      string          `json:"securityCode,omitempty"`
	StartDate         string          `json:"startDate,omitempty"`
	IssueNumber       string          `json:"issueNumber,omitempty"`
	CardToken         string          `json:"cardToken,omitempty"`
	ConsumerToken     string          `json:"consumerToken,omitempty"`
	ApplePayToken     json.RawMessage `json:"pkPaymentToken,omitempty"`
	CardAddress       *AddressRequest `json:"cardAddress,omitempty"`
}

// AddressRequest is the wire form of a billing address.
type AddressRequest struct {
	Line1    string `json:"address1,omitempty"`
	Line2    string `json:"address2,omitempty"`
	Line3    string `json:"address3,omitempty"`
	Town     string `json:"town,omitempty"`
	Postcode string `json:"postCode,omitempty"`
	Country  string `json:"country,omitempty"`
}
