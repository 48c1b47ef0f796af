package app

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"judokit/internal/core/domain"
	"judokit/internal/core/validation"
)

// Wire field names.
const (
	fieldJudoID            = "judoId"
	fieldReceiptID         = "receiptId"
	fieldAmount            = "amount"
	fieldCurrency          = "currency"
	fieldConsumerReference = "yourConsumerReference"
	fieldPaymentReference  = "yourPaymentReference"
	fieldMetaData          = "yourMetaData"
	fieldCardNumber        = "cardNumber"
	fieldCardToken         = "cardToken"
	fieldConsumerToken     = "consumerToken"
	fieldExpiryDate        = "expiryDate"
	fieldSecurityCode      = "securityCode"
	fieldStartDate         = "startDate"
	fieldIssueNumber       = "issueNumber"
	fieldCardAddress       = "cardAddress"
	fieldClientDetails     = "clientDetails"
	fieldApplePayToken     = "pkPaymentToken"
	fieldPaRes             = "paRes"
	fieldMD                = "md"
	fieldPaymentMethod     = "paymentMethod"
)

var avsCountryCodes = map[validation.BillingCountry]int{
	validation.CountryUK:     826,
	validation.CountryUSA:    840,
	validation.CountryCanada: 124,
}

// Request is everything the builder needs for one transaction body.
type Request struct {
	Type           domain.TransactionType
	JudoID         domain.JudoID
	ReceiptID      domain.ReceiptID
	Amount         domain.Amount
	Reference      domain.Reference
	ProgressionRef string
	Card           *domain.CardInput
	Address        *domain.CardAddress
	Token          *domain.PaymentToken
	CardDetails    *domain.CardDetails
	TokenCV2       string
	ApplePayToken  []byte
	DeviceSignal   map[string]any
}

// Builder turns validated domain values into gateway parameter maps. It does
// no I/O.
type Builder struct {
	registerCardAmount domain.Amount
	now                func() time.Time
}

// NewBuilder returns a Builder that charges verifyAmount for card
// registrations that carry no amount of their own.
func NewBuilder(verifyAmount domain.Amount) *Builder {
	return &Builder{registerCardAmount: verifyAmount, now: time.Now}
}

// Build returns the body of a POST for req. Every missing or invalid field
// is reported in a single *domain.ValidationError.
func (b *Builder) Build(req Request) (map[string]any, error) {
	if !req.Type.Valid() {
		return nil, domain.NewValidationError("type", fmt.Sprintf("unknown transaction type %d", req.Type))
	}
	if req.Type.Progression() {
		return b.progression(req)
	}
	return b.cardTransaction(req)
}

func (b *Builder) cardTransaction(req Request) (map[string]any, error) {
	ve := &domain.ValidationError{}
	params := map[string]any{}

	if req.JudoID.IsZero() {
		ve.Add(fieldJudoID, "is required")
	} else {
		params[fieldJudoID] = req.JudoID.String()
	}

	amount := req.Amount
	if amount.IsZero() && req.Type == domain.TypeRegisterCard {
		amount = b.registerCardAmount
	}
	if amount.IsZero() {
		ve.Add(fieldAmount, "is required")
	} else {
		params[fieldAmount] = amount.String()
		params[fieldCurrency] = amount.Currency()
	}

	if req.Reference.IsZero() {
		ve.Add(fieldConsumerReference, "is required")
	} else {
		params[fieldConsumerReference] = req.Reference.ConsumerReference()
		params[fieldPaymentReference] = req.Reference.PaymentReference()
		if meta := req.Reference.MetaData(); len(meta) > 0 {
			params[fieldMetaData] = meta
		}
	}

	sources := 0
	if req.Card != nil {
		sources++
	}
	if req.Token != nil {
		sources++
	}
	if len(req.ApplePayToken) > 0 {
		sources++
	}
	switch {
	case sources == 0:
		ve.Add(fieldPaymentMethod, "card details, a payment token or an Apple Pay token is required")
	case sources > 1:
		ve.Add(fieldPaymentMethod, "only one of card details, payment token or Apple Pay token may be set")
	}
	if req.Type == domain.TypeRegisterCard && req.Token != nil {
		ve.Add(fieldCardToken, "a card cannot be registered from a payment token")
	}

	if req.Card != nil {
		b.addCard(params, *req.Card, ve)
	}
	if req.Token != nil {
		addToken(params, req, ve)
	}
	if len(req.ApplePayToken) > 0 {
		params[fieldApplePayToken] = base64.StdEncoding.EncodeToString(req.ApplePayToken)
	}
	if req.Address != nil {
		if addr, err := addressParams(*req.Address); err != nil {
			ve.Merge(fieldCardAddress, err)
		} else {
			params[fieldCardAddress] = addr
		}
	}
	if len(req.DeviceSignal) > 0 {
		params[fieldClientDetails] = req.DeviceSignal
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return params, nil
}

func (b *Builder) addCard(params map[string]any, in domain.CardInput, ve *domain.ValidationError) {
	card := in.Normalized()
	now := b.now()

	if !validation.CardNumberValid(card.Number) {
		ve.Add(fieldCardNumber, "is not a valid card number")
	}
	if !validation.ExpiryDateValid(card.ExpiryDate, false, now) {
		ve.Add(fieldExpiryDate, "must be a future MM/YY date within 10 years")
	}
	network := validation.DetectNetwork(card.Number)
	if card.SecurityCode != "" && !validation.SecurityCodeValid(network, card.SecurityCode) {
		ve.Add(fieldSecurityCode, fmt.Sprintf("is not a valid %s security code", network))
	}
	if card.StartDate != "" && !validation.ExpiryDateValid(card.StartDate, true, now) {
		ve.Add(fieldStartDate, "must be a past MM/YY date within 10 years")
	}
	if card.IssueNumber != "" {
		if n, err := strconv.Atoi(card.IssueNumber); err != nil || n < 1 || n > 99 {
			ve.Add(fieldIssueNumber, "must be a number between 1 and 99")
		}
	}

	params[fieldCardNumber] = card.Number
	params[fieldExpiryDate] = card.ExpiryDate
	if card.SecurityCode != "" {
		params[fieldSecurityCode] = card.SecurityCode
	}
	if card.StartDate != "" {
		params[fieldStartDate] = card.StartDate
	}
	if card.IssueNumber != "" {
		params[fieldIssueNumber] = card.IssueNumber
	}
}

func addToken(params map[string]any, req Request, ve *domain.ValidationError) {
	params[fieldCardToken] = req.Token.CardToken
	params[fieldConsumerToken] = req.Token.ConsumerToken

	network := validation.NetworkUnknown
	if d := req.CardDetails; d != nil {
		if d.CardToken != "" && d.CardToken != req.Token.CardToken {
			ve.Add(fieldCardToken, "card details and payment token come from different cards")
		}
		network = d.Network
	}
	if req.TokenCV2 != "" {
		if !validation.SecurityCodeValid(network, req.TokenCV2) {
			ve.Add(fieldSecurityCode, fmt.Sprintf("is not a valid %s security code", network))
		}
		params[fieldSecurityCode] = req.TokenCV2
	}
}

func addressParams(a domain.CardAddress) (map[string]any, error) {
	out := map[string]any{}
	if a.Postcode != "" {
		country := a.Country
		if country == "" {
			country = validation.CountryUK
		}
		if !validation.PostcodeValid(country, a.Postcode) {
			return nil, domain.NewValidationError("postCode", fmt.Sprintf("is not a valid %s postcode", country))
		}
		out["postCode"] = a.Postcode
		if code, ok := avsCountryCodes[country]; ok {
			out["countryCode"] = code
		}
	}
	for k, v := range map[string]string{"address1": a.Line1, "address2": a.Line2, "address3": a.Line3, "town": a.Town} {
		if v != "" {
			out[k] = v
		}
	}
	return out, nil
}

func (b *Builder) progression(req Request) (map[string]any, error) {
	ve := &domain.ValidationError{}
	params := map[string]any{}

	if req.ReceiptID.IsZero() {
		ve.Add(fieldReceiptID, "is required")
	} else {
		params[fieldReceiptID] = req.ReceiptID.String()
	}
	if req.Amount.IsZero() {
		ve.Add(fieldAmount, "is required")
	} else {
		params[fieldAmount] = req.Amount.String()
	}
	if req.ProgressionRef == "" {
		ve.Add(fieldPaymentReference, "is required")
	} else {
		params[fieldPaymentReference] = req.ProgressionRef
	}
	if req.Card != nil || req.Token != nil || len(req.ApplePayToken) > 0 {
		ve.Add(fieldPaymentMethod, fmt.Sprintf("a %s acts on a receipt and takes no card", req.Type))
	}
	if len(req.DeviceSignal) > 0 {
		params[fieldClientDetails] = req.DeviceSignal
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return params, nil
}

// ThreeDSecureBody is the PUT body that fulfils a 3-D Secure challenge.
func (b *Builder) ThreeDSecureBody(receiptID domain.ReceiptID, paRes, md string) (map[string]any, error) {
	ve := &domain.ValidationError{}
	if receiptID.IsZero() {
		ve.Add(fieldReceiptID, "is required")
	}
	if paRes == "" {
		ve.Add(fieldPaRes, "is required")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return map[string]any{
		fieldReceiptID: receiptID.String(),
		fieldPaRes:     paRes,
		fieldMD:        md,
	}, nil
}

// ReceiptQuery encodes a listing page.
func (b *Builder) ReceiptQuery(p domain.Pagination) (url.Values, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(p.PageSize))
	q.Set("offset", strconv.Itoa(p.Offset))
	q.Set("sort", string(p.Sort))
	return q, nil
}
