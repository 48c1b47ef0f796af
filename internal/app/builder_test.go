package app

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"judokit/internal/core/domain"
	"judokit/internal/core/validation"
)

var fixedNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	verify, err := domain.ParseAmount("0.01", "GBP")
	require.NoError(t, err)
	b := NewBuilder(verify)
	b.now = func() time.Time { return fixedNow }
	return b
}

func mustAmount(t *testing.T, v, cur string) domain.Amount {
	t.Helper()
	a, err := domain.ParseAmount(v, cur)
	require.NoError(t, err)
	return a
}

func paymentRequest(t *testing.T) Request {
	t.Helper()
	judoID, err := domain.NewJudoID("100972777")
	require.NoError(t, err)
	ref, err := domain.NewReference("payment reference", "payment reference", nil)
	require.NoError(t, err)
	return Request{
		Type:      domain.TypePayment,
		JudoID:    judoID,
		Amount:    mustAmount(t, "35", "GBP"),
		Reference: ref,
	}
}

func TestBuilder_PaymentWithCard(t *testing.T) {
	b := newTestBuilder(t)
	req := paymentRequest(t)
	req.Card = &domain.CardInput{Number: "4976 0000 0000 3436", ExpiryDate: "12/29", SecurityCode: "452"}

	params, err := b.Build(req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"judoId":                "100972777",
		"amount":                "35.00",
		"currency":              "GBP",
		"yourConsumerReference": "payment reference",
		"yourPaymentReference":  "payment reference",
		"cardNumber":            "4976000000003436",
		"expiryDate":            "12/29",
		"securityCode":          "452",
	}, params)
}

func TestBuilder_TokenPayment(t *testing.T) {
	b := newTestBuilder(t)
	req := paymentRequest(t)
	req.Token = &domain.PaymentToken{ConsumerToken: "ctok", CardToken: "cardtok"}
	req.CardDetails = &domain.CardDetails{LastFour: "3436", CardToken: "cardtok", Network: validation.NetworkVisa}
	req.TokenCV2 = "452"

	params, err := b.Build(req)
	require.NoError(t, err)
	assert.Equal(t, "cardtok", params["cardToken"])
	assert.Equal(t, "ctok", params["consumerToken"])
	assert.Equal(t, "452", params["securityCode"])
	assert.NotContains(t, params, "cardNumber")
	assert.NotContains(t, params, "expiryDate")
}

func TestBuilder_TokenFromDifferentCard(t *testing.T) {
	b := newTestBuilder(t)
	req := paymentRequest(t)
	req.Token = &domain.PaymentToken{ConsumerToken: "ctok", CardToken: "cardtok"}
	req.CardDetails = &domain.CardDetails{CardToken: "other"}

	_, err := b.Build(req)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("cardToken"))
}

func TestBuilder_ApplePay(t *testing.T) {
	b := newTestBuilder(t)
	req := paymentRequest(t)
	req.ApplePayToken = []byte(`{"paymentData":"opaque"}`)
	req.DeviceSignal = map[string]any{"deviceId": "abc"}
	req.Address = &domain.CardAddress{Line1: "1 High St", Postcode: "SW1A 1AA", Country: validation.CountryUK}

	params, err := b.Build(req)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(req.ApplePayToken), params["pkPaymentToken"])
	assert.Equal(t, map[string]any{"deviceId": "abc"}, params["clientDetails"])
	assert.Equal(t, map[string]any{"address1": "1 High St", "postCode": "SW1A 1AA", "countryCode": 826}, params["cardAddress"])
}

func TestBuilder_RegisterCardDefaultsAmount(t *testing.T) {
	b := newTestBuilder(t)
	req := paymentRequest(t)
	req.Type = domain.TypeRegisterCard
	req.Amount = domain.Amount{}
	req.Card = &domain.CardInput{Number: "4976000000003436", ExpiryDate: "12/29"}

	params, err := b.Build(req)
	require.NoError(t, err)
	assert.Equal(t, "0.01", params["amount"])
	assert.Equal(t, "GBP", params["currency"])
}

func TestBuilder_RegisterCardRejectsToken(t *testing.T) {
	b := newTestBuilder(t)
	req := paymentRequest(t)
	req.Type = domain.TypeRegisterCard
	req.Token = &domain.PaymentToken{ConsumerToken: "ctok", CardToken: "cardtok"}

	_, err := b.Build(req)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("cardToken"))
}

func TestBuilder_AggregatesFieldErrors(t *testing.T) {
	b := newTestBuilder(t)
	req := Request{Type: domain.TypePayment}
	req.Card = &domain.CardInput{Number: "4976000000003437", ExpiryDate: "13/29", SecurityCode: "12", StartDate: "01/30"}
	req.Address = &domain.CardAddress{Postcode: "12345678", Country: validation.CountryUK}

	_, err := b.Build(req)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, field := range []string{"judoId", "amount", "yourConsumerReference", "cardNumber", "expiryDate", "securityCode", "startDate", "postCode"} {
		assert.True(t, ve.Has(field), "expected %s to fail", field)
	}
}

func TestBuilder_PaymentMethodRequired(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Build(paymentRequest(t))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("paymentMethod"))

	req := paymentRequest(t)
	req.Card = &domain.CardInput{Number: "4976000000003436", ExpiryDate: "12/29"}
	req.ApplePayToken = []byte("x")
	_, err = b.Build(req)
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("paymentMethod"))
}

func TestBuilder_Progression(t *testing.T) {
	b := newTestBuilder(t)
	rid, err := domain.NewReceiptID("4976000000003436")
	require.NoError(t, err)

	for _, typ := range []domain.TransactionType{domain.TypeCollection, domain.TypeRefund, domain.TypeVoid} {
		params, err := b.Build(Request{
			Type:           typ,
			ReceiptID:      rid,
			Amount:         mustAmount(t, "10.5", "GBP"),
			ProgressionRef: "ABC123",
		})
		require.NoError(t, err, typ.String())
		assert.Equal(t, map[string]any{
			"receiptId":            "4976000000003436",
			"amount":               "10.50",
			"yourPaymentReference": "ABC123",
		}, params)
		assert.NotContains(t, params, "currency")
	}

	_, err = b.Build(Request{Type: domain.TypeRefund, Card: &domain.CardInput{}})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("receiptId"))
	assert.True(t, ve.Has("amount"))
	assert.True(t, ve.Has("yourPaymentReference"))
	assert.True(t, ve.Has("paymentMethod"))
}

func TestBuilder_ThreeDSecureBody(t *testing.T) {
	b := newTestBuilder(t)
	rid, err := domain.NewReceiptID("4976000000003436")
	require.NoError(t, err)

	body, err := b.ThreeDSecureBody(rid, "pares", "md-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"receiptId": "4976000000003436", "paRes": "pares", "md": "md-1"}, body)

	_, err = b.ThreeDSecureBody(domain.ReceiptID{}, "", "")
	assert.Error(t, err)
}

func TestBuilder_ReceiptQuery(t *testing.T) {
	b := newTestBuilder(t)

	q, err := b.ReceiptQuery(domain.DefaultPagination())
	require.NoError(t, err)
	assert.Equal(t, "offset=0&pageSize=10&sort=time-descending", q.Encode())

	_, err = b.ReceiptQuery(domain.Pagination{PageSize: -1, Sort: domain.SortTimeAscending})
	assert.Error(t, err)
}
