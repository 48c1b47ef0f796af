package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"judokit/internal/core/domain"
)

func newTestCheckout(t *testing.T, gw *MockGateway) *Checkout {
	t.Helper()
	return NewCheckout(newTestClient(t, gw), slog.Default())
}

func TestCheckout_ProcessPayment(t *testing.T) {
	gw := new(MockGateway)
	s := newTestCheckout(t, gw)
	gw.On("Post", mock.Anything, "transactions/preauths", mock.MatchedBy(func(b map[string]any) bool {
		addr, _ := b["cardAddress"].(map[string]any)
		return b["amount"] == "12.30" && b["currency"] == "EUR" && addr["postCode"] == "90210" && addr["countryCode"] == 840
	})).Return(successOutcome("555"), nil)

	out, err := s.Process(context.Background(), domain.CheckoutRequest{
		Type:              "preauth",
		JudoID:            testJudoID,
		Amount:            json.Number("12.3"),
		Currency:          "eur",
		ConsumerReference: "consumer",
		PaymentReference:  "pay-1",
		CardNumber:        "4976000000003436",
		ExpiryDate:        "12/29",
		SecurityCode:      "452",
		CardAddress:       &domain.AddressRequest{Postcode: "90210", Country: "US"},
	})
	require.NoError(t, err)
	rec, ok := out.First()
	require.True(t, ok)
	assert.Equal(t, "555", rec.ReceiptID)
}

func TestCheckout_ProcessRefundWithReference(t *testing.T) {
	gw := new(MockGateway)
	s := newTestCheckout(t, gw)
	gw.On("Post", mock.Anything, "transactions/refunds", mock.MatchedBy(func(b map[string]any) bool {
		return b["yourPaymentReference"] == "refund-7" && b["receiptId"] == testReceiptID
	})).Return(successOutcome("556"), nil)

	_, err := s.Process(context.Background(), domain.CheckoutRequest{
		Type:             "refund",
		ReceiptID:        testReceiptID,
		Amount:           json.Number("1"),
		PaymentReference: "refund-7",
	})
	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestCheckout_ProcessApplePayString(t *testing.T) {
	gw := new(MockGateway)
	s := newTestCheckout(t, gw)
	gw.On("Post", mock.Anything, "transactions/payments", mock.MatchedBy(func(b map[string]any) bool {
		// the string token is re-encoded, never inspected
		return b["pkPaymentToken"] == "dG9rZW4="
	})).Return(successOutcome("557"), nil)

	_, err := s.Process(context.Background(), domain.CheckoutRequest{
		Type:              "payment",
		JudoID:            testJudoID,
		Amount:            json.Number("2"),
		ConsumerReference: "c",
		PaymentReference:  "p",
		ApplePayToken:     json.RawMessage(`"token"`),
	})
	require.NoError(t, err)
}

func TestCheckout_ProcessRejectsBadInput(t *testing.T) {
	gw := new(MockGateway)
	s := newTestCheckout(t, gw)

	_, err := s.Process(context.Background(), domain.CheckoutRequest{Type: "chargeback"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("type"))

	_, err = s.Process(context.Background(), domain.CheckoutRequest{Type: "payment", JudoID: testJudoID, Amount: "x"})
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("amount"))

	gw.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_CompleteThreeDSecure(t *testing.T) {
	gw := new(MockGateway)
	s := newTestCheckout(t, gw)
	gw.On("Put", mock.Anything, "transactions/"+testReceiptID, mock.Anything).Return(successOutcome(testReceiptID), nil)

	out, err := s.CompleteThreeDSecure(context.Background(), testReceiptID, "pares", "md")
	require.NoError(t, err)
	assert.Len(t, out.Records, 1)

	_, err = s.CompleteThreeDSecure(context.Background(), testReceiptID, "", "md")
	assert.Error(t, err)
}

func TestCheckout_Receipts(t *testing.T) {
	gw := new(MockGateway)
	s := newTestCheckout(t, gw)
	gw.On("Get", mock.Anything, "transactions/"+testReceiptID, mock.Anything).Return(successOutcome(testReceiptID), nil)
	gw.On("Get", mock.Anything, "transactions", mock.Anything).Return(domain.Outcome{}, &domain.APIError{Code: domain.CodeUnauthorized})

	_, err := s.Receipt(context.Background(), testReceiptID)
	require.NoError(t, err)

	_, err = s.ListReceipts(context.Background(), domain.DefaultPagination())
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, domain.CodeUnauthorized, apiErr.Code)
}

func TestCheckout_ListTransactions(t *testing.T) {
	gw := new(MockGateway)
	s := newTestCheckout(t, gw)
	gw.On("Get", mock.Anything, "transactions/payments", mock.Anything).Return(successOutcome(testReceiptID), nil)

	out, err := s.ListTransactions(context.Background(), domain.TypePayment, domain.DefaultPagination())
	require.NoError(t, err)
	rec, ok := out.First()
	require.True(t, ok)
	assert.Equal(t, testReceiptID, rec.ReceiptID)
}
