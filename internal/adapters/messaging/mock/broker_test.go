package mock

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"judokit/internal/core/domain"
)

func TestBroker_PublishOutcomeLogs(t *testing.T) {
	var buf bytes.Buffer
	b := NewBroker(slog.New(slog.NewTextHandler(&buf, nil)))

	err := b.PublishOutcome(context.Background(), domain.JournalEntry{
		Type:             domain.TypeVoid,
		Status:           domain.StatusSucceeded,
		PaymentReference: "pay-9",
		Amount:           decimal.NewFromInt(3),
		Currency:         "GBP",
	})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "payment_reference=pay-9")
	assert.Contains(t, buf.String(), "amount=3.00")
	assert.Contains(t, buf.String(), "type=void")
}
