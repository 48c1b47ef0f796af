package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"judokit/internal/core/domain"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.records = append(f.records, r)
	promise(r, f.err)
}

func testEntry() domain.JournalEntry {
	code := domain.CodeDuplicateTransaction
	return domain.JournalEntry{
		ID:               uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Type:             domain.TypePayment,
		Status:           domain.StatusFailed,
		JudoID:           "100972777",
		PaymentReference: "pay-1",
		Amount:           decimal.RequireFromString("35"),
		Currency:         "GBP",
		ErrorCode:        &code,
		Message:          "Duplicate transaction",
		CreatedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestBroker_PublishOutcome(t *testing.T) {
	prod := &fakeProducer{}
	b := &Broker{prod: prod, topic: "outcomes", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, b.PublishOutcome(context.Background(), testEntry()))
	b.Close()

	require.Len(t, prod.records, 1)
	rec := prod.records[0]
	assert.Equal(t, "outcomes", rec.Topic)
	assert.Equal(t, "pay-1", string(rec.Key))
	assert.Equal(t, []kgo.RecordHeader{{Key: "status", Value: []byte("FAILED")}}, rec.Headers)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &msg))
	assert.Equal(t, "payment", msg["type"])
	assert.Equal(t, "35.00", msg["amount"])
	assert.Equal(t, float64(86), msg["error_code"])
	assert.Equal(t, "2026-01-02T03:04:05Z", msg["created_at"])
	assert.NotContains(t, msg, "receipt_id")
}

func TestBroker_DeliveryFailureIsLoggedNotReturned(t *testing.T) {
	prod := &fakeProducer{err: errors.New("no leader")}
	b := &Broker{prod: prod, topic: "outcomes", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	assert.NoError(t, b.PublishOutcome(context.Background(), testEntry()))
	b.Close()
}

func TestDecodeOutcome_RoundTripsPublishedValue(t *testing.T) {
	payload, err := encodeOutcome(testEntry())
	require.NoError(t, err)

	msg, err := DecodeOutcome(payload)
	require.NoError(t, err)
	assert.Equal(t, "FAILED", msg.Status)
	assert.Equal(t, "35.00", msg.Amount)
	require.NotNil(t, msg.ErrorCode)
	assert.Equal(t, 86, *msg.ErrorCode)

	_, err = DecodeOutcome([]byte("not json"))
	assert.Error(t, err)
}
