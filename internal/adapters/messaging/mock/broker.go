package mock

import (
	"context"
	"log/slog"

	"judokit/internal/core/domain"
	"judokit/internal/core/ports"
)

var _ ports.MessageBroker = (*Broker)(nil)

// Broker - stub for MessageBroker that only logs outcomes. Used when no
// Kafka cluster is configured.
type Broker struct {
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{logger: logger}
}

func (b *Broker) Close() {}

func (b *Broker) PublishOutcome(ctx context.Context, e domain.JournalEntry) error {
	b.logger.InfoContext(ctx, "[MOCK] transaction outcome",
		"type", e.Type.String(),
		"status", string(e.Status),
		"receipt_id", e.ReceiptID,
		"payment_reference", e.PaymentReference,
		"amount", e.Amount.StringFixed(2),
		"currency", e.Currency,
	)
	return nil
}
