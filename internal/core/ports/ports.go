package ports

import (
	"context"
	"net/url"
	"time"

	"judokit/internal/core/domain"
)

// Gateway sends requests to the payment gateway and returns the classified
// response. Implemented by the gateway session.
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values) (domain.Outcome, error)
	Post(ctx context.Context, path string, body map[string]any) (domain.Outcome, error)
	Put(ctx context.Context, path string, body map[string]any) (domain.Outcome, error)
}

// ReferenceGenerator produces the payment reference of collections,
// refunds and voids.
type ReferenceGenerator interface {
	PaymentReference() string
}

// DeviceSignalProvider supplies the fraud-prevention fingerprint attached as
// clientDetails. Best effort: callers proceed without it on error.
type DeviceSignalProvider interface {
	Signal(ctx context.Context) (map[string]any, error)
}

// ReferenceGuard claims a payment reference so a retried POST cannot charge
// twice. Claim returns false when the reference is already taken. Release
// frees a claim whose transaction was never sent.
type ReferenceGuard interface {
	Claim(ctx context.Context, paymentReference string) (bool, error)
	Release(ctx context.Context, paymentReference string) error
}

// TransactionRepository is an outgoing port for the transaction journal.
type TransactionRepository interface {
	Save(ctx context.Context, entry domain.JournalEntry) error
}

// MessageBroker publishes transaction outcomes.
type MessageBroker interface {
	PublishOutcome(ctx context.Context, entry domain.JournalEntry) error
}

// RateLimiter counts requests per key in a fixed window.
type RateLimiter interface {
	IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// CheckoutService is the incoming port used by the relay and the CLI. Each
// call blocks until the transaction outcome is known.
type CheckoutService interface {
	Process(ctx context.Context, req domain.CheckoutRequest) (domain.Outcome, error)
	CompleteThreeDSecure(ctx context.Context, receiptID, paRes, md string) (domain.Outcome, error)
	Receipt(ctx context.Context, receiptID string) (domain.Outcome, error)
	ListReceipts(ctx context.Context, page domain.Pagination) (domain.Outcome, error)
	ListTransactions(ctx context.Context, typ domain.TransactionType, page domain.Pagination) (domain.Outcome, error)
}
