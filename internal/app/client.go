package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"judokit/internal/core/domain"
	"judokit/internal/core/ports"
)

const (
	dispatchBuffer = 64
	sinkTimeout    = 5 * time.Second
)

// Client is the entry point for creating and executing transactions. It is
// safe for concurrent use; each Transaction it creates is independent.
type Client struct {
	gateway   ports.Gateway
	builder   *Builder
	refs      ports.ReferenceGenerator
	signals   ports.DeviceSignalProvider
	guard     ports.ReferenceGuard
	repo      ports.TransactionRepository
	broker    ports.MessageBroker
	logger    *slog.Logger
	maxRefLen int

	dispatch *dispatcher
	inflight sync.WaitGroup
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

func WithBuilder(b *Builder) Option { return func(c *Client) { c.builder = b } }

func WithReferenceGenerator(g ports.ReferenceGenerator) Option {
	return func(c *Client) { c.refs = g }
}

func WithDeviceSignalProvider(p ports.DeviceSignalProvider) Option {
	return func(c *Client) { c.signals = p }
}

func WithReferenceGuard(g ports.ReferenceGuard) Option { return func(c *Client) { c.guard = g } }

func WithRepository(r ports.TransactionRepository) Option { return func(c *Client) { c.repo = r } }

func WithBroker(b ports.MessageBroker) Option { return func(c *Client) { c.broker = b } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithReferenceMaxLength caps consumer and payment references.
func WithReferenceMaxLength(n int) Option { return func(c *Client) { c.maxRefLen = n } }

// NewClient wires the facade to a gateway. Call Close to drain pending
// completions.
func NewClient(gateway ports.Gateway, opts ...Option) *Client {
	c := &Client{
		gateway:   gateway,
		logger:    slog.Default(),
		maxRefLen: domain.DefaultReferenceMaxLength,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.builder == nil {
		verify, _ := domain.ParseAmount("0.01", domain.DefaultCurrency)
		c.builder = NewBuilder(verify)
	}
	if c.refs == nil {
		c.refs = NewDeviceReferenceGenerator("", DefaultReferenceTrim)
	}
	c.dispatch = newDispatcher(dispatchBuffer)
	return c
}

// Close waits for in-flight transactions and their callbacks. It must not be
// called from a completion callback.
func (c *Client) Close() {
	c.inflight.Wait()
	c.dispatch.close()
}

// Create validates the identifiers of a new transaction. id is a judo id for
// payments, pre-auths and card registrations and a receipt id for
// collections, refunds and voids. Progression transactions take their
// payment reference from ref when it is set and from the reference
// generator otherwise.
func (c *Client) Create(typ domain.TransactionType, id string, amount domain.Amount, ref domain.Reference) (*Transaction, error) {
	if !typ.Valid() {
		return nil, domain.NewValidationError("type", "unknown transaction type")
	}
	req := Request{Type: typ, Amount: amount, Reference: ref}
	ve := &domain.ValidationError{}

	if typ.Progression() {
		rid, err := domain.NewReceiptID(id)
		ve.Merge(fieldReceiptID, err)
		req.ReceiptID = rid
		if amount.IsZero() {
			ve.Add(fieldAmount, "is required")
		}
		if !ref.IsZero() {
			req.ProgressionRef = ref.PaymentReference()
		} else {
			req.ProgressionRef = c.refs.PaymentReference()
		}
	} else {
		jid, err := domain.NewJudoID(id)
		ve.Merge(fieldJudoID, err)
		req.JudoID = jid
		if amount.IsZero() && typ != domain.TypeRegisterCard {
			ve.Add(fieldAmount, "is required")
		}
		if ref.IsZero() {
			ve.Add(fieldConsumerReference, "is required")
		}
	}
	if c.maxRefLen > 0 && len(req.ProgressionRef) > c.maxRefLen {
		ve.Add(fieldPaymentReference, "generated reference exceeds the configured maximum length")
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return newTransaction(c, req), nil
}

func (c *Client) Payment(judoID string, amount domain.Amount, ref domain.Reference) (*Transaction, error) {
	return c.Create(domain.TypePayment, judoID, amount, ref)
}

func (c *Client) PreAuth(judoID string, amount domain.Amount, ref domain.Reference) (*Transaction, error) {
	return c.Create(domain.TypePreAuth, judoID, amount, ref)
}

// RegisterCard charges the configured verification amount.
func (c *Client) RegisterCard(judoID string, ref domain.Reference) (*Transaction, error) {
	return c.Create(domain.TypeRegisterCard, judoID, domain.Amount{}, ref)
}

func (c *Client) Collection(receiptID string, amount domain.Amount) (*Transaction, error) {
	return c.Create(domain.TypeCollection, receiptID, amount, domain.Reference{})
}

func (c *Client) Refund(receiptID string, amount domain.Amount) (*Transaction, error) {
	return c.Create(domain.TypeRefund, receiptID, amount, domain.Reference{})
}

func (c *Client) VoidTransaction(receiptID string, amount domain.Amount) (*Transaction, error) {
	return c.Create(domain.TypeVoid, receiptID, amount, domain.Reference{})
}

// NewReference builds a Reference with the client's length cap.
func (c *Client) NewReference(consumer, payment string, meta map[string]any) (domain.Reference, error) {
	return domain.NewReferenceWithLimit(consumer, payment, meta, c.maxRefLen)
}

// ResumeThreeDSecure builds the fulfilment call for a challenge issued to an
// earlier request that is no longer held in memory.
func (c *Client) ResumeThreeDSecure(receiptID, paRes, md string) (*Transaction, error) {
	return c.resume(receiptID, paRes, md, Request{Type: domain.TypePayment})
}

func (c *Client) resume(receiptID, paRes, md string, carry Request) (*Transaction, error) {
	rid, err := domain.NewReceiptID(receiptID)
	if err != nil {
		return nil, err
	}
	if paRes == "" {
		return nil, domain.NewValidationError(fieldPaRes, "is required")
	}
	req := Request{
		Type:           carry.Type,
		JudoID:         carry.JudoID,
		ReceiptID:      rid,
		Amount:         carry.Amount,
		Reference:      carry.Reference,
		ProgressionRef: carry.ProgressionRef,
	}
	t := newTransaction(c, req)
	t.method = http.MethodPut
	t.paRes = paRes
	t.md = md
	return t, nil
}

// Receipt fetches a single receipt.
func (c *Client) Receipt(ctx context.Context, receiptID string, onComplete func(Result)) error {
	rid, err := domain.NewReceiptID(receiptID)
	if err != nil {
		return err
	}
	c.async(ctx, onComplete, func(ctx context.Context) (domain.Outcome, error) {
		return c.gateway.Get(ctx, domain.ReceiptPath(rid), nil)
	})
	return nil
}

// ListReceipts fetches one page of receipts.
func (c *Client) ListReceipts(ctx context.Context, page domain.Pagination, onComplete func(Result)) error {
	q, err := c.builder.ReceiptQuery(page)
	if err != nil {
		return err
	}
	c.async(ctx, onComplete, func(ctx context.Context) (domain.Outcome, error) {
		return c.gateway.Get(ctx, domain.ReceiptsPath, q)
	})
	return nil
}

// ListTransactions fetches one page of payments, pre-auths or card
// registrations. Collections, refunds and voids are listed through
// ListReceipts.
func (c *Client) ListTransactions(ctx context.Context, typ domain.TransactionType, page domain.Pagination, onComplete func(Result)) error {
	if !typ.Valid() || typ.Progression() {
		return domain.NewValidationError("type", fmt.Sprintf("%s transactions cannot be listed by type", typ))
	}
	q, err := c.builder.ReceiptQuery(page)
	if err != nil {
		return err
	}
	c.async(ctx, onComplete, func(ctx context.Context) (domain.Outcome, error) {
		return c.gateway.Get(ctx, typ.Path(), q)
	})
	return nil
}

func (c *Client) async(ctx context.Context, onComplete func(Result), call func(context.Context) (domain.Outcome, error)) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		out, err := call(ctx)
		c.deliver(onComplete, Result{Outcome: out, Err: err})
	}()
}

func (c *Client) deliver(onComplete func(Result), res Result) {
	if onComplete == nil {
		return
	}
	c.dispatch.submit(func() { onComplete(res) })
}

func (c *Client) claimReference(ctx context.Context, ref string) error {
	if c.guard == nil || ref == "" {
		return nil
	}
	ok, err := c.guard.Claim(ctx, ref)
	if err != nil {
		c.logger.Warn("reference guard unavailable, continuing", "payment_reference", ref, "error", err)
		return nil
	}
	if !ok {
		return domain.ErrDuplicateReference
	}
	return nil
}

func (c *Client) releaseReference(ctx context.Context, ref string) {
	if c.guard == nil || ref == "" {
		return
	}
	if err := c.guard.Release(context.WithoutCancel(ctx), ref); err != nil {
		c.logger.Warn("failed to release payment reference", "payment_reference", ref, "error", err)
	}
}

func (c *Client) deviceSignal(ctx context.Context) map[string]any {
	if c.signals == nil {
		return nil
	}
	signal, err := c.signals.Signal(ctx)
	if err != nil {
		c.logger.Debug("device signal unavailable", "error", err)
		return nil
	}
	return signal
}

// record hands a terminal outcome to the configured sinks. Sink failures are
// logged and never change the result.
func (c *Client) record(ctx context.Context, t *Transaction, res Result) {
	if c.repo == nil && c.broker == nil {
		return
	}
	entry := c.journalEntry(t, res)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	if c.repo != nil {
		if err := c.repo.Save(ctx, entry); err != nil {
			c.logger.Warn("failed to journal transaction", "receipt_id", entry.ReceiptID, "error", err)
		}
	}
	if c.broker != nil {
		if err := c.broker.PublishOutcome(ctx, entry); err != nil {
			c.logger.Warn("failed to publish transaction outcome", "receipt_id", entry.ReceiptID, "error", err)
		}
	}
}

func (c *Client) journalEntry(t *Transaction, res Result) domain.JournalEntry {
	req := t.req
	entry := domain.JournalEntry{
		ID:                uuid.New(),
		Type:              req.Type,
		JudoID:            req.JudoID.String(),
		ReceiptID:         req.ReceiptID.String(),
		ConsumerReference: req.Reference.ConsumerReference(),
		PaymentReference:  t.PaymentReference(),
		CreatedAt:         c.now().UTC(),
	}
	if !req.Amount.IsZero() {
		entry.Amount = req.Amount.Value()
		entry.Currency = req.Amount.Currency()
	}

	switch {
	case res.Cancelled():
		entry.Status = domain.StatusCancelled
	case res.Err != nil:
		entry.Status = domain.StatusFailed
		entry.Message = res.Err.Error()
		if apiErr, ok := res.APIError(); ok {
			code := apiErr.Code
			entry.ErrorCode = &code
			entry.Message = apiErr.Message
		}
	case res.Outcome.Challenge != nil:
		entry.Status = domain.StatusChallengeRequired
		entry.ReceiptID = res.Outcome.Challenge.ReceiptID
	default:
		entry.Status = domain.StatusSucceeded
		if rec, ok := res.Outcome.First(); ok {
			entry.ReceiptID = rec.ReceiptID
			entry.Message = rec.Message
			if rec.Result != "" && !rec.Successful() {
				entry.Status = domain.StatusFailed
			}
		}
	}
	return entry
}
