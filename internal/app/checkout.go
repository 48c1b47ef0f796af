package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"judokit/internal/core/domain"
	"judokit/internal/core/ports"
	"judokit/internal/core/validation"
)

var _ ports.CheckoutService = (*Checkout)(nil)

// Checkout adapts the callback-based Client to blocking calls for the relay
// and the CLI.
type Checkout struct {
	client *Client
	logger *slog.Logger
}

// NewCheckout is the constructor of the checkout service.
func NewCheckout(client *Client, logger *slog.Logger) *Checkout {
	return &Checkout{client: client, logger: logger}
}

// Process creates, executes and waits for one transaction.
func (s *Checkout) Process(ctx context.Context, req domain.CheckoutRequest) (domain.Outcome, error) {
	tx, err := s.transaction(req)
	if err != nil {
		return domain.Outcome{}, err
	}
	s.logger.Debug("executing transaction", "type", tx.Type().String(), "payment_reference", tx.PaymentReference())
	return wait(func(done func(Result)) error { return tx.Execute(ctx, done) })
}

func (s *Checkout) transaction(req domain.CheckoutRequest) (*Transaction, error) {
	typ, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		ve := &domain.ValidationError{}
		ve.AddErr("type", err)
		return nil, ve
	}

	var amount domain.Amount
	if req.Amount != "" {
		if amount, err = domain.ParseAmount(req.Amount.String(), req.Currency); err != nil {
			return nil, err
		}
	}

	if typ.Progression() {
		tx, err := s.client.Create(typ, req.ReceiptID, amount, domain.Reference{})
		if err != nil {
			return nil, err
		}
		if req.PaymentReference != "" {
			tx.WithPaymentReference(req.PaymentReference)
		}
		return tx, nil
	}

	ref, err := s.client.NewReference(req.ConsumerReference, req.PaymentReference, req.MetaData)
	if err != nil {
		return nil, err
	}
	tx, err := s.client.Create(typ, req.JudoID, amount, ref)
	if err != nil {
		return nil, err
	}

	if req.CardNumber != "" {
		tx.WithCard(domain.CardInput{
			Number:       req.CardNumber,
			ExpiryDate:   req.ExpiryDate,
			SecurityCode: req.SecurityCode,
			StartDate:    req.StartDate,
			IssueNumber:  req.IssueNumber,
		})
	}
	if req.CardToken != "" || req.ConsumerToken != "" {
		token, err := domain.NewPaymentToken(req.ConsumerToken, req.CardToken)
		if err != nil {
			return nil, err
		}
		tx.WithPaymentToken(token, req.SecurityCode)
	}
	if wallet := applePayBytes(req.ApplePayToken); len(wallet) > 0 {
		tx.WithApplePayToken(wallet)
	}
	if a := req.CardAddress; a != nil {
		tx.WithCardAddress(domain.CardAddress{
			Line1:    a.Line1,
			Line2:    a.Line2,
			Line3:    a.Line3,
			Town:     a.Town,
			Postcode: a.Postcode,
			Country:  validation.ParseBillingCountry(a.Country),
		})
	}
	return tx, nil
}

// applePayBytes unwraps a JSON string token; any other JSON value is passed
// through as is.
func applePayBytes(raw json.RawMessage) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(strings.TrimSpace(s))
	}
	return raw
}

// CompleteThreeDSecure fulfils a challenge returned by an earlier Process.
func (s *Checkout) CompleteThreeDSecure(ctx context.Context, receiptID, paRes, md string) (domain.Outcome, error) {
	tx, err := s.client.ResumeThreeDSecure(receiptID, paRes, md)
	if err != nil {
		return domain.Outcome{}, err
	}
	return wait(func(done func(Result)) error { return tx.Execute(ctx, done) })
}

func (s *Checkout) Receipt(ctx context.Context, receiptID string) (domain.Outcome, error) {
	return wait(func(done func(Result)) error { return s.client.Receipt(ctx, receiptID, done) })
}

func (s *Checkout) ListReceipts(ctx context.Context, page domain.Pagination) (domain.Outcome, error) {
	return wait(func(done func(Result)) error { return s.client.ListReceipts(ctx, page, done) })
}

func (s *Checkout) ListTransactions(ctx context.Context, typ domain.TransactionType, page domain.Pagination) (domain.Outcome, error) {
	return wait(func(done func(Result)) error { return s.client.ListTransactions(ctx, typ, page, done) })
}

// wait blocks until the single completion of start arrives. Cancelling the
// caller's context aborts the gateway call, which still completes.
func wait(start func(done func(Result)) error) (domain.Outcome, error) {
	ch := make(chan Result, 1)
	if err := start(func(r Result) { ch <- r }); err != nil {
		return domain.Outcome{}, err
	}
	res := <-ch
	return res.Outcome, res.Err
}
