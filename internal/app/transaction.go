package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"judokit/internal/core/domain"
)

// State is the lifecycle position of a Transaction.
type State int32

const (
	StateBuilding State = iota
	StateValidated
	StateSent
	StateSucceeded
	StateFailed
	StateChallengeRequired
	StateCancelled
)

var stateNames = [...]string{"building", "validated", "sent", "succeeded", "failed", "challenge_required", "cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s >= StateSucceeded
}

// Result is delivered exactly once to the completion callback.
type Result struct {
	Type    domain.TransactionType
	Outcome domain.Outcome
	Err     error
}

// Succeeded reports a success outcome with no pending challenge.
func (r Result) Succeeded() bool {
	return r.Err == nil && !r.Outcome.ChallengeRequired()
}

// Challenge returns the 3-D Secure challenge, if one is required.
func (r Result) Challenge() (*domain.ThreeDSecureChallenge, bool) {
	if r.Err != nil || r.Outcome.Challenge == nil {
		return nil, false
	}
	return r.Outcome.Challenge, true
}

// Cancelled reports a user cancellation. It is not a failure and should not
// be presented as one.
func (r Result) Cancelled() bool {
	return errors.Is(r.Err, domain.ErrCancelled)
}

// APIError returns the gateway error carried by r, if any.
func (r Result) APIError() (*domain.APIError, bool) {
	var apiErr *domain.APIError
	if errors.As(r.Err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Transaction is a single-use pending gateway call. The With methods return
// the same Transaction so calls can be chained; they may only be used before
// Execute.
type Transaction struct {
	client *Client
	state  atomic.Int32

	mu      sync.Mutex
	req     Request
	signal  map[string]any
	pending *domain.ValidationError

	// set for 3-D Secure fulfilment
	method string
	paRes  string
	md     string

	challenge *domain.ThreeDSecureChallenge
}

func newTransaction(c *Client, req Request) *Transaction {
	return &Transaction{client: c, req: req, method: http.MethodPost, pending: &domain.ValidationError{}}
}

// Type returns the transaction type.
func (t *Transaction) Type() domain.TransactionType { return t.req.Type }

// State returns the current lifecycle state.
func (t *Transaction) State() State { return State(t.state.Load()) }

// PaymentReference returns the reference that will be sent.
func (t *Transaction) PaymentReference() string {
	if t.req.Type.Progression() {
		return t.req.ProgressionRef
	}
	return t.req.Reference.PaymentReference()
}

func (t *Transaction) mutate(fn func()) *Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.State() != StateBuilding {
		t.pending.Merge("transaction", domain.ErrAlreadyExecuted)
		return t
	}
	fn()
	return t
}

// WithCard attaches raw card entry.
func (t *Transaction) WithCard(card domain.CardInput) *Transaction {
	return t.mutate(func() { t.req.Card = &card })
}

// WithCardDetails attaches the masked card returned by an earlier response,
// used together with WithPaymentToken.
func (t *Transaction) WithCardDetails(details domain.CardDetails) *Transaction {
	return t.mutate(func() { t.req.CardDetails = &details })
}

// WithPaymentToken turns the transaction into a token payment. cv2 may be
// empty.
func (t *Transaction) WithPaymentToken(token domain.PaymentToken, cv2 string) *Transaction {
	return t.mutate(func() {
		if t.req.Type == domain.TypeRegisterCard {
			t.pending.Add(fieldCardToken, "a card cannot be registered from a payment token")
			return
		}
		t.req.Token = &token
		t.req.TokenCV2 = cv2
	})
}

// WithApplePayToken attaches an opaque wallet payment token.
func (t *Transaction) WithApplePayToken(token []byte) *Transaction {
	return t.mutate(func() { t.req.ApplePayToken = append([]byte(nil), token...) })
}

// WithCardAddress attaches the billing address used for AVS.
func (t *Transaction) WithCardAddress(addr domain.CardAddress) *Transaction {
	return t.mutate(func() { t.req.Address = &addr })
}

// WithPaymentReference overrides the generated reference of a collection,
// refund or void. Reusing the reference of a failed attempt lets the
// reference guard reject an accidental second charge.
func (t *Transaction) WithPaymentReference(ref string) *Transaction {
	return t.mutate(func() {
		switch {
		case !t.req.Type.Progression():
			t.pending.Add(fieldPaymentReference, "set the payment reference through the transaction Reference")
		case ref == "":
			t.pending.Add(fieldPaymentReference, "must not be empty")
		case t.client.maxRefLen > 0 && len([]rune(ref)) > t.client.maxRefLen:
			t.pending.Add(fieldPaymentReference, fmt.Sprintf("must be at most %d characters", t.client.maxRefLen))
		default:
			t.req.ProgressionRef = ref
		}
	})
}

// WithDeviceSignal attaches a fraud signal, replacing whatever the client's
// provider would have supplied.
func (t *Transaction) WithDeviceSignal(signal map[string]any) *Transaction {
	return t.mutate(func() { t.signal = signal })
}

// Execute validates and sends the transaction. Validation, configuration,
// duplicate-reference and reuse errors are returned directly and nothing is
// sent. Otherwise onComplete is called exactly once on the client's
// completion goroutine; it must not block.
func (t *Transaction) Execute(ctx context.Context, onComplete func(Result)) error {
	if !t.state.CompareAndSwap(int32(StateBuilding), int32(StateValidated)) {
		return domain.ErrAlreadyExecuted
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.pending.OrNil(); err != nil {
		t.reopen()
		return err
	}

	body, err := t.body()
	if err != nil {
		t.reopen()
		return err
	}

	claimed := false
	if t.method == http.MethodPost {
		if err := t.client.claimReference(ctx, t.PaymentReference()); err != nil {
			t.reopen()
			return err
		}
		claimed = true
	}

	// Cancel may win while the claim is in flight.
	if !t.state.CompareAndSwap(int32(StateValidated), int32(StateSent)) {
		if claimed {
			t.client.releaseReference(ctx, t.PaymentReference())
		}
		return domain.ErrCancelled
	}
	signal := t.signal
	t.client.inflight.Add(1)
	go func() {
		defer t.client.inflight.Done()
		res := t.send(ctx, body, signal)
		t.client.record(ctx, t, res)
		t.client.deliver(onComplete, res)
	}()
	return nil
}

// reopen returns a transaction that failed before sending to Building so
// the caller can correct it.
func (t *Transaction) reopen() {
	t.state.CompareAndSwap(int32(StateValidated), int32(StateBuilding))
}

func (t *Transaction) body() (map[string]any, error) {
	if t.method == http.MethodPut {
		return t.client.builder.ThreeDSecureBody(t.req.ReceiptID, t.paRes, t.md)
	}
	return t.client.builder.Build(t.req)
}

func (t *Transaction) path() string {
	if t.method == http.MethodPut {
		return domain.ReceiptPath(t.req.ReceiptID)
	}
	return t.req.Type.Path()
}

func (t *Transaction) send(ctx context.Context, body, signal map[string]any) Result {
	if t.method == http.MethodPost {
		if signal == nil {
			signal = t.client.deviceSignal(ctx)
		}
		if len(signal) > 0 {
			body[fieldClientDetails] = signal
		}
	}

	var (
		out domain.Outcome
		err error
	)
	if t.method == http.MethodPut {
		out, err = t.client.gateway.Put(ctx, t.path(), body)
	} else {
		out, err = t.client.gateway.Post(ctx, t.path(), body)
	}
	if err != nil && errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}

	res := Result{Type: t.req.Type, Outcome: out, Err: err}
	switch {
	case res.Cancelled():
		t.state.Store(int32(StateCancelled))
	case err != nil:
		t.state.Store(int32(StateFailed))
	case out.ChallengeRequired():
		t.challenge = out.Challenge
		t.state.Store(int32(StateChallengeRequired))
	default:
		t.state.Store(int32(StateSucceeded))
	}
	return res
}

// Cancel abandons a transaction that has not been sent, for example when the
// user dismisses the wallet sheet. onComplete receives a cancelled Result.
// It reports false when the transaction was already executed.
func (t *Transaction) Cancel(onComplete func(Result)) bool {
	for _, from := range []State{StateBuilding, StateValidated} {
		if t.state.CompareAndSwap(int32(from), int32(StateCancelled)) {
			res := Result{Type: t.req.Type, Err: domain.ErrCancelled}
			t.client.deliver(onComplete, res)
			return true
		}
	}
	return false
}

// CompleteThreeDSecure returns a fresh transaction that fulfils the pending
// challenge with the issuer's paRes. The receipt id, references and amount
// carry over.
func (t *Transaction) CompleteThreeDSecure(paRes string) (*Transaction, error) {
	if t.State() != StateChallengeRequired || t.challenge == nil {
		return nil, domain.ErrNoChallenge
	}
	return t.client.resume(t.challenge.ReceiptID, paRes, t.challenge.MD, t.req)
}
