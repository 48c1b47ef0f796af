package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType selects the gateway operation.
type TransactionType int

const (
	TypePayment TransactionType = iota + 1
	TypePreAuth
	TypeRegisterCard
	TypeCollection
	TypeRefund
	TypeVoid
)

// ReceiptsPath is the collection resource used for lookups, listings and
// 3-D Secure fulfilment.
const ReceiptsPath = "transactions"

var transactionTypeNames = map[TransactionType]string{
	TypePayment:      "payment",
	TypePreAuth:      "preauth",
	TypeRegisterCard: "registercard",
	TypeCollection:   "collection",
	TypeRefund:       "refund",
	TypeVoid:         "void",
}

var transactionTypePaths = map[TransactionType]string{
	TypePayment:      "transactions/payments",
	TypePreAuth:      "transactions/preauths",
	TypeRegisterCard: "transactions/registercard",
	TypeCollection:   "transactions/collections",
	TypeRefund:       "transactions/refunds",
	TypeVoid:         "transactions/voids",
}

// Path returns the REST path the transaction is posted to.
func (t TransactionType) Path() string {
	return transactionTypePaths[t]
}

func (t TransactionType) String() string {
	if n, ok := transactionTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("TransactionType(%d)", int(t))
}

func (t TransactionType) Valid() bool {
	_, ok := transactionTypePaths[t]
	return ok
}

// Progression reports whether t acts on a prior receipt rather than a card.
func (t TransactionType) Progression() bool {
	return t == TypeCollection || t == TypeRefund || t == TypeVoid
}

// ParseTransactionType accepts the names returned by String.
func ParseTransactionType(s string) (TransactionType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range transactionTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown transaction type %q", s)
}

// ReceiptPath returns the resource path of a single receipt.
func ReceiptPath(id ReceiptID) string {
	return ReceiptsPath + "/" + id.String()
}

// Sort orders receipt listings by creation time.
type Sort string

const (
	SortTimeDescending Sort = "time-descending"
	SortTimeAscending  Sort = "time-ascending"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 500
)

// Pagination windows a receipt listing.
type Pagination struct {
	PageSize int
	Offset   int
	Sort     Sort
}

// DefaultPagination is the first page of ten, newest first.
func DefaultPagination() Pagination {
	return Pagination{PageSize: DefaultPageSize, Offset: 0, Sort: SortTimeDescending}
}

// Validate checks page bounds and the sort order.
func (p Pagination) Validate() error {
	ve := &ValidationError{}
	if p.PageSize <= 0 || p.PageSize > MaxPageSize {
		ve.Add("pageSize", fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}
	if p.Offset < 0 {
		ve.Add("offset", "must not be negative")
	}
	if p.Sort != SortTimeAscending && p.Sort != SortTimeDescending {
		ve.Add("sort", fmt.Sprintf("unknown sort %q", p.Sort))
	}
	return ve.OrNil()
}

// TransactionRecord is one decoded gateway receipt.
type TransactionRecord struct {
	ReceiptID         string
	OriginalReceiptID string
	Type              string
	Result            string
	Message           string
	JudoID            string
	Amount            decimal.Decimal
	Currency          string
	CreatedAt         time.Time
	ConsumerReference string
	PaymentReference  string
	ConsumerToken     string
	CardDetails       *CardDetails
	Raw               map[string]any
}

// Successful reports whether the gateway marked the record as a success.
func (r TransactionRecord) Successful() bool {
	return strings.EqualFold(r.Result, "Success")
}

// PaymentToken returns the stored-card token pair when the record carries one.
func (r TransactionRecord) PaymentToken() (PaymentToken, bool) {
	if r.CardDetails == nil || r.CardDetails.CardToken == "" || r.ConsumerToken == "" {
		return PaymentToken{}, false
	}
	return PaymentToken{ConsumerToken: r.ConsumerToken, CardToken: r.CardDetails.CardToken}, true
}

// ThreeDSecureChallenge asks the caller to send the cardholder through the
// issuer's ACS page and then fulfil the transaction.
type ThreeDSecureChallenge struct {
	ReceiptID string
	AcsURL    string
	PaReq     string
	MD        string
	Raw       map[string]any
}

// Outcome is a classified, non-error gateway response.
type Outcome struct {
	Records    []TransactionRecord
	Pagination *Pagination
	Challenge  *ThreeDSecureChallenge
}

func (o Outcome) ChallengeRequired() bool { return o.Challenge != nil }

// First returns the first record, if any.
func (o Outcome) First() (TransactionRecord, bool) {
	if len(o.Records) == 0 {
		return TransactionRecord{}, false
	}
	return o.Records[0], true
}
