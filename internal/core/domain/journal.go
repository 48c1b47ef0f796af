package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the terminal state recorded for an executed transaction.
type TransactionStatus string

const (
	StatusSucceeded         TransactionStatus = "SUCCEEDED"
	StatusFailed            TransactionStatus = "FAILED"
	StatusChallengeRequired TransactionStatus = "CHALLENGE_REQUIRED"
	StatusCancelled         TransactionStatus = "CANCELLED"
)

// JournalEntry is what the facade hands to storage and messaging sinks
// after a transaction reaches a terminal state.
type JournalEntry struct {
	ID                uuid.UUID
	Type              TransactionType
	Status            TransactionStatus
	ReceiptID         string
	JudoID            string
	ConsumerReference string
	PaymentReference  string
	Amount            decimal.Decimal
	Currency          string
	ErrorCode         *APIErrorCode
	Message           string
	CreatedAt         time.Time
}
