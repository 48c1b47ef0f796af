package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"judokit/internal/core/domain"
)

type fakeExec struct {
	sql  string
	args []any
	err  error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestRepository_Save(t *testing.T) {
	db := &fakeExec{}
	repo := &Repository{db: db}
	code := domain.CodePaymentDeclined
	entry := domain.JournalEntry{
		ID:               uuid.New(),
		Type:             domain.TypeRefund,
		Status:           domain.StatusFailed,
		ReceiptID:        "4976000000003436",
		PaymentReference: "ref-1",
		Amount:           decimal.RequireFromString("10.50"),
		Currency:         "GBP",
		ErrorCode:        &code,
		Message:          "Card declined",
		CreatedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, repo.Save(context.Background(), entry))
	assert.Contains(t, db.sql, "INSERT INTO transaction_journal")
	require.Len(t, db.args, 12)
	assert.Equal(t, entry.ID, db.args[0])
	assert.Equal(t, "refund", db.args[1])
	assert.Equal(t, "FAILED", db.args[2])
	assert.Nil(t, db.args[4], "empty judo id is stored as NULL")
	assert.Equal(t, 11, *db.args[9].(*int))
}

func TestRepository_SaveWrapsError(t *testing.T) {
	repo := &Repository{db: &fakeExec{err: errors.New("conn refused")}}
	err := repo.Save(context.Background(), domain.JournalEntry{ID: uuid.New()})
	assert.ErrorContains(t, err, "failed to save journal entry")
}
