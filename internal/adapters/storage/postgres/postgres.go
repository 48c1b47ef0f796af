package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"judokit/internal/core/domain"
	"judokit/internal/core/ports"
)

var _ ports.TransactionRepository = (*Repository)(nil)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is an implementation of the TransactionRepository port for PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	db   execer
}

// NewRepository creates a new repository instance.
// Accepts a DSN (Data Source Name) to connect to.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Let's check that the connection to the database actually works.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Repository{pool: pool, db: pool}, nil
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Save journals one terminal transaction outcome. Entries are keyed by id,
// so a replayed entry is ignored.
func (r *Repository) Save(ctx context.Context, e domain.JournalEntry) error {
	const sql = `
		INSERT INTO transaction_journal
		    (id, type, status, receipt_id, judo_id, consumer_reference, payment_reference,
		     amount, currency, error_code, message, created_at)
		VALUES
		    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	var errorCode *int
	if e.ErrorCode != nil {
		code := int(*e.ErrorCode)
		errorCode = &code
	}

	_, err := r.db.Exec(ctx, sql,
		e.ID,
		e.Type.String(),
		string(e.Status),
		nullable(e.ReceiptID),
		nullable(e.JudoID),
		nullable(e.ConsumerReference),
		e.PaymentReference,
		e.Amount,
		nullable(e.Currency),
		errorCode,
		e.Message,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
