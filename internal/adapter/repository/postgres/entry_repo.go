package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

const entryColumns = `id, book_id, amount, type, payment_mode, category, party, remark, created_by, created_at`

// EntryRepository implements usecase.EntryRepository over the transactions
// table.
type EntryRepository struct {
	db querier
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db querier) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create inserts an entry within a transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = q.Exec(ctx, query,
		entry.ID,
		entry.BookID,
		decimalToNumeric(entry.Amount),
		string(entry.Type),
		entry.PaymentMode,
		entry.Category,
		entry.Party,
		entry.Remark,
		entry.CreatedBy,
		timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// ListByBook returns all entries of a book in creation order. Entries
// created in the same instant are ordered by ID.
func (r *EntryRepository) ListByBook(ctx context.Context, bookID string) ([]*domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM transactions
		WHERE book_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		var (
			entry     domain.Entry
			entryType string
			createdAt time.Time
		)

		err := rows.Scan(
			&entry.ID,
			&entry.BookID,
			&entry.Amount,
			&entryType,
			&entry.PaymentMode,
			&entry.Category,
			&entry.Party,
			&entry.Remark,
			&entry.CreatedBy,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Type = domain.EntryType(entryType)
		entry.CreatedAt = createdAt.UTC()
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
