package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

const bookshelfColumns = `id, name, created_by, owner_id, member_ids, created_at, last_updated`

// BookshelfRepository implements usecase.BookshelfRepository.
type BookshelfRepository struct {
	db querier
}

// NewBookshelfRepository creates a new BookshelfRepository.
func NewBookshelfRepository(pool *pgxpool.Pool) *BookshelfRepository {
	return newBookshelfRepository(pool)
}

func newBookshelfRepository(db querier) *BookshelfRepository {
	return &BookshelfRepository{db: db}
}

// Create inserts a bookshelf within a transaction.
func (r *BookshelfRepository) Create(ctx context.Context, tx usecase.Transaction, shelf *domain.Bookshelf) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookshelves (` + bookshelfColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = q.Exec(ctx, query,
		shelf.ID,
		shelf.Name,
		shelf.CreatedBy,
		shelf.OwnerID,
		shelf.MemberIDs,
		timeToPgTimestamptz(shelf.CreatedAt),
		timeToPgTimestamptz(shelf.LastUpdated),
	)

	return err
}

// GetByID retrieves a bookshelf by ID.
func (r *BookshelfRepository) GetByID(ctx context.Context, id string) (*domain.Bookshelf, error) {
	query := `SELECT ` + bookshelfColumns + ` FROM bookshelves WHERE id = $1`

	shelf, err := scanBookshelf(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookshelfNotFound
	}

	return shelf, err
}

// ListByMember lists the bookshelves a user is a member of, newest first.
func (r *BookshelfRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Bookshelf, error) {
	query := `
		SELECT ` + bookshelfColumns + `
		FROM bookshelves
		WHERE member_ids @> ARRAY[$1]::text[]
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shelves := make([]*domain.Bookshelf, 0)
	for rows.Next() {
		shelf, err := scanBookshelf(rows)
		if err != nil {
			return nil, err
		}
		shelves = append(shelves, shelf)
	}

	return shelves, rows.Err()
}

// Delete removes a bookshelf. Its books and their entries are removed by
// the foreign key cascade.
func (r *BookshelfRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `DELETE FROM bookshelves WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBookshelfNotFound
	}

	return nil
}

func scanBookshelf(row rowScanner) (*domain.Bookshelf, error) {
	var (
		shelf                  domain.Bookshelf
		createdAt, lastUpdated time.Time
	)

	err := row.Scan(
		&shelf.ID,
		&shelf.Name,
		&shelf.CreatedBy,
		&shelf.OwnerID,
		&shelf.MemberIDs,
		&createdAt,
		&lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	shelf.CreatedAt = createdAt.UTC()
	shelf.LastUpdated = lastUpdated.UTC()

	return &shelf, nil
}
