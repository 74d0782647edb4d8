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

const bookColumns = `id, bookshelf_id, name, created_by, member_ids, created_at, last_updated`

// BookRepository implements usecase.BookRepository.
type BookRepository struct {
	db querier
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return newBookRepository(pool)
}

func newBookRepository(db querier) *BookRepository {
	return &BookRepository{db: db}
}

// Create inserts a book within a transaction.
func (r *BookRepository) Create(ctx context.Context, tx usecase.Transaction, book *domain.Book) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = q.Exec(ctx, query,
		book.ID,
		book.BookshelfID,
		book.Name,
		book.CreatedBy,
		book.MemberIDs,
		timeToPgTimestamptz(book.CreatedAt),
		timeToPgTimestamptz(book.LastUpdated),
	)

	return err
}

// GetByID retrieves a book by ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookNotFound
	}

	return book, err
}

// ListByBookshelf lists the books of a bookshelf, most recently updated
// first.
func (r *BookRepository) ListByBookshelf(ctx context.Context, bookshelfID string) ([]*domain.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE bookshelf_id = $1
		ORDER BY last_updated DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, bookshelfID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]*domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, rows.Err()
}

// Touch sets a book's last update time.
func (r *BookRepository) Touch(ctx context.Context, tx usecase.Transaction, id string, at time.Time) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `UPDATE books SET last_updated = $2 WHERE id = $1`, id, timeToPgTimestamptz(at))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

func scanBook(row rowScanner) (*domain.Book, error) {
	var (
		book                   domain.Book
		createdAt, lastUpdated time.Time
	)

	err := row.Scan(
		&book.ID,
		&book.BookshelfID,
		&book.Name,
		&book.CreatedBy,
		&book.MemberIDs,
		&createdAt,
		&lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	book.CreatedAt = createdAt.UTC()
	book.LastUpdated = lastUpdated.UTC()

	return &book, nil
}
