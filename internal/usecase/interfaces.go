package usecase

import (
	"context"
	"time"

	"github.com/iho/fundsbook/internal/domain"
)

// BookshelfRepository defines data access for bookshelves.
type BookshelfRepository interface {
	Create(ctx context.Context, tx Transaction, shelf *domain.Bookshelf) error
	GetByID(ctx context.Context, id string) (*domain.Bookshelf, error)
	ListByMember(ctx context.Context, userID string) ([]*domain.Bookshelf, error)
	Delete(ctx context.Context, tx Transaction, id string) error
}

// BookRepository defines data access for books.
type BookRepository interface {
	Create(ctx context.Context, tx Transaction, book *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	ListByBookshelf(ctx context.Context, bookshelfID string) ([]*domain.Book, error)
	Touch(ctx context.Context, tx Transaction, id string, at time.Time) error
}

// EntryRepository defines data access for transaction entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// ListByBook returns every entry of a book ordered by creation time ascending.
	ListByBook(ctx context.Context, bookID string) ([]*domain.Entry, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateLastSignIn(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	Generate(user *domain.User) (string, error)
}

// DefaultShelfProvisioner gives new users their first bookshelf.
type DefaultShelfProvisioner interface {
	EnsureDefaultBookshelf(ctx context.Context, user *domain.User) (*domain.Bookshelf, error)
}

// SessionStore tracks revoked bearer tokens.
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	// RevokeUser revokes every token of userID issued at or before at.
	RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID, userID string, issuedAt time.Time) (bool, error)
}

// ResetTokenStore keeps one-time password reset tokens.
type ResetTokenStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	// Lookup returns the user the token was issued for, leaving it valid.
	Lookup(ctx context.Context, token string) (string, error)
	// Consume returns the user the token was issued for and invalidates it.
	Consume(ctx context.Context, token string) (string, error)
}

// ChangeNotifier signals that the data behind a topic changed. Topics are
// built with LedgerTopic, BooksTopic and BookshelvesTopic.
type ChangeNotifier interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription delivers change signals for one topic. Signals carry no
// data: receivers re-read the full snapshot.
type Subscription interface {
	Changes() <-chan struct{}
	Close() error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key after a failed request.
	Release(ctx context.Context, key string) error
}

// MetricsRecorder receives business metrics.
type MetricsRecorder interface {
	EntryAdded(entryType domain.EntryType)
	LedgerComputed(entries int, duration time.Duration)
	AuthAttempt(operation string, success bool)
}

type nopMetrics struct{}

func (nopMetrics) EntryAdded(domain.EntryType) {}

func (nopMetrics) LedgerComputed(int, time.Duration) {}

func (nopMetrics) AuthAttempt(string, bool) {}
