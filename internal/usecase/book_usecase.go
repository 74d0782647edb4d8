package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fundsbook/internal/domain"
)

// BookUseCase handles book business logic.
type BookUseCase struct {
	txManager  TransactionManager
	access     bookAccess
	bookRepo   BookRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	notifier   ChangeNotifier
	logger     zerolog.Logger
}

// NewBookUseCase creates a new BookUseCase. notifier may be nil.
func NewBookUseCase(
	txManager TransactionManager,
	shelfRepo BookshelfRepository,
	bookRepo BookRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	notifier ChangeNotifier,
	logger zerolog.Logger,
) *BookUseCase {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &BookUseCase{
		txManager:  txManager,
		access:     bookAccess{bookRepo: bookRepo, shelfRepo: shelfRepo},
		bookRepo:   bookRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		notifier:   notifier,
		logger:     logger,
	}
}

// CreateBookInput represents input for creating a book.
type CreateBookInput struct {
	UserID      string
	BookshelfID string
	Name        string
}

// CreateBook creates a book inside a bookshelf the caller belongs to.
func (uc *BookUseCase) CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	shelf, err := uc.access.authorizeShelf(ctx, input.UserID, input.BookshelfID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	book := &domain.Book{
		ID:          uc.idGen.Generate(),
		Name:        strings.TrimSpace(input.Name),
		BookshelfID: shelf.ID,
		MemberIDs:   []string{input.UserID},
		CreatedBy:   input.UserID,
		CreatedAt:   now,
		LastUpdated: now,
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.bookRepo.Create(ctx, tx, book); err != nil {
		return nil, err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeBook, book.ID, domain.EventTypeBookCreated,
		domain.BookCreatedEvent{BookID: book.ID, BookshelfID: shelf.ID, Name: book.Name, CreatedBy: input.UserID}, now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if err := uc.notifier.Publish(ctx, BooksTopic(shelf.ID)); err != nil {
		uc.logger.Warn().Err(err).
			Str("bookshelf_id", shelf.ID).
			Str("book_id", book.ID).
			Msg("failed to publish book change")
	}

	return book, nil
}

// ListBooks lists the books of a bookshelf the caller belongs to.
func (uc *BookUseCase) ListBooks(ctx context.Context, userID, bookshelfID string) ([]*domain.Book, error) {
	shelf, err := uc.access.authorizeShelf(ctx, userID, bookshelfID)
	if err != nil {
		return nil, err
	}

	return uc.bookRepo.ListByBookshelf(ctx, shelf.ID)
}

// WatchBooks calls fn with the books of a bookshelf and again after every
// change to that list. Membership is checked on every read, so the watch
// ends once the shelf is gone.
func (uc *BookUseCase) WatchBooks(ctx context.Context, userID, bookshelfID string, fn func([]*domain.Book) error) error {
	shelf, err := uc.access.authorizeShelf(ctx, userID, bookshelfID)
	if err != nil {
		return err
	}

	return watch(ctx, uc.notifier, BooksTopic(shelf.ID), func() error {
		books, err := uc.ListBooks(ctx, userID, shelf.ID)
		if err != nil {
			return err
		}
		return fn(books)
	})
}

// GetBook retrieves a book the caller has access to.
func (uc *BookUseCase) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	return uc.access.authorizeBook(ctx, userID, bookID)
}
