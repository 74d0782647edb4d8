package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fundsbook/internal/domain"
)

// BookshelfUseCase handles bookshelf business logic.
type BookshelfUseCase struct {
	txManager  TransactionManager
	shelfRepo  BookshelfRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	notifier   ChangeNotifier
	logger     zerolog.Logger
}

// NewBookshelfUseCase creates a new BookshelfUseCase. notifier may be nil.
func NewBookshelfUseCase(
	txManager TransactionManager,
	shelfRepo BookshelfRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	notifier ChangeNotifier,
	logger zerolog.Logger,
) *BookshelfUseCase {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &BookshelfUseCase{
		txManager:  txManager,
		shelfRepo:  shelfRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		notifier:   notifier,
		logger:     logger,
	}
}

// CreateBookshelfInput represents input for creating a bookshelf.
type CreateBookshelfInput struct {
	UserID string
	Name   string
}

// CreateBookshelf creates a bookshelf owned by the caller.
func (uc *BookshelfUseCase) CreateBookshelf(ctx context.Context, input CreateBookshelfInput) (*domain.Bookshelf, error) {
	if input.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	shelf := &domain.Bookshelf{
		ID:          uc.idGen.Generate(),
		Name:        strings.TrimSpace(input.Name),
		MemberIDs:   []string{input.UserID},
		CreatedBy:   input.UserID,
		OwnerID:     input.UserID,
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

	if err := uc.shelfRepo.Create(ctx, tx, shelf); err != nil {
		return nil, err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeBookshelf, shelf.ID, domain.EventTypeBookshelfCreated,
		domain.BookshelfCreatedEvent{BookshelfID: shelf.ID, Name: shelf.Name, OwnerID: shelf.OwnerID}, now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.publish(ctx, shelf.ID, BookshelvesTopic(input.UserID))

	return shelf, nil
}

// ListBookshelves lists the shelves the user is a member of.
func (uc *BookshelfUseCase) ListBookshelves(ctx context.Context, userID string) ([]*domain.Bookshelf, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.shelfRepo.ListByMember(ctx, userID)
}

// GetBookshelf retrieves a bookshelf the user is a member of.
func (uc *BookshelfUseCase) GetBookshelf(ctx context.Context, userID, shelfID string) (*domain.Bookshelf, error) {
	return bookAccess{shelfRepo: uc.shelfRepo}.authorizeShelf(ctx, userID, shelfID)
}

// DeleteBookshelf deletes a bookshelf with its books and entries. Only the
// owner may delete it.
func (uc *BookshelfUseCase) DeleteBookshelf(ctx context.Context, userID, shelfID string) error {
	shelf, err := bookAccess{shelfRepo: uc.shelfRepo}.authorizeShelf(ctx, userID, shelfID)
	if err != nil {
		return err
	}

	if shelf.OwnerID != userID {
		return domain.ErrNotOwner
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.shelfRepo.Delete(ctx, tx, shelf.ID); err != nil {
		return err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeBookshelf, shelf.ID, domain.EventTypeBookshelfDeleted,
		domain.BookshelfDeletedEvent{BookshelfID: shelf.ID, DeletedBy: userID}, time.Now().UTC())
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	// Book list watchers re-read and find the shelf gone.
	topics := []string{BooksTopic(shelf.ID)}
	for _, memberID := range shelf.MemberIDs {
		topics = append(topics, BookshelvesTopic(memberID))
	}
	uc.publish(ctx, shelf.ID, topics...)

	return nil
}

// WatchBookshelves calls fn with the user's bookshelves and again after
// every change to that list.
func (uc *BookshelfUseCase) WatchBookshelves(ctx context.Context, userID string, fn func([]*domain.Bookshelf) error) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	return watch(ctx, uc.notifier, BookshelvesTopic(userID), func() error {
		shelves, err := uc.shelfRepo.ListByMember(ctx, userID)
		if err != nil {
			return err
		}
		return fn(shelves)
	})
}

func (uc *BookshelfUseCase) publish(ctx context.Context, shelfID string, topics ...string) {
	if err := notifyAll(ctx, uc.notifier, topics...); err != nil {
		uc.logger.Warn().Err(err).Str("bookshelf_id", shelfID).Msg("failed to publish bookshelf change")
	}
}

// EnsureDefaultBookshelf gives a brand new user a first shelf. It returns
// nil when the user is not new or already has a shelf.
func (uc *BookshelfUseCase) EnsureDefaultBookshelf(ctx context.Context, user *domain.User) (*domain.Bookshelf, error) {
	if !user.IsNew() {
		return nil, nil
	}

	shelves, err := uc.shelfRepo.ListByMember(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if len(shelves) > 0 {
		return nil, nil
	}

	shelf, err := uc.CreateBookshelf(ctx, CreateBookshelfInput{
		UserID: user.ID,
		Name:   domain.DefaultBookshelfName(user.DisplayName),
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("user_id", user.ID).
		Str("bookshelf_id", shelf.ID).
		Msg("created default bookshelf")

	return shelf, nil
}
