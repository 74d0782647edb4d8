package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/fundsbook/internal/domain"
)

// bookAccess resolves books and checks that a user may use them.
type bookAccess struct {
	bookRepo  BookRepository
	shelfRepo BookshelfRepository
}

// authorizeBook loads a book the user belongs to, directly or through its
// bookshelf.
func (a bookAccess) authorizeBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	book, err := a.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if book.HasMember(userID) {
		return book, nil
	}

	shelf, err := a.shelfRepo.GetByID(ctx, book.BookshelfID)
	if err != nil {
		if errors.Is(err, domain.ErrBookshelfNotFound) {
			return nil, domain.ErrNotMember
		}
		return nil, err
	}

	if !shelf.HasMember(userID) {
		return nil, domain.ErrNotMember
	}

	return book, nil
}

// authorizeShelf loads a bookshelf the user belongs to.
func (a bookAccess) authorizeShelf(ctx context.Context, userID, shelfID string) (*domain.Bookshelf, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	shelf, err := a.shelfRepo.GetByID(ctx, shelfID)
	if err != nil {
		return nil, err
	}

	if !shelf.HasMember(userID) {
		return nil, domain.ErrNotMember
	}

	return shelf, nil
}

func newOutboxEvent(idGen IDGenerator, aggregateType, aggregateID, eventType string, payload any, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       domain.EventPayload(payload),
		CreatedAt:     now,
	}
}
