package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
	"github.com/iho/fundsbook/internal/usecase/mocks"
)

func newBookshelfUseCase(ctrl *gomock.Controller) (*usecase.BookshelfUseCase, *mocks.MockTransactionManager, *mocks.MockBookshelfRepository, *mocks.MockOutboxRepository) {
	uc, txMgr, shelfRepo, outbox, _ := newNotifyingBookshelfUseCase(ctrl)
	return uc, txMgr, shelfRepo, outbox
}

func newNotifyingBookshelfUseCase(ctrl *gomock.Controller) (*usecase.BookshelfUseCase, *mocks.MockTransactionManager, *mocks.MockBookshelfRepository, *mocks.MockOutboxRepository, *mocks.MockChangeNotifier) {
	txMgr := mocks.NewMockTransactionManager(ctrl)
	shelfRepo := mocks.NewMockBookshelfRepository(ctrl)
	outbox := mocks.NewMockOutboxRepository(ctrl)
	notifier := mocks.NewMockChangeNotifier(ctrl)
	notifier.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	uc := usecase.NewBookshelfUseCase(txMgr, shelfRepo, outbox, sequentialIDs(ctrl), notifier, zerolog.Nop())
	return uc, txMgr, shelfRepo, outbox, notifier
}

// watchedSubscription returns a subscription whose Changes channel the test
// feeds directly.
func watchedSubscription(ctrl *gomock.Controller) (*mocks.MockSubscription, chan struct{}) {
	changes := make(chan struct{}, 1)
	sub := mocks.NewMockSubscription(ctrl)
	sub.EXPECT().Changes().Return((<-chan struct{})(changes)).AnyTimes()
	sub.EXPECT().Close().Return(nil)
	return sub, changes
}

func TestBookshelfUseCase_CreateBookshelf(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc, txMgr, shelfRepo, outbox := newBookshelfUseCase(ctrl)

	tx := expectCommittedTx(ctrl, txMgr)
	shelfRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
	outbox.EXPECT().Create(gomock.Any(), tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, ev *domain.OutboxEvent) error {
			assert.Equal(t, domain.EventTypeBookshelfCreated, ev.EventType)
			return nil
		})

	shelf, err := uc.CreateBookshelf(context.Background(), usecase.CreateBookshelfInput{UserID: "u1", Name: " Family "})
	require.NoError(t, err)

	assert.Equal(t, "Family", shelf.Name)
	assert.Equal(t, "u1", shelf.OwnerID)
	assert.Equal(t, []string{"u1"}, shelf.MemberIDs)
}

func TestBookshelfUseCase_CreateBookshelf_PublishesShelfList(t *testing.T) {
	ctrl := gomock.NewController(t)
	txMgr := mocks.NewMockTransactionManager(ctrl)
	shelfRepo := mocks.NewMockBookshelfRepository(ctrl)
	outbox := mocks.NewMockOutboxRepository(ctrl)
	notifier := mocks.NewMockChangeNotifier(ctrl)
	uc := usecase.NewBookshelfUseCase(txMgr, shelfRepo, outbox, sequentialIDs(ctrl), notifier, zerolog.Nop())

	expectCommittedTx(ctrl, txMgr)
	shelfRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	outbox.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	notifier.EXPECT().Publish(gomock.Any(), "bookshelves:u1").Return(errors.New("redis down"))

	_, err := uc.CreateBookshelf(context.Background(), usecase.CreateBookshelfInput{UserID: "u1", Name: "Family"})
	assert.NoError(t, err)
}

func TestBookshelfUseCase_CreateBookshelf_InvalidName(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc, _, _, _ := newBookshelfUseCase(ctrl)

	_, err := uc.CreateBookshelf(context.Background(), usecase.CreateBookshelfInput{UserID: "u1", Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestBookshelfUseCase_DeleteBookshelf(t *testing.T) {
	shared := &domain.Bookshelf{ID: "shelf-1", OwnerID: "owner", MemberIDs: []string{"owner", "u2"}}

	t.Run("owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, txMgr, shelfRepo, outbox := newBookshelfUseCase(ctrl)

		shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(shared, nil)
		tx := expectCommittedTx(ctrl, txMgr)
		shelfRepo.EXPECT().Delete(gomock.Any(), tx, "shelf-1").Return(nil)
		outbox.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)

		assert.NoError(t, uc.DeleteBookshelf(context.Background(), "owner", "shelf-1"))
	})

	t.Run("member who is not the owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, _, shelfRepo, _ := newBookshelfUseCase(ctrl)

		shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(shared, nil)

		assert.ErrorIs(t, uc.DeleteBookshelf(context.Background(), "u2", "shelf-1"), domain.ErrNotOwner)
	})

	t.Run("stranger", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, _, shelfRepo, _ := newBookshelfUseCase(ctrl)

		shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(shared, nil)

		assert.ErrorIs(t, uc.DeleteBookshelf(context.Background(), "u3", "shelf-1"), domain.ErrNotMember)
	})
}

func TestBookshelfUseCase_DeleteBookshelf_PublishesToEveryMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	txMgr := mocks.NewMockTransactionManager(ctrl)
	shelfRepo := mocks.NewMockBookshelfRepository(ctrl)
	outbox := mocks.NewMockOutboxRepository(ctrl)
	notifier := mocks.NewMockChangeNotifier(ctrl)
	uc := usecase.NewBookshelfUseCase(txMgr, shelfRepo, outbox, sequentialIDs(ctrl), notifier, zerolog.Nop())

	shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(
		&domain.Bookshelf{ID: "shelf-1", OwnerID: "owner", MemberIDs: []string{"owner", "u2"}}, nil)
	expectCommittedTx(ctrl, txMgr)
	shelfRepo.EXPECT().Delete(gomock.Any(), gomock.Any(), "shelf-1").Return(nil)
	outbox.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	var topics []string
	notifier.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, topic string) error {
			topics = append(topics, topic)
			return nil
		}).Times(3)

	require.NoError(t, uc.DeleteBookshelf(context.Background(), "owner", "shelf-1"))
	assert.ElementsMatch(t, []string{"books:shelf-1", "bookshelves:owner", "bookshelves:u2"}, topics)
}

func TestBookshelfUseCase_DeleteBookshelf_NothingPublishedOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	txMgr := mocks.NewMockTransactionManager(ctrl)
	shelfRepo := mocks.NewMockBookshelfRepository(ctrl)
	outbox := mocks.NewMockOutboxRepository(ctrl)
	notifier := mocks.NewMockChangeNotifier(ctrl)
	uc := usecase.NewBookshelfUseCase(txMgr, shelfRepo, outbox, sequentialIDs(ctrl), notifier, zerolog.Nop())

	shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(
		&domain.Bookshelf{ID: "shelf-1", OwnerID: "owner", MemberIDs: []string{"owner"}}, nil)
	tx := mocks.NewMockTransaction(ctrl)
	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	shelfRepo.EXPECT().Delete(gomock.Any(), tx, "shelf-1").Return(errors.New("db down"))

	assert.Error(t, uc.DeleteBookshelf(context.Background(), "owner", "shelf-1"))
}

func TestBookshelfUseCase_WatchBookshelves(t *testing.T) {
	errStop := errors.New("stop")

	t.Run("re-reads list on change", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, _, shelfRepo, _, notifier := newNotifyingBookshelfUseCase(ctrl)
		sub, changes := watchedSubscription(ctrl)

		notifier.EXPECT().Subscribe(gomock.Any(), "bookshelves:u1").Return(sub, nil)
		gomock.InOrder(
			shelfRepo.EXPECT().ListByMember(gomock.Any(), "u1").Return([]*domain.Bookshelf{{ID: "shelf-1"}}, nil),
			shelfRepo.EXPECT().ListByMember(gomock.Any(), "u1").Return(
				[]*domain.Bookshelf{{ID: "shelf-1"}, {ID: "shelf-2"}}, nil),
		)

		var sizes []int
		err := uc.WatchBookshelves(context.Background(), "u1", func(shelves []*domain.Bookshelf) error {
			sizes = append(sizes, len(shelves))
			if len(sizes) == 1 {
				changes <- struct{}{}
				return nil
			}
			return errStop
		})

		assert.ErrorIs(t, err, errStop)
		assert.Equal(t, []int{1, 2}, sizes)
	})

	t.Run("closed subscription", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, _, shelfRepo, _, notifier := newNotifyingBookshelfUseCase(ctrl)
		sub, changes := watchedSubscription(ctrl)
		close(changes)

		notifier.EXPECT().Subscribe(gomock.Any(), "bookshelves:u1").Return(sub, nil)
		shelfRepo.EXPECT().ListByMember(gomock.Any(), "u1").Return(nil, nil)

		err := uc.WatchBookshelves(context.Background(), "u1", func([]*domain.Bookshelf) error { return nil })
		assert.ErrorIs(t, err, usecase.ErrSubscriptionClosed)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, _, _, _ := newBookshelfUseCase(ctrl)

		err := uc.WatchBookshelves(context.Background(), "", func([]*domain.Bookshelf) error { return nil })
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestBookshelfUseCase_EnsureDefaultBookshelf(t *testing.T) {
	now := time.Now()

	t.Run("new user without shelves", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, txMgr, shelfRepo, outbox := newBookshelfUseCase(ctrl)

		shelfRepo.EXPECT().ListByMember(gomock.Any(), "u1").Return(nil, nil)
		expectCommittedTx(ctrl, txMgr)
		shelfRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		outbox.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		shelf, err := uc.EnsureDefaultBookshelf(context.Background(), &domain.User{
			ID:           "u1",
			DisplayName:  "Ada",
			CreatedAt:    now,
			LastSignInAt: now.Add(time.Second),
		})
		require.NoError(t, err)
		require.NotNil(t, shelf)
		assert.Equal(t, "Ada's Shelf", shelf.Name)
	})

	t.Run("returning user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, _, _, _ := newBookshelfUseCase(ctrl)

		shelf, err := uc.EnsureDefaultBookshelf(context.Background(), &domain.User{
			ID:           "u1",
			CreatedAt:    now.Add(-time.Hour),
			LastSignInAt: now,
		})
		require.NoError(t, err)
		assert.Nil(t, shelf)
	})

	t.Run("new user who already has a shelf", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc, _, shelfRepo, _ := newBookshelfUseCase(ctrl)

		shelfRepo.EXPECT().ListByMember(gomock.Any(), "u1").Return([]*domain.Bookshelf{{ID: "shelf-1"}}, nil)

		shelf, err := uc.EnsureDefaultBookshelf(context.Background(), &domain.User{
			ID:           "u1",
			CreatedAt:    now,
			LastSignInAt: now,
		})
		require.NoError(t, err)
		assert.Nil(t, shelf)
	})
}

func TestBookUseCase_CreateBook(t *testing.T) {
	t.Run("in a shelf the user belongs to", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		txMgr := mocks.NewMockTransactionManager(ctrl)
		shelfRepo := mocks.NewMockBookshelfRepository(ctrl)
		bookRepo := mocks.NewMockBookRepository(ctrl)
		outbox := mocks.NewMockOutboxRepository(ctrl)
		notifier := mocks.NewMockChangeNotifier(ctrl)
		uc := usecase.NewBookUseCase(txMgr, shelfRepo, bookRepo, outbox, sequentialIDs(ctrl), notifier, zerolog.Nop())

		shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(&domain.Bookshelf{ID: "shelf-1", MemberIDs: []string{"u1"}}, nil)
		tx := expectCommittedTx(ctrl, txMgr)
		bookRepo.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
		outbox.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
		notifier.EXPECT().Publish(gomock.Any(), "books:shelf-1").Return(nil)

		book, err := uc.CreateBook(context.Background(), usecase.CreateBookInput{
			UserID:      "u1",
			BookshelfID: "shelf-1",
			Name:        "Groceries",
		})
		require.NoError(t, err)
		assert.Equal(t, "shelf-1", book.BookshelfID)
		assert.Equal(t, []string{"u1"}, book.MemberIDs)
	})

	t.Run("missing shelf", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		shelfRepo := mocks.NewMockBookshelfRepository(ctrl)
		uc := usecase.NewBookUseCase(nil, shelfRepo, mocks.NewMockBookRepository(ctrl), nil, sequentialIDs(ctrl), nil, zerolog.Nop())

		shelfRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrBookshelfNotFound)

		_, err := uc.CreateBook(context.Background(), usecase.CreateBookInput{
			UserID:      "u1",
			BookshelfID: "missing",
			Name:        "Groceries",
		})
		assert.ErrorIs(t, err, domain.ErrBookshelfNotFound)
	})
}

func TestBookUseCase_WatchBooks(t *testing.T) {
	errStop := errors.New("stop")
	shelf := &domain.Bookshelf{ID: "shelf-1", MemberIDs: []string{"u1"}}

	setup := func(t *testing.T) (*gomock.Controller, *usecase.BookUseCase, *mocks.MockBookshelfRepository, *mocks.MockBookRepository, *mocks.MockChangeNotifier) {
		ctrl := gomock.NewController(t)
		shelfRepo := mocks.NewMockBookshelfRepository(ctrl)
		bookRepo := mocks.NewMockBookRepository(ctrl)
		notifier := mocks.NewMockChangeNotifier(ctrl)
		uc := usecase.NewBookUseCase(nil, shelfRepo, bookRepo, nil, sequentialIDs(ctrl), notifier, zerolog.Nop())
		return ctrl, uc, shelfRepo, bookRepo, notifier
	}

	t.Run("re-reads list on change", func(t *testing.T) {
		ctrl, uc, shelfRepo, bookRepo, notifier := setup(t)
		sub, changes := watchedSubscription(ctrl)

		shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(shelf, nil).Times(3)
		notifier.EXPECT().Subscribe(gomock.Any(), "books:shelf-1").Return(sub, nil)
		gomock.InOrder(
			bookRepo.EXPECT().ListByBookshelf(gomock.Any(), "shelf-1").Return(nil, nil),
			bookRepo.EXPECT().ListByBookshelf(gomock.Any(), "shelf-1").Return([]*domain.Book{{ID: "book-1"}}, nil),
		)

		var sizes []int
		err := uc.WatchBooks(context.Background(), "u1", "shelf-1", func(books []*domain.Book) error {
			sizes = append(sizes, len(books))
			if len(sizes) == 1 {
				changes <- struct{}{}
				return nil
			}
			return errStop
		})

		assert.ErrorIs(t, err, errStop)
		assert.Equal(t, []int{0, 1}, sizes)
	})

	t.Run("ends once the shelf is deleted", func(t *testing.T) {
		ctrl, uc, shelfRepo, bookRepo, notifier := setup(t)
		sub, changes := watchedSubscription(ctrl)

		gomock.InOrder(
			shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(shelf, nil).Times(2),
			shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(nil, domain.ErrBookshelfNotFound),
		)
		notifier.EXPECT().Subscribe(gomock.Any(), "books:shelf-1").Return(sub, nil)
		bookRepo.EXPECT().ListByBookshelf(gomock.Any(), "shelf-1").Return(nil, nil)

		err := uc.WatchBooks(context.Background(), "u1", "shelf-1", func([]*domain.Book) error {
			changes <- struct{}{}
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrBookshelfNotFound)
	})

	t.Run("stranger never subscribes", func(t *testing.T) {
		_, uc, shelfRepo, _, _ := setup(t)
		shelfRepo.EXPECT().GetByID(gomock.Any(), "shelf-1").Return(shelf, nil)

		err := uc.WatchBooks(context.Background(), "u2", "shelf-1", func([]*domain.Book) error { return nil })
		assert.ErrorIs(t, err, domain.ErrNotMember)
	})
}
