package usecase

import (
	"context"
	"errors"
)

// ErrSubscriptionClosed is returned when a live subscription ends without
// the caller cancelling it.
var ErrSubscriptionClosed = errors.New("subscription closed")

// LedgerTopic carries changes to the entries of a book.
func LedgerTopic(bookID string) string { return "ledger:" + bookID }

// BooksTopic carries changes to the book list of a bookshelf: books added
// and books reordered by a new entry.
func BooksTopic(bookshelfID string) string { return "books:" + bookshelfID }

// BookshelvesTopic carries changes to the bookshelves a user belongs to.
func BookshelvesTopic(userID string) string { return "bookshelves:" + userID }

// watch runs emit once and again after every change signal on topic. It
// subscribes before the first emit so no change falls in between.
func watch(ctx context.Context, notifier ChangeNotifier, topic string, emit func() error) error {
	sub, err := notifier.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	defer sub.Close()

	if err := emit(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-sub.Changes():
			if !ok {
				return ErrSubscriptionClosed
			}
			if err := emit(); err != nil {
				return err
			}
		}
	}
}

// notifyAll publishes every topic. Failures are returned joined and never
// stop the remaining topics.
func notifyAll(ctx context.Context, notifier ChangeNotifier, topics ...string) error {
	var errs []error
	for _, topic := range topics {
		if err := notifier.Publish(ctx, topic); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string) error { return nil }

func (nopNotifier) Subscribe(context.Context, string) (Subscription, error) {
	return nil, ErrSubscriptionClosed
}
