package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
	"github.com/iho/fundsbook/internal/adapter/http/middleware"
	"github.com/iho/fundsbook/internal/domain"
)

// BookshelfWatcher streams the bookshelves of a user.
type BookshelfWatcher interface {
	WatchBookshelves(ctx context.Context, userID string, fn func([]*domain.Bookshelf) error) error
}

// BookWatcher streams the books of a bookshelf.
type BookWatcher interface {
	WatchBooks(ctx context.Context, userID, bookshelfID string, fn func([]*domain.Book) error) error
}

// ListStreamHandler serves the bookshelf and book lists as live streams.
type ListStreamHandler struct {
	shelves BookshelfWatcher
	books   BookWatcher
	stream  streamer
}

// NewListStreamHandler creates a new ListStreamHandler. streams may be nil.
func NewListStreamHandler(shelves BookshelfWatcher, books BookWatcher, streams StreamRecorder, heartbeat time.Duration) *ListStreamHandler {
	return &ListStreamHandler{shelves: shelves, books: books, stream: newStreamer(streams, heartbeat)}
}

// Bookshelves sends a "bookshelves" event now and after every change to the
// caller's shelves.
func (h *ListStreamHandler) Bookshelves(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	h.stream.serve(w, r, "bookshelves", func(ctx context.Context, send func(any) error) error {
		return h.shelves.WatchBookshelves(ctx, userID, func(shelves []*domain.Bookshelf) error {
			return send(dto.BookshelvesFromDomain(shelves))
		})
	})
}

// Books sends a "books" event now and after every change to the books of
// the bookshelf.
func (h *ListStreamHandler) Books(w http.ResponseWriter, r *http.Request) {
	shelfID := chi.URLParam(r, "id")
	if shelfID == "" {
		writeError(w, http.StatusBadRequest, "missing bookshelf ID", "")
		return
	}
	userID := middleware.UserIDFromContext(r.Context())

	h.stream.serve(w, r, "books", func(ctx context.Context, send func(any) error) error {
		return h.books.WatchBooks(ctx, userID, shelfID, func(books []*domain.Book) error {
			return send(dto.BooksFromDomain(books))
		})
	})
}
