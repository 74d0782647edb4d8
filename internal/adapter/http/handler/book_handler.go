package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
	"github.com/iho/fundsbook/internal/adapter/http/middleware"
	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

// BookService defines the behavior needed by BookHandler.
type BookService interface {
	CreateBook(ctx context.Context, input usecase.CreateBookInput) (*domain.Book, error)
	ListBooks(ctx context.Context, userID, bookshelfID string) ([]*domain.Book, error)
	GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error)
}

// BookHandler handles book HTTP requests.
type BookHandler struct {
	bookUC BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(bookUC BookService) *BookHandler {
	return &BookHandler{bookUC: bookUC}
}

// Create creates a book in the bookshelf named by the {id} parameter.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	shelfID := chi.URLParam(r, "id")
	if shelfID == "" {
		writeError(w, http.StatusBadRequest, "missing bookshelf ID", "")
		return
	}

	var req dto.CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.bookUC.CreateBook(r.Context(), req.ToUseCaseInput(middleware.UserIDFromContext(r.Context()), shelfID))
	if err != nil {
		writeDomainError(w, r, "failed to create book", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BookFromDomain(book))
}

// ListByBookshelf lists the books of a bookshelf.
func (h *BookHandler) ListByBookshelf(w http.ResponseWriter, r *http.Request) {
	shelfID := chi.URLParam(r, "id")
	if shelfID == "" {
		writeError(w, http.StatusBadRequest, "missing bookshelf ID", "")
		return
	}

	books, err := h.bookUC.ListBooks(r.Context(), middleware.UserIDFromContext(r.Context()), shelfID)
	if err != nil {
		writeDomainError(w, r, "failed to list books", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BooksFromDomain(books))
}

// Get retrieves a book by ID.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing book ID", "")
		return
	}

	book, err := h.bookUC.GetBook(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, "failed to get book", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookFromDomain(book))
}
