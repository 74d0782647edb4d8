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

// BookshelfService defines the behavior needed by BookshelfHandler.
type BookshelfService interface {
	CreateBookshelf(ctx context.Context, input usecase.CreateBookshelfInput) (*domain.Bookshelf, error)
	ListBookshelves(ctx context.Context, userID string) ([]*domain.Bookshelf, error)
	GetBookshelf(ctx context.Context, userID, shelfID string) (*domain.Bookshelf, error)
	DeleteBookshelf(ctx context.Context, userID, shelfID string) error
}

// BookshelfHandler handles bookshelf HTTP requests.
type BookshelfHandler struct {
	shelfUC BookshelfService
}

// NewBookshelfHandler creates a new BookshelfHandler.
func NewBookshelfHandler(shelfUC BookshelfService) *BookshelfHandler {
	return &BookshelfHandler{shelfUC: shelfUC}
}

// Create creates a bookshelf owned by the caller.
func (h *BookshelfHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookshelfRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shelf, err := h.shelfUC.CreateBookshelf(r.Context(), req.ToUseCaseInput(middleware.UserIDFromContext(r.Context())))
	if err != nil {
		writeDomainError(w, r, "failed to create bookshelf", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BookshelfFromDomain(shelf))
}

// List lists the bookshelves the caller belongs to.
func (h *BookshelfHandler) List(w http.ResponseWriter, r *http.Request) {
	shelves, err := h.shelfUC.ListBookshelves(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, "failed to list bookshelves", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookshelvesFromDomain(shelves))
}

// Get retrieves a bookshelf by ID.
func (h *BookshelfHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bookshelf ID", "")
		return
	}

	shelf, err := h.shelfUC.GetBookshelf(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, "failed to get bookshelf", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BookshelfFromDomain(shelf))
}

// Delete removes a bookshelf with its books and entries.
func (h *BookshelfHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bookshelf ID", "")
		return
	}

	if err := h.shelfUC.DeleteBookshelf(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		writeDomainError(w, r, "failed to delete bookshelf", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
