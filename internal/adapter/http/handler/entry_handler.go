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

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	AddEntry(ctx context.Context, input usecase.AddEntryInput) (*domain.Entry, error)
	ListEntries(ctx context.Context, userID, bookID string) ([]*domain.Entry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// Add appends an entry to a book.
func (h *EntryHandler) Add(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "missing book ID", "")
		return
	}

	var req dto.AddEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.entryUC.AddEntry(r.Context(), req.ToUseCaseInput(middleware.UserIDFromContext(r.Context()), bookID))
	if err != nil {
		writeDomainError(w, r, "failed to add entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// List lists the raw entries of a book, oldest first.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "missing book ID", "")
		return
	}

	entries, err := h.entryUC.ListEntries(r.Context(), middleware.UserIDFromContext(r.Context()), bookID)
	if err != nil {
		writeDomainError(w, r, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
