package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
	"github.com/iho/fundsbook/internal/adapter/http/middleware"
	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	GetLedger(ctx context.Context, input usecase.GetLedgerInput) (*usecase.Ledger, error)
	WatchLedger(ctx context.Context, input usecase.GetLedgerInput, fn func(*usecase.Ledger) error) error
}

// LedgerHandler serves computed ledgers, once or as a live stream.
type LedgerHandler struct {
	ledgerUC LedgerService
	stream   streamer
}

// NewLedgerHandler creates a new LedgerHandler. streams may be nil and a
// non-positive heartbeat falls back to 15s.
func NewLedgerHandler(ledgerUC LedgerService, streams StreamRecorder, heartbeat time.Duration) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, stream: newStreamer(streams, heartbeat)}
}

func ledgerInput(r *http.Request) (usecase.GetLedgerInput, bool) {
	bookID := chi.URLParam(r, "id")
	return usecase.GetLedgerInput{
		UserID: middleware.UserIDFromContext(r.Context()),
		BookID: bookID,
		Filter: domain.EntryType(strings.TrimSpace(r.URL.Query().Get("type"))),
	}, bookID != ""
}

// Get returns the ledger of a book. The optional type query parameter
// narrows the listed entries; the summary always covers the whole book.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	input, ok := ledgerInput(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing book ID", "")
		return
	}

	ledger, err := h.ledgerUC.GetLedger(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to get ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerFromUseCase(ledger))
}

// Stream sends the ledger as Server-Sent Events: one "ledger" event now and
// another after every change to the book.
func (h *LedgerHandler) Stream(w http.ResponseWriter, r *http.Request) {
	input, ok := ledgerInput(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing book ID", "")
		return
	}

	h.stream.serve(w, r, "ledger", func(ctx context.Context, send func(any) error) error {
		return h.ledgerUC.WatchLedger(ctx, input, func(ledger *usecase.Ledger) error {
			return send(dto.LedgerFromUseCase(ledger))
		})
	})
}
