package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

type listWatcherStub struct {
	shelvesFn func(ctx context.Context, userID string, fn func([]*domain.Bookshelf) error) error
	booksFn   func(ctx context.Context, userID, bookshelfID string, fn func([]*domain.Book) error) error
}

func (s *listWatcherStub) WatchBookshelves(ctx context.Context, userID string, fn func([]*domain.Bookshelf) error) error {
	return s.shelvesFn(ctx, userID, fn)
}

func (s *listWatcherStub) WatchBooks(ctx context.Context, userID, bookshelfID string, fn func([]*domain.Book) error) error {
	return s.booksFn(ctx, userID, bookshelfID, fn)
}

// frames splits an event stream body into (event, data) pairs.
func frames(t *testing.T, body string) [][2]string {
	t.Helper()

	var out [][2]string
	for _, frame := range strings.Split(strings.TrimSpace(body), "\n\n") {
		lines := strings.SplitN(frame, "\n", 2)
		if len(lines) != 2 || !strings.HasPrefix(lines[0], "event: ") || !strings.HasPrefix(lines[1], "data: ") {
			t.Fatalf("malformed frame %q", frame)
		}
		out = append(out, [2]string{strings.TrimPrefix(lines[0], "event: "), strings.TrimPrefix(lines[1], "data: ")})
	}
	return out
}

func TestListStreamHandler_Bookshelves(t *testing.T) {
	var watchedUser string
	streams := &countingStreams{}
	stub := &listWatcherStub{
		shelvesFn: func(ctx context.Context, userID string, fn func([]*domain.Bookshelf) error) error {
			watchedUser = userID
			if err := fn([]*domain.Bookshelf{{ID: "s1", Name: "Home"}}); err != nil {
				return err
			}
			if err := fn([]*domain.Bookshelf{{ID: "s1", Name: "Home"}, {ID: "s2", Name: "Work"}}); err != nil {
				return err
			}
			return context.Canceled
		},
	}
	handler := NewListStreamHandler(stub, stub, streams, 0)

	rec := httptest.NewRecorder()
	handler.Bookshelves(rec, asUser(httptest.NewRequest(http.MethodGet, "/bookshelves/stream", nil), "u1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if watchedUser != "u1" {
		t.Fatalf("expected watch for u1, got %q", watchedUser)
	}

	got := frames(t, rec.Body.String())
	if len(got) != 2 || got[1][0] != "bookshelves" {
		t.Fatalf("unexpected frames %q", got)
	}

	var resp dto.ListBookshelvesResponse
	if err := json.Unmarshal([]byte(got[1][1]), &resp); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if resp.Total != 2 || resp.Bookshelves[1].ID != "s2" {
		t.Fatalf("unexpected snapshot %+v", resp)
	}
	if streams.opened != 1 || streams.closed != 1 || streams.sent != 2 {
		t.Fatalf("unexpected stream metrics %+v", streams)
	}
}

func TestListStreamHandler_Books(t *testing.T) {
	var watchedShelf string
	stub := &listWatcherStub{
		booksFn: func(ctx context.Context, userID, bookshelfID string, fn func([]*domain.Book) error) error {
			watchedShelf = bookshelfID
			if err := fn([]*domain.Book{{ID: "b1", BookshelfID: bookshelfID}}); err != nil {
				return err
			}
			return context.Canceled
		},
	}
	handler := NewListStreamHandler(stub, stub, nil, 0)

	rec := httptest.NewRecorder()
	req := setChiURLParam(asUser(httptest.NewRequest(http.MethodGet, "/bookshelves/s1/books/stream", nil), "u1"), "id", "s1")
	handler.Books(rec, req)

	if watchedShelf != "s1" {
		t.Fatalf("expected watch for s1, got %q", watchedShelf)
	}

	got := frames(t, rec.Body.String())
	if len(got) != 1 || got[0][0] != "books" {
		t.Fatalf("unexpected frames %q", got)
	}

	var resp dto.ListBooksResponse
	if err := json.Unmarshal([]byte(got[0][1]), &resp); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if resp.Total != 1 || resp.Books[0].BookshelfID != "s1" {
		t.Fatalf("unexpected snapshot %+v", resp)
	}
}

func TestListStreamHandler_Books_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "stranger", err: domain.ErrNotMember, wantCode: http.StatusForbidden},
		{name: "missing shelf", err: domain.ErrBookshelfNotFound, wantCode: http.StatusNotFound},
		{name: "shelf deleted mid-stream", err: domain.ErrBookshelfNotFound, wantCode: http.StatusOK, wantBody: "event: error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &listWatcherStub{
				booksFn: func(ctx context.Context, userID, bookshelfID string, fn func([]*domain.Book) error) error {
					if tt.wantCode == http.StatusOK {
						if err := fn(nil); err != nil {
							return err
						}
					}
					return tt.err
				},
			}
			handler := NewListStreamHandler(stub, stub, nil, 0)

			rec := httptest.NewRecorder()
			handler.Books(rec, setChiURLParam(asUser(httptest.NewRequest(http.MethodGet, "/bookshelves/s1/books/stream", nil), "u2"), "id", "s1"))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("expected %q in %q", tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestListStreamHandler_Bookshelves_ClosedSubscription(t *testing.T) {
	stub := &listWatcherStub{
		shelvesFn: func(ctx context.Context, userID string, fn func([]*domain.Bookshelf) error) error {
			if err := fn(nil); err != nil {
				return err
			}
			return usecase.ErrSubscriptionClosed
		},
	}
	handler := NewListStreamHandler(stub, stub, nil, 0)

	rec := httptest.NewRecorder()
	handler.Bookshelves(rec, asUser(httptest.NewRequest(http.MethodGet, "/bookshelves/stream", nil), "u1"))

	got := frames(t, rec.Body.String())
	if len(got) != 2 || got[0][0] != "bookshelves" || got[1][0] != "error" {
		t.Fatalf("unexpected frames %q", got)
	}
	if got[0][1] != `{"bookshelves":[],"total":0}` {
		t.Fatalf("expected an empty list, got %s", got[0][1])
	}
}
