package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

type bookshelfServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateBookshelfInput) (*domain.Bookshelf, error)
	listFn   func(ctx context.Context, userID string) ([]*domain.Bookshelf, error)
	getFn    func(ctx context.Context, userID, shelfID string) (*domain.Bookshelf, error)
	deleteFn func(ctx context.Context, userID, shelfID string) error
}

func (s *bookshelfServiceStub) CreateBookshelf(ctx context.Context, input usecase.CreateBookshelfInput) (*domain.Bookshelf, error) {
	return s.createFn(ctx, input)
}

func (s *bookshelfServiceStub) ListBookshelves(ctx context.Context, userID string) ([]*domain.Bookshelf, error) {
	return s.listFn(ctx, userID)
}

func (s *bookshelfServiceStub) GetBookshelf(ctx context.Context, userID, shelfID string) (*domain.Bookshelf, error) {
	return s.getFn(ctx, userID, shelfID)
}

func (s *bookshelfServiceStub) DeleteBookshelf(ctx context.Context, userID, shelfID string) error {
	return s.deleteFn(ctx, userID, shelfID)
}

func TestBookshelfHandler_Create(t *testing.T) {
	var captured usecase.CreateBookshelfInput
	handler := NewBookshelfHandler(&bookshelfServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateBookshelfInput) (*domain.Bookshelf, error) {
			captured = input
			return &domain.Bookshelf{ID: "s1", Name: input.Name, OwnerID: input.UserID, MemberIDs: []string{input.UserID}}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateBookshelfRequest{Name: "Home"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/bookshelves", bytes.NewReader(body)), "u1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "u1" || captured.Name != "Home" {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestBookshelfHandler_Create_InvalidName(t *testing.T) {
	handler := NewBookshelfHandler(&bookshelfServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateBookshelfInput) (*domain.Bookshelf, error) {
			return nil, domain.ErrInvalidName
		},
	})

	req := asUser(httptest.NewRequest(http.MethodPost, "/bookshelves", bytes.NewBufferString(`{"name":""}`)), "u1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBookshelfHandler_List(t *testing.T) {
	handler := NewBookshelfHandler(&bookshelfServiceStub{
		listFn: func(ctx context.Context, userID string) ([]*domain.Bookshelf, error) {
			return []*domain.Bookshelf{{ID: "s2"}, {ID: "s1"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/bookshelves", nil), "u1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ListBookshelvesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 || resp.Bookshelves[0].ID != "s2" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestBookshelfHandler_Get_NotMember(t *testing.T) {
	handler := NewBookshelfHandler(&bookshelfServiceStub{
		getFn: func(ctx context.Context, userID, shelfID string) (*domain.Bookshelf, error) {
			if shelfID != "s1" {
				t.Fatalf("expected id s1, got %s", shelfID)
			}
			return nil, domain.ErrNotMember
		},
	})

	req := setChiURLParam(asUser(httptest.NewRequest(http.MethodGet, "/bookshelves/s1", nil), "u2"), "id", "s1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestBookshelfHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"owner", nil, http.StatusNoContent},
		{"not owner", domain.ErrNotOwner, http.StatusForbidden},
		{"missing", domain.ErrBookshelfNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBookshelfHandler(&bookshelfServiceStub{
				deleteFn: func(ctx context.Context, userID, shelfID string) error {
					return tt.err
				},
			})

			req := setChiURLParam(asUser(httptest.NewRequest(http.MethodDelete, "/bookshelves/s1", nil), "u1"), "id", "s1")
			rec := httptest.NewRecorder()

			handler.Delete(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

type bookServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateBookInput) (*domain.Book, error)
	listFn   func(ctx context.Context, userID, bookshelfID string) ([]*domain.Book, error)
	getFn    func(ctx context.Context, userID, bookID string) (*domain.Book, error)
}

func (s *bookServiceStub) CreateBook(ctx context.Context, input usecase.CreateBookInput) (*domain.Book, error) {
	return s.createFn(ctx, input)
}

func (s *bookServiceStub) ListBooks(ctx context.Context, userID, bookshelfID string) ([]*domain.Book, error) {
	return s.listFn(ctx, userID, bookshelfID)
}

func (s *bookServiceStub) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	return s.getFn(ctx, userID, bookID)
}

func TestBookHandler_Create(t *testing.T) {
	var captured usecase.CreateBookInput
	handler := NewBookHandler(&bookServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateBookInput) (*domain.Book, error) {
			captured = input
			return &domain.Book{ID: "b1", Name: input.Name, BookshelfID: input.BookshelfID}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/bookshelves/s1/books", bytes.NewBufferString(`{"name":"Trip"}`))
	req = setChiURLParam(asUser(req, "u1"), "id", "s1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured != (usecase.CreateBookInput{UserID: "u1", BookshelfID: "s1", Name: "Trip"}) {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestBookHandler_Create_UnknownShelf(t *testing.T) {
	handler := NewBookHandler(&bookServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateBookInput) (*domain.Book, error) {
			return nil, domain.ErrBookshelfNotFound
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/bookshelves/nope/books", bytes.NewBufferString(`{"name":"Trip"}`))
	req = setChiURLParam(asUser(req, "u1"), "id", "nope")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBookHandler_ListAndGet(t *testing.T) {
	handler := NewBookHandler(&bookServiceStub{
		listFn: func(ctx context.Context, userID, bookshelfID string) ([]*domain.Book, error) {
			return []*domain.Book{{ID: "b1", BookshelfID: bookshelfID}}, nil
		},
		getFn: func(ctx context.Context, userID, bookID string) (*domain.Book, error) {
			return &domain.Book{ID: bookID}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.ListByBookshelf(rec, setChiURLParam(asUser(httptest.NewRequest(http.MethodGet, "/bookshelves/s1/books", nil), "u1"), "id", "s1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from list, got %d", rec.Code)
	}

	var list dto.ListBooksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if list.Total != 1 || list.Books[0].BookshelfID != "s1" {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, setChiURLParam(asUser(httptest.NewRequest(http.MethodGet, "/books/b9", nil), "u1"), "id", "b9"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from get, got %d", rec.Code)
	}
}
