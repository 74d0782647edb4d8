package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

// UnixMillis converts t to epoch milliseconds, or 0 for the zero time.
func UnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	CreatedAt    int64  `json:"created_at"`
	LastSignInAt int64  `json:"last_sign_in_at"`
}

// UserFromDomain converts domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		CreatedAt:    UnixMillis(u.CreatedAt),
		LastSignInAt: UnixMillis(u.LastSignInAt),
	}
}

// AuthResponse is returned by sign up and sign in.
type AuthResponse struct {
	Token     string             `json:"token"`
	User      *UserResponse      `json:"user"`
	Bookshelf *BookshelfResponse `json:"bookshelf,omitempty"`
}

// AuthFromResult converts an auth result to response.
func AuthFromResult(res *usecase.AuthResult) *AuthResponse {
	resp := &AuthResponse{
		Token: res.Token,
		User:  UserFromDomain(res.User),
	}
	if res.Bookshelf != nil {
		resp.Bookshelf = BookshelfFromDomain(res.Bookshelf)
	}
	return resp
}

// BookshelfResponse represents a bookshelf in API responses.
type BookshelfResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MemberIDs   []string `json:"member_ids"`
	CreatedBy   string   `json:"created_by"`
	OwnerID     string   `json:"owner_id"`
	CreatedAt   int64    `json:"created_at"`
	LastUpdated int64    `json:"last_updated"`
}

// BookshelfFromDomain converts domain bookshelf to response.
func BookshelfFromDomain(s *domain.Bookshelf) *BookshelfResponse {
	return &BookshelfResponse{
		ID:          s.ID,
		Name:        s.Name,
		MemberIDs:   nonNil(s.MemberIDs),
		CreatedBy:   s.CreatedBy,
		OwnerID:     s.OwnerID,
		CreatedAt:   UnixMillis(s.CreatedAt),
		LastUpdated: UnixMillis(s.LastUpdated),
	}
}

// ListBookshelvesResponse represents a list of bookshelves.
type ListBookshelvesResponse struct {
	Bookshelves []*BookshelfResponse `json:"bookshelves"`
	Total       int64                `json:"total"`
}

// BookshelvesFromDomain converts domain bookshelves to a list response.
func BookshelvesFromDomain(shelves []*domain.Bookshelf) ListBookshelvesResponse {
	result := make([]*BookshelfResponse, len(shelves))
	for i, s := range shelves {
		result[i] = BookshelfFromDomain(s)
	}
	return ListBookshelvesResponse{Bookshelves: result, Total: int64(len(result))}
}

// BookResponse represents a book in API responses.
type BookResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	BookshelfID string   `json:"bookshelf_id"`
	MemberIDs   []string `json:"member_ids"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   int64    `json:"created_at"`
	LastUpdated int64    `json:"last_updated"`
}

// BookFromDomain converts domain book to response.
func BookFromDomain(b *domain.Book) *BookResponse {
	return &BookResponse{
		ID:          b.ID,
		Name:        b.Name,
		BookshelfID: b.BookshelfID,
		MemberIDs:   nonNil(b.MemberIDs),
		CreatedBy:   b.CreatedBy,
		CreatedAt:   UnixMillis(b.CreatedAt),
		LastUpdated: UnixMillis(b.LastUpdated),
	}
}

// ListBooksResponse represents a list of books.
type ListBooksResponse struct {
	Books []*BookResponse `json:"books"`
	Total int64           `json:"total"`
}

// BooksFromDomain converts domain books to a list response.
func BooksFromDomain(books []*domain.Book) ListBooksResponse {
	result := make([]*BookResponse, len(books))
	for i, b := range books {
		result[i] = BookFromDomain(b)
	}
	return ListBooksResponse{Books: result, Total: int64(len(result))}
}

// EntryResponse represents a ledger entry in API responses. Running is only
// set when the entry comes from a computed ledger.
type EntryResponse struct {
	ID          string           `json:"id"`
	BookID      string           `json:"book_id"`
	Amount      decimal.Decimal  `json:"amount"`
	Type        string           `json:"type"`
	PaymentMode string           `json:"payment_mode"`
	Category    string           `json:"category"`
	Party       string           `json:"party"`
	Remark      string           `json:"remark"`
	CreatedAt   int64            `json:"created_at"`
	CreatedBy   string           `json:"created_by"`
	Running     *decimal.Decimal `json:"running,omitempty"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID,
		BookID:      e.BookID,
		Amount:      e.Amount,
		Type:        string(e.Type),
		PaymentMode: e.PaymentMode,
		Category:    e.Category,
		Party:       e.Party,
		Remark:      e.Remark,
		CreatedAt:   UnixMillis(e.CreatedAt),
		CreatedBy:   e.CreatedBy,
	}
}

// BalancedEntryFromDomain converts an entry with its running balance.
func BalancedEntryFromDomain(e domain.BalancedEntry) *EntryResponse {
	resp := EntryFromDomain(&e.Entry)
	running := e.Running
	resp.Running = &running
	return resp
}

// ListEntriesResponse represents the raw entries of a book.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// EntriesFromDomain converts domain entries to a list response.
func EntriesFromDomain(entries []*domain.Entry) ListEntriesResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return ListEntriesResponse{Entries: result, Total: int64(len(result))}
}

// SummaryResponse carries a book's totals.
type SummaryResponse struct {
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Net      decimal.Decimal `json:"net"`
}

// LedgerResponse represents a computed ledger. Summary always covers the
// whole book; Entries honours the type filter.
type LedgerResponse struct {
	BookID  string           `json:"book_id"`
	Type    string           `json:"type,omitempty"`
	Summary SummaryResponse  `json:"summary"`
	Entries []*EntryResponse `json:"entries"`
	Count   int              `json:"count"`
}

// LedgerFromUseCase converts a computed ledger to response.
func LedgerFromUseCase(l *usecase.Ledger) *LedgerResponse {
	entries := make([]*EntryResponse, len(l.Entries))
	for i, e := range l.Entries {
		entries[i] = BalancedEntryFromDomain(e)
	}
	return &LedgerResponse{
		BookID: l.BookID,
		Type:   string(l.Filter),
		Summary: SummaryResponse{
			TotalIn:  l.Totals.TotalIn,
			TotalOut: l.Totals.TotalOut,
			Net:      l.Totals.Net,
		},
		Entries: entries,
		Count:   l.Count,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
