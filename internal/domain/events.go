package domain

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeEntryCreated           = "entry.created"
	EventTypeBookCreated            = "book.created"
	EventTypeBookshelfCreated       = "bookshelf.created"
	EventTypeBookshelfDeleted       = "bookshelf.deleted"
	EventTypePasswordResetRequested = "user.password_reset_requested"
)

// Aggregate types
const (
	AggregateTypeEntry     = "entry"
	AggregateTypeBook      = "book"
	AggregateTypeBookshelf = "bookshelf"
	AggregateTypeUser      = "user"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryCreatedEvent payload
type EntryCreatedEvent struct {
	EntryID   string `json:"entry_id"`
	BookID    string `json:"book_id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

// BookCreatedEvent payload
type BookCreatedEvent struct {
	BookID      string `json:"book_id"`
	BookshelfID string `json:"bookshelf_id"`
	Name        string `json:"name"`
	CreatedBy   string `json:"created_by"`
}

// BookshelfCreatedEvent payload
type BookshelfCreatedEvent struct {
	BookshelfID string `json:"bookshelf_id"`
	Name        string `json:"name"`
	OwnerID     string `json:"owner_id"`
}

// BookshelfDeletedEvent payload
type BookshelfDeletedEvent struct {
	BookshelfID string `json:"bookshelf_id"`
	DeletedBy   string `json:"deleted_by"`
}

// PasswordResetRequestedEvent payload. Consumed by the mailer.
type PasswordResetRequestedEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// EventPayload converts an event payload struct to the outbox map form.
func EventPayload(v any) map[string]any {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": "failed to marshal payload"}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return map[string]any{"error": "failed to unmarshal payload"}
	}

	return result
}
