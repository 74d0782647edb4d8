package domain

import (
	"slices"
	"time"
)

// Bookshelf is a named collection of books shared by its members.
type Bookshelf struct {
	CreatedAt   time.Time
	LastUpdated time.Time
	ID          string
	Name        string
	CreatedBy   string
	OwnerID     string
	MemberIDs   []string
}

// HasMember reports whether userID belongs to the shelf.
func (s *Bookshelf) HasMember(userID string) bool {
	return slices.Contains(s.MemberIDs, userID)
}

// Book is a named transaction ledger inside a bookshelf.
type Book struct {
	CreatedAt   time.Time
	LastUpdated time.Time
	ID          string
	Name        string
	BookshelfID string
	CreatedBy   string
	MemberIDs   []string
}

// HasMember reports whether userID belongs to the book itself.
func (b *Book) HasMember(userID string) bool {
	return slices.Contains(b.MemberIDs, userID)
}

// DefaultBookshelfName is the name given to a new user's first shelf.
func DefaultBookshelfName(displayName string) string {
	if displayName == "" {
		return "My First Shelf"
	}
	return displayName + "'s Shelf"
}
