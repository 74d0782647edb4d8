package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a transaction entry. IN and OUT are distinguished;
// any other label is a custom type carrying a signed amount.
type EntryType string

const (
	EntryTypeIn  EntryType = "IN"
	EntryTypeOut EntryType = "OUT"

	// EntryTypeOther is the picker value for custom entries. It is replaced
	// by the entry's remark when one is given.
	EntryTypeOther EntryType = "OTHER"
)

// IsCustom reports whether t is neither IN nor OUT.
func (t EntryType) IsCustom() bool {
	return t != EntryTypeIn && t != EntryTypeOut
}

// Entry is a single cash movement recorded in a book.
type Entry struct {
	CreatedAt   time.Time
	ID          string
	BookID      string
	Type        EntryType
	PaymentMode string
	Category    string
	Party       string
	Remark      string
	CreatedBy   string
	Amount      decimal.Decimal
}

// NormalizeEntryType resolves the type stored for a new entry. The OTHER
// placeholder takes the remark as its label.
func NormalizeEntryType(t EntryType, remark string) EntryType {
	if t == EntryTypeOther && remark != "" {
		return EntryType(remark)
	}
	return t
}
