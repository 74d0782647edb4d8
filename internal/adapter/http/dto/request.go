package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

// SignUpRequest represents a request to create a user.
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// ToUseCaseInput converts to use case input.
func (r *SignUpRequest) ToUseCaseInput() usecase.SignUpInput {
	return usecase.SignUpInput{
		Email:       r.Email,
		Password:    r.Password,
		DisplayName: r.DisplayName,
	}
}

// SignInRequest represents a sign in request.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *SignInRequest) ToUseCaseInput() usecase.SignInInput {
	return usecase.SignInInput{
		Email:    r.Email,
		Password: r.Password,
	}
}

// PasswordResetRequest asks for a password reset token.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// ConfirmPasswordResetRequest sets a new password with a reset token.
type ConfirmPasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// CreateBookshelfRequest represents a request to create a bookshelf.
type CreateBookshelfRequest struct {
	Name string `json:"name"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBookshelfRequest) ToUseCaseInput(userID string) usecase.CreateBookshelfInput {
	return usecase.CreateBookshelfInput{
		UserID: userID,
		Name:   r.Name,
	}
}

// CreateBookRequest represents a request to create a book in a bookshelf.
type CreateBookRequest struct {
	Name string `json:"name"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBookRequest) ToUseCaseInput(userID, bookshelfID string) usecase.CreateBookInput {
	return usecase.CreateBookInput{
		UserID:      userID,
		BookshelfID: bookshelfID,
		Name:        r.Name,
	}
}

// AddEntryRequest represents a request to add an entry to a book. Amount
// accepts a JSON number or a decimal string.
type AddEntryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	PaymentMode string          `json:"payment_mode,omitempty"`
	Category    string          `json:"category,omitempty"`
	Party       string          `json:"party,omitempty"`
	Remark      string          `json:"remark,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AddEntryRequest) ToUseCaseInput(userID, bookID string) usecase.AddEntryInput {
	return usecase.AddEntryInput{
		UserID:      userID,
		BookID:      bookID,
		Amount:      r.Amount,
		Type:        domain.EntryType(r.Type),
		PaymentMode: r.PaymentMode,
		Category:    r.Category,
		Party:       r.Party,
		Remark:      r.Remark,
	}
}
