package domain

import "errors"

var (
	// Directory errors
	ErrBookshelfNotFound = errors.New("bookshelf not found")
	ErrBookNotFound      = errors.New("book not found")
	ErrNotMember         = errors.New("user is not a member")
	ErrNotOwner          = errors.New("only the owner can perform this operation")

	// Entry errors
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidEntryType = errors.New("invalid entry type")
	ErrInvalidEntry     = errors.New("invalid entry")

	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("user with this email already exists")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrRevokedToken       = errors.New("token has been revoked")
)
