package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
	"github.com/iho/fundsbook/internal/adapter/http/middleware"
	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
)

// AuthService defines the behavior needed by AuthHandler.
type AuthService interface {
	SignUp(ctx context.Context, input usecase.SignUpInput) (*usecase.AuthResult, error)
	SignIn(ctx context.Context, input usecase.SignInInput) (*usecase.AuthResult, error)
	ResetPassword(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	LogOut(ctx context.Context, tokenID string, expiresAt time.Time) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUC AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUC AuthService) *AuthHandler {
	return &AuthHandler{authUC: authUC}
}

// SignUp registers a user and returns a token.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authUC.SignUp(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to sign up", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AuthFromResult(res))
}

// SignIn authenticates a user and returns a token.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authUC.SignIn(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to sign in", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuthFromResult(res))
}

// RequestPasswordReset always answers 202 for well-formed emails so the
// endpoint does not reveal which addresses are registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authUC.ResetPassword(r.Context(), req.Email); err != nil {
		writeDomainError(w, r, "failed to request password reset", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reset requested"})
}

// ConfirmPasswordReset sets a new password using a reset token.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmPasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authUC.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		writeDomainError(w, r, "failed to reset password", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SignOut revokes the token used for this request.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := h.authUC.LogOut(r.Context(), claims.ID, expiresAt); err != nil {
		writeDomainError(w, r, "failed to sign out", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCurrentUser returns the current authenticated user
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	user, err := h.authUC.GetUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, "failed to get user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}
