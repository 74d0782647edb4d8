package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/fundsbook/internal/domain"
)

// AuthUseCaseConfig holds the dependencies of AuthUseCase.
type AuthUseCaseConfig struct {
	TxManager   TransactionManager
	UserRepo    UserRepository
	OutboxRepo  OutboxRepository
	Tokens      TokenIssuer
	Sessions    SessionStore
	ResetTokens ResetTokenStore
	Shelves     DefaultShelfProvisioner
	IDGen       IDGenerator
	// ResetTokenGen generates password reset tokens. Falls back to IDGen.
	ResetTokenGen IDGenerator
	ResetTokenTTL time.Duration
	// SessionTTL is the lifetime of issued tokens. A password reset keeps
	// its user-wide revocation for this long.
	SessionTTL time.Duration
	BcryptCost int
	Metrics    MetricsRecorder // optional
	Logger     zerolog.Logger
}

// AuthUseCase handles sign up, sign in and password management.
type AuthUseCase struct {
	txManager     TransactionManager
	userRepo      UserRepository
	outboxRepo    OutboxRepository
	tokens        TokenIssuer
	sessions      SessionStore
	resetTokens   ResetTokenStore
	shelves       DefaultShelfProvisioner
	idGen         IDGenerator
	resetTokenGen IDGenerator
	resetTokenTTL time.Duration
	sessionTTL    time.Duration
	bcryptCost    int
	metrics       MetricsRecorder
	logger        zerolog.Logger
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(cfg AuthUseCaseConfig) *AuthUseCase {
	if cfg.ResetTokenGen == nil {
		cfg.ResetTokenGen = cfg.IDGen
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultPasswordResetTTL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	return &AuthUseCase{
		txManager:     cfg.TxManager,
		userRepo:      cfg.UserRepo,
		outboxRepo:    cfg.OutboxRepo,
		tokens:        cfg.Tokens,
		sessions:      cfg.Sessions,
		resetTokens:   cfg.ResetTokens,
		shelves:       cfg.Shelves,
		idGen:         cfg.IDGen,
		resetTokenGen: cfg.ResetTokenGen,
		resetTokenTTL: cfg.ResetTokenTTL,
		sessionTTL:    cfg.SessionTTL,
		bcryptCost:    cfg.BcryptCost,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

// AuthResult is returned by a successful sign up or sign in.
type AuthResult struct {
	User  *domain.User
	Token string
	// Bookshelf is the default shelf created for a first session, if any.
	Bookshelf *domain.Bookshelf
}

// SignUpInput represents input for creating an account.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// SignUp creates an account and signs the user in.
func (uc *AuthUseCase) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.DisplayName); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uc.idGen.Generate(),
		Email:          email,
		DisplayName:    strings.TrimSpace(input.DisplayName),
		HashedPassword: string(hashed),
		CreatedAt:      now,
		LastSignInAt:   now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		uc.metrics.AuthAttempt("signup", false)
		return nil, err
	}

	result, err := uc.startSession(ctx, user)
	uc.metrics.AuthAttempt("signup", err == nil)
	return result, err
}

// SignInInput represents input for signing in.
type SignInInput struct {
	Email    string
	Password string
}

// SignIn verifies credentials and issues a token.
func (uc *AuthUseCase) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	result, err := uc.signIn(ctx, input)
	uc.metrics.AuthAttempt("signin", err == nil)
	return result, err
}

func (uc *AuthUseCase) signIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	user, err := uc.userRepo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := uc.userRepo.UpdateLastSignIn(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastSignInAt = now

	return uc.startSession(ctx, user)
}

func (uc *AuthUseCase) startSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, err := uc.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	result := &AuthResult{User: user, Token: token}

	// A missing default shelf never blocks signing in.
	shelf, err := uc.shelves.EnsureDefaultBookshelf(ctx, user)
	if err != nil {
		uc.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to create default bookshelf")
	} else {
		result.Bookshelf = shelf
	}

	return result, nil
}

// ResetPassword issues a one-time reset token for the account with the
// given email. Unknown emails succeed without doing anything.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.logger.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token := uc.resetTokenGen.Generate()
	if err := uc.resetTokens.Save(ctx, token, user.ID, uc.resetTokenTTL); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	event := newOutboxEvent(uc.idGen, domain.AggregateTypeUser, user.ID, domain.EventTypePasswordResetRequested,
		domain.PasswordResetRequestedEvent{
			UserID:    user.ID,
			Email:     user.Email,
			Token:     token,
			ExpiresAt: now.Add(uc.resetTokenTTL).UnixMilli(),
		}, now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ConfirmPasswordReset sets a new password using a reset token and signs
// the user out everywhere. The token stays usable until the new password
// is stored and older sessions are revoked.
func (uc *AuthUseCase) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidResetToken
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	userID, err := uc.resetTokens.Lookup(ctx, token)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), uc.bcryptCost)
	if err != nil {
		return err
	}

	if err := uc.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}

	if err := uc.sessions.RevokeUser(ctx, userID, time.Now().UTC(), uc.sessionTTL); err != nil {
		return err
	}

	// A concurrent confirmation may have spent the token already.
	if _, err := uc.resetTokens.Consume(ctx, token); err != nil && !errors.Is(err, domain.ErrInvalidResetToken) {
		uc.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to consume reset token")
	}

	uc.logger.Info().Str("user_id", userID).Msg("password reset")
	return nil
}

// LogOut revokes a token until it would have expired.
func (uc *AuthUseCase) LogOut(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return domain.ErrInvalidToken
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	return uc.sessions.Revoke(ctx, tokenID, ttl)
}

// GetUser returns the user with the given ID.
func (uc *AuthUseCase) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.userRepo.GetByID(ctx, userID)
}
