package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/infrastructure/auth"
	"github.com/iho/fundsbook/internal/infrastructure/logger"
	"github.com/iho/fundsbook/internal/usecase"
)

type contextKey struct{}

// accessTokenParam carries the token for clients that cannot set headers,
// such as browser EventSource streams.
const accessTokenParam = "access_token"

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// Authenticator rejects requests without a valid, unrevoked bearer token.
type Authenticator struct {
	verifier TokenVerifier
	sessions usecase.SessionStore
}

// NewAuthenticator creates an authentication middleware.
func NewAuthenticator(verifier TokenVerifier, sessions usecase.SessionStore) *Authenticator {
	return &Authenticator{verifier: verifier, sessions: sessions}
}

// Require wraps next so it only runs for authenticated requests.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.verifier.Verify(tokenString)
		if err != nil {
			if errors.Is(err, domain.ErrExpiredToken) {
				writeJSONError(w, http.StatusUnauthorized, domain.ErrExpiredToken.Error())
				return
			}
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if a.sessions != nil {
			revoked, err := a.sessions.IsRevoked(r.Context(), claims.ID, claims.UserID, issuedAt(claims))
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("session lookup failed")
				writeJSONError(w, http.StatusServiceUnavailable, "session check failed")
				return
			}
			if revoked {
				writeJSONError(w, http.StatusUnauthorized, domain.ErrRevokedToken.Error())
				return
			}
		}

		logger.AddUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// issuedAt returns the iat claim, or the zero time when it is absent so
// that any user-wide revocation applies.
func issuedAt(claims *auth.Claims) time.Time {
	if claims.IssuedAt == nil {
		return time.Time{}
	}
	return claims.IssuedAt.Time
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get(accessTokenParam); token != "" && r.Method == http.MethodGet {
			return token, nil
		}
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

// WithClaims stores authenticated claims in ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext extracts the authenticated claims from ctx.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the authenticated user ID, or "" when the
// request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
