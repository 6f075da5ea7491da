package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/csps/portal/internal/auth"
	"github.com/csps/portal/internal/auth/token"
	"github.com/csps/portal/internal/platform/httpx"
	"github.com/csps/portal/internal/shared"
)

// AccessCookie is the cookie carrying the access token for browser clients.
const AccessCookie = "accessToken"

// PrincipalResolver resolves a principal from an account id.
type PrincipalResolver interface {
	ResolveAccount(ctx context.Context, accountID int64) (Principal, error)
}

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Middleware wires authentication and authorization helpers for HTTP handlers.
type Middleware struct {
	Verifier TokenVerifier
	Resolver PrincipalResolver
	Logger   *slog.Logger
}

// Authenticate attaches the principal for a presented access token. Requests
// without a token pass through anonymously; invalid tokens stop with 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.principalFor(r, raw)
		if err != nil {
			m.warn("authentication rejected", err)
			httpx.RespondError(w, unauthenticated(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// principalFor verifies raw and resolves its principal. Panics are recovered
// into errors so a broken request never falls through unauthenticated.
func (m Middleware) principalFor(r *http.Request, raw string) (p Principal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("rbac: panic during authentication: %v", rec)
		}
	}()

	claims, err := m.Verifier.Verify(raw)
	if err != nil {
		return nil, err
	}
	// A principal attached upstream is reused; only the lookup is skipped.
	if existing := PrincipalFromContext(r.Context()); existing != nil {
		return existing, nil
	}
	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not an account id", token.ErrMalformed)
	}
	return m.Resolver.ResolveAccount(r.Context(), accountID)
}

// RequireRole ensures the principal has one of roles.
func (m Middleware) RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return m.require(func(p Principal) bool { return HasRole(p, roles...) })
}

// RequireAuthority ensures the principal holds at least one of authorities.
func (m Middleware) RequireAuthority(authorities ...string) func(http.Handler) http.Handler {
	return m.require(func(p Principal) bool { return HasAuthority(p, authorities...) })
}

func (m Middleware) require(allowed func(Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if !allowed(principal) {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) warn(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Warn(msg, slog.Any("error", err))
	}
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func unauthenticated(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return shared.Unauthenticated("Access token expired")
	case errors.Is(err, token.ErrInvalidSignature):
		return shared.Unauthenticated("Invalid access token")
	case errors.Is(err, token.ErrMalformed):
		return shared.Unauthenticated("Malformed access token")
	default:
		return shared.Unauthenticated("Authentication required")
	}
}
