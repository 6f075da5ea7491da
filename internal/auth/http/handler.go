// Package authhttp exposes the authentication endpoints.
package authhttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/csps/portal/internal/auth"
	"github.com/csps/portal/internal/platform/httpx"
	"github.com/csps/portal/internal/rbac"
	"github.com/csps/portal/internal/shared"
)

// Recorder counts authentication outcomes.
type Recorder interface {
	RecordAuth(event, outcome string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger       *slog.Logger
	service      *auth.Service
	rbac         rbac.Middleware
	cookies      CookieConfig
	validator    *validator.Validate
	metrics      Recorder
	loginLimiter func(http.Handler) http.Handler
}

// Option customises a Handler.
type Option func(*Handler)

// WithMetrics records auth outcomes on rec.
func WithMetrics(rec Recorder) Option {
	return func(h *Handler) { h.metrics = rec }
}

// WithLoginLimiter wraps POST /auth/login with limiter.
func WithLoginLimiter(limiter func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.loginLimiter = limiter }
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *auth.Service, mw rbac.Middleware, cookies CookieConfig, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		rbac:      mw,
		cookies:   cookies,
		validator: httpx.NewValidator(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.loginLimiter != nil {
				r.Use(h.loginLimiter)
			}
			r.Post("/login", h.handleLogin)
		})
		r.Post("/logout", h.handleLogout)
		r.Post("/refresh", h.handleRefresh)
		r.With(h.rbac.RequireRole(auth.RoleStudent)).Get("/profile", h.studentProfile)
		r.With(h.rbac.RequireRole(auth.RoleAdmin)).Get("/admin/profile", h.adminProfile)
	})
	r.Route("/api/accounts", func(r chi.Router) {
		r.With(h.rbac.RequireRole(auth.RoleAdmin)).Post("/students", h.registerStudent)
		r.With(h.rbac.RequireAuthority(shared.AuthorityAdminExecutive)).Post("/admins", h.registerAdmin)
	})
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required_without=StudentID"`
	StudentID  string `json:"studentId" validate:"required_without=Identifier"`
	Password   string `json:"password" validate:"required"`
}

func (l loginRequest) username() string {
	if id := strings.TrimSpace(l.Identifier); id != "" {
		return id
	}
	return strings.TrimSpace(l.StudentID)
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.username(), req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.record("login", "rejected")
			h.logger.Warn("login rejected", slog.String("reason", "invalid credentials"))
			httpx.Envelope(w, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		h.record("login", "error")
		h.logger.Error("login failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	http.SetCookie(w, h.cookies.crossSite(rbac.AccessCookie, session.AccessToken, h.service.AccessTTL()))
	http.SetCookie(w, h.cookies.crossSite(RefreshCookie, session.RefreshToken, time.Until(session.RefreshExpiresAt)))
	h.record("login", "success")
	httpx.Envelope(w, http.StatusOK, "Login successful", tokenResponse{AccessToken: session.AccessToken})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if presented := refreshCookie(r); presented != "" {
		if err := h.service.Logout(r.Context(), presented); err != nil {
			h.logger.Warn("logout delete refresh token", slog.Any("error", err))
		}
	}
	h.cookies.clear(w)
	h.record("logout", "success")
	httpx.Envelope(w, http.StatusOK, "Logout successful", nil)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	presented := refreshCookie(r)
	if presented == "" {
		h.record("refresh", "missing")
		httpx.Envelope(w, http.StatusBadRequest, "Refresh token is missing", nil)
		return
	}

	out, ok, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		h.record("refresh", "error")
		h.logger.Error("refresh failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !ok {
		h.record("refresh", "rejected")
		httpx.Envelope(w, http.StatusUnauthorized, "Invalid or expired refresh token", nil)
		return
	}

	http.SetCookie(w, h.cookies.strict(rbac.AccessCookie, out.AccessToken, h.service.AccessTTL()))
	if out.RefreshToken != "" {
		// Same attributes as at login so cross-site logout still sends it.
		http.SetCookie(w, h.cookies.crossSite(RefreshCookie, out.RefreshToken, time.Until(out.RefreshExpiresAt)))
	}
	h.record("refresh", "success")
	httpx.Envelope(w, http.StatusOK, "Access token refreshed successfully", tokenResponse{AccessToken: out.AccessToken})
}

func (h *Handler) studentProfile(w http.ResponseWriter, r *http.Request) {
	student, ok := rbac.StudentFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	profile, err := h.service.StudentProfile(r.Context(), student.StudentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newStudentResponse(profile))
}

func (h *Handler) adminProfile(w http.ResponseWriter, r *http.Request) {
	admin, ok := rbac.AdminFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	profile, err := h.service.AdminProfile(r.Context(), admin.AdminID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newAdminResponse(profile))
}

func (h *Handler) record(event, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordAuth(event, outcome)
	}
}

func refreshCookie(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
