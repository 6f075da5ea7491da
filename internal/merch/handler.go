package merch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/csps/portal/internal/platform/httpx"
	"github.com/csps/portal/internal/rbac"
	"github.com/csps/portal/internal/shared"
)

// Handler exposes merch endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: mw, validator: httpx.NewValidator()}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateMerchRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create merch", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*m))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list merch", err)
		return
	}
	out := make([]MerchResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toResponse(m))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get merch", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*m))
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.service.Replace)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.service.Patch)
}

type updateFunc func(ctx context.Context, id int64, req UpdateMerchRequest) (*Merch, error)

func (h *Handler) update(w http.ResponseWriter, r *http.Request, apply updateFunc) {
	id, ok := parseID(w, chi.URLParam(r, "merchId"))
	if !ok {
		return
	}
	var req UpdateMerchRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := apply(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update merch", err)
		return
	}
	httpx.Envelope(w, http.StatusOK, "Merch Updated Successfully", toResponse(*m))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	m, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, "delete merch", err)
		return
	}
	httpx.Envelope(w, http.StatusOK, "Merch Deleted Successfully", toResponse(*m))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, shared.Validation(httpx.ValidationMessage(err)))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var domainErr *shared.Error
	if !errors.As(err, &domainErr) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validation("Invalid merch id"))
		return 0, false
	}
	return id, true
}
