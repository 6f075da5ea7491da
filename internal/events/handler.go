package events

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/csps/portal/internal/platform/httpx"
	"github.com/csps/portal/internal/rbac"
	"github.com/csps/portal/internal/shared"
)

// Handler exposes event endpoints.
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

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list events", err)
		return
	}
	httpx.Envelope(w, http.StatusOK, "Events retrieved successfully", toResponses(list))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get event", err)
		return
	}
	httpx.Envelope(w, http.StatusOK, "Event retrieved successfully", toResponse(*e))
}

func (h *Handler) listByDate(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("eventDate"))
	if raw == "" {
		httpx.RespondError(w, shared.Validation("eventDate is required"))
		return
	}
	date, err := ParseDate(raw)
	if err != nil {
		httpx.RespondError(w, shared.Validation("eventDate must be formatted as YYYY-MM-DD"))
		return
	}
	list, err := h.service.ListByDate(r.Context(), date)
	if err != nil {
		h.fail(w, "list events by date", err)
		return
	}
	httpx.Envelope(w, http.StatusOK, "Event retrieved successfully", toResponses(list))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	e, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create event", err)
		return
	}
	httpx.Envelope(w, http.StatusCreated, "Event added successfully", toResponse(*e))
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	e, err := h.service.Replace(r.Context(), id, req)
	if err != nil {
		h.fail(w, "replace event", err)
		return
	}
	httpx.Envelope(w, http.StatusOK, "Event updated successfully", toResponse(*e))
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	e, err := h.service.Patch(r.Context(), id, req)
	if err != nil {
		h.fail(w, "patch event", err)
		return
	}
	httpx.Envelope(w, http.StatusOK, "Event patched successfully", toResponse(*e))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	e, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, "delete event", err)
		return
	}
	httpx.Envelope(w, http.StatusOK, "Event deleted successfully", toResponse(*e))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (EventRequest, bool) {
	var req EventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation(httpx.ValidationMessage(err)))
		return req, false
	}
	return req, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var domainErr *shared.Error
	if !errors.As(err, &domainErr) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validation("Invalid event id"))
		return 0, false
	}
	return id, true
}
