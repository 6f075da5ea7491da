package authhttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/csps/portal/internal/auth"
	"github.com/csps/portal/internal/platform/httpx"
	"github.com/csps/portal/internal/shared"
)

type accountResponse struct {
	AccountID  int64     `json:"userAccountId"`
	Username   string    `json:"username"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	MiddleName string    `json:"middleName,omitempty"`
	Email      string    `json:"email,omitempty"`
	Role       auth.Role `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}

type studentResponse struct {
	StudentID   string          `json:"studentId"`
	YearLevel   int             `json:"yearLevel"`
	UserAccount accountResponse `json:"userAccount"`
}

type adminResponse struct {
	AdminID     int64           `json:"adminId"`
	Position    auth.Position   `json:"position"`
	UserAccount accountResponse `json:"userAccount"`
}

func newAccountResponse(a auth.Account) accountResponse {
	return accountResponse{
		AccountID:  a.ID,
		Username:   a.Username,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		MiddleName: a.MiddleName,
		Email:      a.Email,
		Role:       a.Role,
		CreatedAt:  a.CreatedAt,
	}
}

func newStudentResponse(p *auth.StudentProfile) studentResponse {
	return studentResponse{StudentID: p.StudentID, YearLevel: p.YearLevel, UserAccount: newAccountResponse(p.Account)}
}

func newAdminResponse(p *auth.AdminProfile) adminResponse {
	return adminResponse{AdminID: p.AdminID, Position: p.Position, UserAccount: newAccountResponse(p.Account)}
}

type registerStudentRequest struct {
	StudentID  string `json:"studentId" validate:"required,max=32"`
	YearLevel  int    `json:"yearLevel" validate:"required,min=1,max=4"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	MiddleName string `json:"middleName"`
	Email      string `json:"email" validate:"omitempty,email"`
}

type registerAdminRequest struct {
	Username   string `json:"username" validate:"required,max=64"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Position   string `json:"position" validate:"required"`
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	MiddleName string `json:"middleName"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) registerStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if !h.decode(w, r, &req) {
		return
	}
	profile, err := h.service.RegisterStudent(r.Context(), auth.NewStudent{
		StudentID:  req.StudentID,
		YearLevel:  req.YearLevel,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Email:      req.Email,
	})
	if err != nil {
		h.logger.Warn("register student", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Envelope(w, http.StatusCreated, "Student created successfully", newStudentResponse(profile))
}

func (h *Handler) registerAdmin(w http.ResponseWriter, r *http.Request) {
	var req registerAdminRequest
	if !h.decode(w, r, &req) {
		return
	}
	profile, err := h.service.RegisterAdmin(r.Context(), auth.NewAdmin{
		NewAccount: auth.NewAccount{
			Username:   req.Username,
			Password:   req.Password,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			MiddleName: req.MiddleName,
			Email:      req.Email,
		},
		Position: auth.Position(req.Position),
	})
	if err != nil {
		h.logger.Warn("register admin", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Envelope(w, http.StatusCreated, "Admin created successfully", newAdminResponse(profile))
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
