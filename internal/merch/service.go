package merch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/csps/portal/internal/shared"
)

// Service implements merch catalogue rules.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Merch, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Merch, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, id)
	}
	return m, nil
}

var errInvalidPrice = shared.Validation("Price must be greater than 0")

// Create adds an item. Names are unique, ignoring case.
func (s *Service) Create(ctx context.Context, req CreateMerchRequest) (*Merch, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.Validation("Merch name is required")
	}
	if req.Price <= 0 {
		return nil, errInvalidPrice
	}
	if err := s.ensureUniqueName(ctx, name, 0); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	m := Merch{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Type:        req.Type,
		Price:       req.Price,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.repo.Create(ctx, m)
	if err != nil {
		return nil, mapErr(err, 0)
	}
	m.ID = id
	return &m, nil
}

// Replace overwrites every field of an item.
func (s *Service) Replace(ctx context.Context, id int64, req UpdateMerchRequest) (*Merch, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Description == nil ||
		req.Type == nil || req.Price == nil {
		return nil, shared.Validation("merchName, description, merchType and price are required")
	}
	return s.update(ctx, id, req)
}

// Patch applies only the supplied fields.
func (s *Service) Patch(ctx context.Context, id int64, req UpdateMerchRequest) (*Merch, error) {
	return s.update(ctx, id, req)
}

func (s *Service) update(ctx context.Context, id int64, req UpdateMerchRequest) (*Merch, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, id)
	}
	next := *current
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		next.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
	}
	if req.Type != nil {
		next.Type = *req.Type
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, errInvalidPrice
		}
		next.Price = *req.Price
	}
	if req.ImageURL != nil {
		next.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if !strings.EqualFold(next.Name, current.Name) {
		if err := s.ensureUniqueName(ctx, next.Name, id); err != nil {
			return nil, err
		}
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, mapErr(err, id)
	}
	return &next, nil
}

// Delete removes an item and returns its last state.
func (s *Service) Delete(ctx context.Context, id int64) (*Merch, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, mapErr(err, id)
	}
	return current, nil
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, excludeID int64) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check merch name: %w", err)
	}
	if exists {
		return shared.Conflict("Merch already exists")
	}
	return nil
}

func mapErr(err error, id int64) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return shared.NotFound(fmt.Sprintf("Merch not found with id: %d", id))
	case errors.Is(err, ErrAlreadyExists):
		return shared.Conflict("Merch already exists")
	default:
		return err
	}
}
