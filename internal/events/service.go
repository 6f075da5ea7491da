package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/csps/portal/internal/shared"
)

// Service implements event scheduling rules.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the time source used for past-date checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	return e, nil
}

// ListByDate returns the events on date; an empty day is a NotFound failure.
func (s *Service) ListByDate(ctx context.Context, date Date) ([]Event, error) {
	list, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list events by date: %w", err)
	}
	if len(list) == 0 {
		return nil, shared.NotFound(fmt.Sprintf("Event not found with date: %s", date))
	}
	return list, nil
}

// Create schedules a new event. Every field is required.
func (s *Service) Create(ctx context.Context, req EventRequest) (*Event, error) {
	if !complete(req) {
		return nil, shared.Validation("All event fields are required")
	}
	now := s.now()
	e := Event{
		Name:        strings.TrimSpace(*req.Name),
		Description: strings.TrimSpace(*req.Description),
		Location:    strings.TrimSpace(*req.Location),
		Date:        *req.Date,
		StartTime:   *req.StartTime,
		EndTime:     *req.EndTime,
		Type:        *req.Type,
		Status:      *req.Status,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := s.checkSchedule(e, true, now); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := s.checkOverlap(ctx, repo, e); err != nil {
			return err
		}
		id, err := repo.Create(ctx, e)
		if err != nil {
			return err
		}
		e.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Replace overwrites every field of an existing event.
func (s *Service) Replace(ctx context.Context, id int64, req EventRequest) (*Event, error) {
	if !complete(req) {
		return nil, shared.Validation("All event fields are required")
	}
	return s.update(ctx, id, func(e *Event) bool {
		e.Name = strings.TrimSpace(*req.Name)
		e.Description = strings.TrimSpace(*req.Description)
		e.Location = strings.TrimSpace(*req.Location)
		e.Date = *req.Date
		e.StartTime = *req.StartTime
		e.EndTime = *req.EndTime
		e.Type = *req.Type
		e.Status = *req.Status
		return true
	})
}

// Patch applies only the supplied fields; blank strings are ignored.
func (s *Service) Patch(ctx context.Context, id int64, req EventRequest) (*Event, error) {
	return s.update(ctx, id, func(e *Event) bool {
		if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
			e.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
			e.Description = strings.TrimSpace(*req.Description)
		}
		if req.Location != nil && strings.TrimSpace(*req.Location) != "" {
			e.Location = strings.TrimSpace(*req.Location)
		}
		if req.Date != nil {
			e.Date = *req.Date
		}
		if req.StartTime != nil {
			e.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			e.EndTime = *req.EndTime
		}
		if req.Type != nil {
			e.Type = *req.Type
		}
		if req.Status != nil {
			e.Status = *req.Status
		}
		// Past-date rules only apply to a schedule the caller is moving.
		return req.Date != nil || req.StartTime != nil
	})
}

func (s *Service) update(ctx context.Context, id int64, apply func(*Event) bool) (*Event, error) {
	var updated Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return notFound(err, id)
		}
		next := *current
		rescheduled := apply(&next)
		now := s.now()
		if err := s.checkSchedule(next, rescheduled, now); err != nil {
			return err
		}
		if err := s.checkOverlap(ctx, repo, next); err != nil {
			return err
		}
		next.UpdatedAt = now.UTC()
		if err := repo.Update(ctx, next); err != nil {
			return notFound(err, id)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an event and returns its last state.
func (s *Service) Delete(ctx context.Context, id int64) (*Event, error) {
	var deleted Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return notFound(err, id)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return notFound(err, id)
		}
		deleted = *current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// checkSchedule validates the time range and, when checkPast is set, that the
// event does not start in the past.
func (s *Service) checkSchedule(e Event, checkPast bool, now time.Time) error {
	if checkPast {
		today := DateOf(now)
		if e.Date.Before(today) {
			return shared.Validation("Event date cannot be in the past")
		}
		if e.Date == today && e.StartTime < ClockOf(now) {
			return shared.Validation("Event start time cannot be in the past for today's date")
		}
	}
	if e.StartTime >= e.EndTime {
		return shared.Validation("Invalid Time Range")
	}
	return nil
}

func (s *Service) checkOverlap(ctx context.Context, repo Repository, e Event) error {
	if err := repo.LockDate(ctx, e.Date); err != nil {
		return fmt.Errorf("lock event date: %w", err)
	}
	overlap, err := repo.Overlaps(ctx, e.Date, e.StartTime, e.EndTime, e.ID)
	if err != nil {
		return fmt.Errorf("check event overlap: %w", err)
	}
	if overlap {
		return shared.Validation("Event already exists with the same date and time")
	}
	return nil
}

func complete(req EventRequest) bool {
	return nonBlank(req.Name) && nonBlank(req.Description) && nonBlank(req.Location) &&
		req.Date != nil && req.StartTime != nil && req.EndTime != nil &&
		req.Type != nil && req.Status != nil
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func notFound(err error, id int64) error {
	if errors.Is(err, ErrNotFound) {
		return shared.NotFound(fmt.Sprintf("Event not found with id: %d", id))
	}
	return fmt.Errorf("load event: %w", err)
}
