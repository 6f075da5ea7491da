package events

import "time"

// EventType classifies an event.
type EventType string

const (
	TypeAcademic EventType = "ACADEMIC"
	TypeSocial   EventType = "SOCIAL"
	TypeSports   EventType = "SPORTS"
	TypeWorkshop EventType = "WORKSHOP"
	TypeSeminar  EventType = "SEMINAR"
	TypeOthers   EventType = "OTHERS"
)

// EventStatus tracks where an event is in its lifecycle.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "UPCOMING"
	StatusOngoing   EventStatus = "ONGOING"
	StatusCompleted EventStatus = "COMPLETED"
	StatusCancelled EventStatus = "CANCELLED"
)

// Event is a scheduled organization event.
type Event struct {
	ID          int64
	Name        string
	Description string
	Location    string
	Date        Date
	StartTime   ClockTime
	EndTime     ClockTime
	Type        EventType
	Status      EventStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
