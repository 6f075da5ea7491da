package events

// EventRequest is the body of create, replace and patch calls. Pointer fields
// distinguish an omitted field from a zero value.
type EventRequest struct {
	Name        *string      `json:"eventName" validate:"omitempty,max=255"`
	Description *string      `json:"eventDescription" validate:"omitempty,max=500"`
	Location    *string      `json:"eventLocation" validate:"omitempty,max=255"`
	Date        *Date        `json:"eventDate"`
	StartTime   *ClockTime   `json:"startTime"`
	EndTime     *ClockTime   `json:"endTime"`
	Type        *EventType   `json:"eventType" validate:"omitempty,oneof=ACADEMIC SOCIAL SPORTS WORKSHOP SEMINAR OTHERS"`
	Status      *EventStatus `json:"eventStatus" validate:"omitempty,oneof=UPCOMING ONGOING COMPLETED CANCELLED"`
}

// EventResponse is the wire form of an Event.
type EventResponse struct {
	ID          int64       `json:"eventId"`
	Name        string      `json:"eventName"`
	Description string      `json:"eventDescription"`
	Location    string      `json:"eventLocation"`
	Date        Date        `json:"eventDate"`
	StartTime   ClockTime   `json:"startTime"`
	EndTime     ClockTime   `json:"endTime"`
	Type        EventType   `json:"eventType"`
	Status      EventStatus `json:"eventStatus"`
}

func toResponse(e Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Type:        e.Type,
		Status:      e.Status,
	}
}

func toResponses(list []Event) []EventResponse {
	out := make([]EventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toResponse(e))
	}
	return out
}
