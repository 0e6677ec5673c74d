package event

import (
	"time"

	"github.com/google/uuid"
)

const RefreshQueue string = "country_refresh_events"

type RefreshEvent struct {
	ID           string    `json:"id"`
	EventType    string    `json:"event_type"`
	Tier         string    `json:"tier"`
	SavedCount   int       `json:"saved_count"`
	InvalidCount int       `json:"invalid_count"`
	RefreshedAt  time.Time `json:"refreshed_at"`
}

const EventTypeRefreshCompleted = "refresh_completed"

// withDefaults fills the event id and type when the caller left them empty.
func (e RefreshEvent) withDefaults() RefreshEvent {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EventType == "" {
		e.EventType = EventTypeRefreshCompleted
	}
	return e
}
