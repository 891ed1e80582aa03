package model

import "time"

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventActive    EventStatus = "active"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// ParseEventStatus validates a raw event status.
func ParseEventStatus(raw string) (EventStatus, bool) {
	switch s := EventStatus(raw); s {
	case EventDraft, EventActive, EventCancelled, EventCompleted:
		return s, true
	}
	return "", false
}

// Event is a row of the `events` table together with the artists
// linked through `event_artists` and its ticket types.
type Event struct {
	ID          uint64       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	StartsAt    time.Time    `json:"starts_at"`
	EndsAt      time.Time    `json:"ends_at"`
	Status      EventStatus  `json:"status"`
	ArtistIDs   []uint64     `json:"artist_ids"`
	TicketTypes []TicketType `json:"ticket_types"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// OwnedBy reports whether the artist profile is linked to the event.
func (e Event) OwnedBy(artistID uint64) bool {
	for _, id := range e.ArtistIDs {
		if id == artistID {
			return true
		}
	}
	return false
}
