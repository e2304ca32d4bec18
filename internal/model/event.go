package model

import "time"

// Event represents a gathering hosted around a featured game, as
// stored in the `events` table. Capacity is bounded by
// MaxParticipants; the current participant count is always derived
// from the registrations table, never stored.
//
// Fields:
//  ID              – primary key identifier.
//  HostID          – account hosting the event.
//  FeaturedGameID  – game the event is built around.
//  Title           – short event title.
//  Description     – free-form description.
//  Location        – where the event takes place.
//  StartsAt        – when the event begins.
//  MaxParticipants – maximum number of registrations (>= 1).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Event struct {
	ID              uint64    `json:"id"`               // events.id
	HostID          uint64    `json:"host_id"`          // events.host_id
	FeaturedGameID  uint64    `json:"featured_game_id"` // events.featured_game_id
	Title           string    `json:"title"`            // events.title
	Description     string    `json:"description"`      // events.description
	Location        string    `json:"location"`         // events.location
	StartsAt        time.Time `json:"starts_at"`        // events.starts_at
	MaxParticipants uint32    `json:"max_participants"` // events.max_participants
	CreatedAt       time.Time `json:"created_at"`       // events.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // events.updated_at
}

// Registration links an attendee account to an event, as stored in
// the `registrations` table. An attendee holds at most one
// registration per event (UNIQUE key on event_id + attendee_id) and
// only the attendee may delete it.
//
// Fields:
//  ID           – primary key identifier.
//  EventID      – event being attended.
//  AttendeeID   – account attending.
//  RegisteredAt – when the registration was created.
type Registration struct {
	ID           uint64    `json:"id"`            // registrations.id
	EventID      uint64    `json:"event_id"`      // registrations.event_id
	AttendeeID   uint64    `json:"attendee_id"`   // registrations.attendee_id
	RegisteredAt time.Time `json:"registered_at"` // registrations.registered_at
}
