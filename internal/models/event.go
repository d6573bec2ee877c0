package models

import "time"

// EventType categorises events.
type EventType string

const (
	EventAcademic   EventType = "academic"
	EventCultural   EventType = "cultural"
	EventSports     EventType = "sports"
	EventSeminar    EventType = "seminar"
	EventWorkshop   EventType = "workshop"
	EventConference EventType = "conference"
	EventOther      EventType = "other"
)

// EventWindow selects events relative to the current instant.
type EventWindow string

const (
	WindowAll      EventWindow = "all"
	WindowUpcoming EventWindow = "upcoming"
	WindowOngoing  EventWindow = "ongoing"
	WindowPast     EventWindow = "past"
)

// Event is a dated happening with optional registration.
type Event struct {
	ID                   string     `db:"id" json:"id"`
	Title                string     `db:"title" json:"title"`
	Description          string     `db:"description" json:"description"`
	EventType            EventType  `db:"event_type" json:"event_type"`
	StartDate            time.Time  `db:"start_date" json:"start_date"`
	EndDate              time.Time  `db:"end_date" json:"end_date"`
	Location             string     `db:"location" json:"location"`
	OrganizerID          string     `db:"organizer_id" json:"organizer_id"`
	DepartmentID         *string    `db:"department_id" json:"department_id,omitempty"`
	DepartmentName       *string    `db:"department_name" json:"department_name,omitempty"`
	MaxParticipants      *int       `db:"max_participants" json:"max_participants,omitempty"`
	RegistrationRequired bool       `db:"registration_required" json:"registration_required"`
	RegistrationDeadline *time.Time `db:"registration_deadline" json:"registration_deadline,omitempty"`
	ContactEmail         string     `db:"contact_email" json:"contact_email"`
	ContactPhone         string     `db:"contact_phone" json:"contact_phone"`
	Image                *string    `db:"image" json:"image,omitempty"`
	IsFeatured           bool       `db:"is_featured" json:"is_featured"`
	IsPublished          bool       `db:"is_published" json:"is_published"`
	RegistrationCount    int        `db:"registration_count" json:"registration_count"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IsUpcoming reports whether the event starts after now.
func (e Event) IsUpcoming(now time.Time) bool {
	return e.StartDate.After(now)
}

// IsOngoing reports whether now falls in the closed interval [start, end].
func (e Event) IsOngoing(now time.Time) bool {
	return !now.Before(e.StartDate) && !now.After(e.EndDate)
}

// IsPast reports whether the event ended before now.
func (e Event) IsPast(now time.Time) bool {
	return e.EndDate.Before(now)
}

// RegistrationOpen reports whether new registrations are accepted at now.
func (e Event) RegistrationOpen(now time.Time) bool {
	if e.IsPast(now) {
		return false
	}
	if e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline) {
		return false
	}
	return true
}

// IsFull reports whether the participant cap is reached.
func (e Event) IsFull() bool {
	return e.MaxParticipants != nil && e.RegistrationCount >= *e.MaxParticipants
}

// EventView carries the time classification computed at read time.
type EventView struct {
	Event
	IsUpcoming bool `json:"is_upcoming"`
	IsOngoing  bool `json:"is_ongoing"`
	IsPast     bool `json:"is_past"`
}

// NewEventView classifies e against now.
func NewEventView(e Event, now time.Time) EventView {
	return EventView{Event: e, IsUpcoming: e.IsUpcoming(now), IsOngoing: e.IsOngoing(now), IsPast: e.IsPast(now)}
}

// EventFilter narrows the public event listing.
type EventFilter struct {
	Type           EventType
	DepartmentCode string
	Window         EventWindow
	Search         string
	Now            time.Time
	Page           int
	PageSize       int
}

// EventDetail is an event as seen by a particular viewer.
type EventDetail struct {
	EventView
	IsRegistered     bool        `json:"is_registered"`
	RegistrationOpen bool        `json:"registration_open"`
	Related          []EventView `json:"related_events"`
}

// EventRegistration records a user signing up for an event.
type EventRegistration struct {
	ID               string    `db:"id" json:"id"`
	EventID          string    `db:"event_id" json:"event_id"`
	UserID           string    `db:"user_id" json:"user_id"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
	Notes            string    `db:"notes" json:"notes"`
	IsConfirmed      bool      `db:"is_confirmed" json:"is_confirmed"`
}

// CreateEventRequest is the payload for publishing an event.
type CreateEventRequest struct {
	Title                string     `json:"title" validate:"required,max=200"`
	Description          string     `json:"description" validate:"required"`
	EventType            EventType  `json:"event_type" validate:"required,event_type"`
	StartDate            time.Time  `json:"start_date" validate:"required"`
	EndDate              time.Time  `json:"end_date" validate:"required,gtefield=StartDate"`
	Location             string     `json:"location" validate:"required,max=200"`
	DepartmentID         *string    `json:"department_id" validate:"omitempty,uuid"`
	MaxParticipants      *int       `json:"max_participants" validate:"omitempty,min=1"`
	RegistrationRequired bool       `json:"registration_required"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	ContactEmail         string     `json:"contact_email" validate:"omitempty,email"`
	ContactPhone         string     `json:"contact_phone" validate:"omitempty,max=15"`
	IsFeatured           bool       `json:"is_featured"`
	IsPublished          bool       `json:"is_published"`
}

// RegisterEventRequest carries optional notes for a registration.
type RegisterEventRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}
