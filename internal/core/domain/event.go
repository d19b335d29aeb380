package domain

import (
	"fmt"
	"time"
)

// FloatingLayout is the round-trip layout used for zone-qualified wall-clock times.
const FloatingLayout = "2006-01-02T15:04:05.0000000"

// floatingParseLayout accepts 0-7 fractional digits.
const floatingParseLayout = "2006-01-02T15:04:05.9999999"

// FloatingDateTime is a wall-clock date-time paired with a zone identifier.
// It is not an instant: Wall carries no meaningful location and must only be
// interpreted through Zone.
type FloatingDateTime struct {
	Wall time.Time
	Zone string
}

// NewFloatingDateTime strips the location from t, keeping its wall-clock fields.
func NewFloatingDateTime(t time.Time, zone string) FloatingDateTime {
	return FloatingDateTime{
		Wall: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
		Zone: zone,
	}
}

// ParseFloatingDateTime parses a remote date-time string such as
// "2024-03-10T09:00:00.0000000".
func ParseFloatingDateTime(value, zone string) (FloatingDateTime, error) {
	t, err := time.Parse(floatingParseLayout, value)
	if err != nil {
		return FloatingDateTime{}, fmt.Errorf("parse date-time %q: %w", value, err)
	}
	return FloatingDateTime{Wall: t, Zone: zone}, nil
}

// String formats the wall-clock time in round-trip layout, without offset.
func (f FloatingDateTime) String() string {
	return f.Wall.Format(FloatingLayout)
}

// In interprets the wall-clock time in loc.
func (f FloatingDateTime) In(loc *time.Location) time.Time {
	w := f.Wall
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), loc)
}

// IsZero reports whether the wall-clock time is unset.
func (f FloatingDateTime) IsZero() bool {
	return f.Wall.IsZero()
}

// CalendarEvent is the read-only view projection of a remote event.
type CalendarEvent struct {
	Subject   string
	Organizer string
	Start     FloatingDateTime
	End       FloatingDateTime
}

// NewEventRequest is the submitted new-event form.
type NewEventRequest struct {
	Subject string
	// Attendees is a semicolon-delimited list of addresses.
	Attendees string
	// Start and End are naive local times.
	Start time.Time
	End   time.Time
	Body  string
}

// AttendeeType is the participation type of an attendee.
type AttendeeType string

// AttendeeRequired marks a required attendee.
const AttendeeRequired AttendeeType = "required"

// Attendee is an invited participant.
type Attendee struct {
	Address string
	Type    AttendeeType
}

// EventDraft is a new event ready to be submitted to the remote API.
type EventDraft struct {
	Subject   string
	Start     FloatingDateTime
	End       FloatingDateTime
	Body      string
	Attendees []Attendee
}

// CalendarViewQuery bounds a calendar view read.
type CalendarViewQuery struct {
	// Start and End are UTC instants; End is exclusive.
	Start    time.Time
	End      time.Time
	TimeZone string
	PageSize int
	Select   []string
	OrderBy  string
}

// EventPage is one page of a calendar view read.
type EventPage struct {
	Events []CalendarEvent
	// NextLink is the continuation link, empty on the last page.
	NextLink string
}
