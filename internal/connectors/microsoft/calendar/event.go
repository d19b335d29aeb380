package calendar

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

// Event represents a Microsoft Calendar event from the Graph API.
// Only the fields graphcal reads or writes are mapped.
type Event struct {
	ID        string        `json:"id,omitempty"`
	Subject   string        `json:"subject"`
	Body      *EventBody    `json:"body,omitempty"`
	Start     *DateTimeZone `json:"start,omitempty"`
	End       *DateTimeZone `json:"end,omitempty"`
	Organiser *EmailAddress `json:"organizer,omitempty"` //nolint:misspell // Microsoft API field name
	Attendees []Attendee    `json:"attendees,omitempty"`
	WebLink   string        `json:"webLink,omitempty"`
}

// EventBody contains the event body content.
type EventBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// DateTimeZone contains a date-time with time zone.
type DateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Address is a named email address.
type Address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// EmailAddress contains email address information.
type EmailAddress struct {
	EmailAddress Address `json:"emailAddress"`
}

// Attendee represents an event attendee.
type Attendee struct {
	Type         string  `json:"type"`
	EmailAddress Address `json:"emailAddress"`
}

// eventPage is a calendar view response page.
type eventPage struct {
	Value    []Event `json:"value"`
	NextLink string  `json:"@odata.nextLink"`
}

// ToCalendarEvent converts a Graph event to its display projection.
// zone is used when the event omits a time zone.
func ToCalendarEvent(event *Event, zone string) (domain.CalendarEvent, error) {
	start, err := toFloating(event.Start, zone)
	if err != nil {
		return domain.CalendarEvent{}, fmt.Errorf("event %q start: %w", event.Subject, err)
	}
	end, err := toFloating(event.End, zone)
	if err != nil {
		return domain.CalendarEvent{}, fmt.Errorf("event %q end: %w", event.Subject, err)
	}

	return domain.CalendarEvent{
		Subject:   event.Subject,
		Organizer: organiserName(event.Organiser),
		Start:     start,
		End:       end,
	}, nil
}

func toFloating(dtz *DateTimeZone, zone string) (domain.FloatingDateTime, error) {
	if dtz == nil || dtz.DateTime == "" {
		return domain.FloatingDateTime{}, nil
	}
	if dtz.TimeZone != "" {
		zone = dtz.TimeZone
	}
	return domain.ParseFloatingDateTime(dtz.DateTime, zone)
}

func organiserName(organiser *EmailAddress) string {
	if organiser == nil {
		return ""
	}
	if name := strings.TrimSpace(organiser.EmailAddress.Name); name != "" {
		return name
	}
	return organiser.EmailAddress.Address
}

// NewEventPayload maps a draft to the Graph create-event body.
// A plain-text body is attached only when non-empty. Attendees are omitted
// when there are none.
func NewEventPayload(draft *domain.EventDraft) *Event {
	event := &Event{
		Subject: draft.Subject,
		Start:   &DateTimeZone{DateTime: draft.Start.String(), TimeZone: draft.Start.Zone},
		End:     &DateTimeZone{DateTime: draft.End.String(), TimeZone: draft.End.Zone},
	}

	if draft.Body != "" {
		event.Body = &EventBody{ContentType: "text", Content: draft.Body}
	}

	for _, a := range draft.Attendees {
		attendeeType := a.Type
		if attendeeType == "" {
			attendeeType = domain.AttendeeRequired
		}
		event.Attendees = append(event.Attendees, Attendee{
			Type:         string(attendeeType),
			EmailAddress: Address{Address: a.Address},
		})
	}

	return event
}
