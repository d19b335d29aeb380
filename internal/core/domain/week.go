package domain

import "time"

// WeekWindow is the [Start, End) interval of a calendar week.
type WeekWindow struct {
	// Start is Sunday 00:00 local time in Location, expressed in UTC.
	Start time.Time
	// End is Start plus seven days.
	End      time.Time
	Location *time.Location
}

// LocalStart returns the window start in the window's location.
func (w WeekWindow) LocalStart() time.Time {
	return w.Start.In(w.Location)
}

// Contains reports whether t lies within the window.
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayView holds the events that start on one day of the week.
type DayView struct {
	Date   time.Time
	Events []EventView
}

// EventView is a calendar event formatted for display.
type EventView struct {
	Subject   string
	Organizer string
	Start     time.Time
	End       time.Time
	StartText string
	EndText   string
}

// WeekView is the rendered week grid.
type WeekView struct {
	Start time.Time
	End   time.Time
	Days  []DayView
}
