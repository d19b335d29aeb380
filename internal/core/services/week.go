package services

import (
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

// daysPerWeek is the length of a week window.
const daysPerWeek = 7

// StartOfWeekUTC returns the UTC instant of Sunday 00:00 in loc for the
// calendar week containing today's date. Only the date of today is used;
// the offset in effect on that Sunday applies.
func StartOfWeekUTC(today time.Time, loc *time.Location) time.Time {
	y, m, d := today.Date()
	diff := int(time.Sunday) - int(today.Weekday())
	return time.Date(y, m, d+diff, 0, 0, 0, 0, loc).UTC()
}

// NewWeekWindow returns the week containing now, as seen in zone.
func NewWeekWindow(now time.Time, zone string) (domain.WeekWindow, error) {
	loc, err := ResolveTimeZone(zone)
	if err != nil {
		return domain.WeekWindow{}, err
	}

	start := StartOfWeekUTC(now.In(loc), loc)
	return domain.WeekWindow{
		Start:    start,
		End:      start.AddDate(0, 0, daysPerWeek),
		Location: loc,
	}, nil
}
