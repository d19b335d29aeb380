package services

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

// DefaultTimeLayout is used when the mailbox has no time format.
const DefaultTimeLayout = "3:04 PM"

// BuildWeekView groups events into seven day columns starting on the window's
// Sunday, by the local date of each event's start. Events that started before
// the window land on its first day.
func BuildWeekView(window domain.WeekWindow, events []domain.CalendarEvent, timeFormat string) *domain.WeekView {
	loc := window.Location
	if loc == nil {
		loc = time.UTC
	}
	first := window.LocalStart()

	view := &domain.WeekView{
		Start: first,
		End:   window.End.In(loc),
		Days:  make([]domain.DayView, daysPerWeek),
	}
	for i := range view.Days {
		view.Days[i].Date = time.Date(first.Year(), first.Month(), first.Day()+i, 0, 0, 0, 0, loc)
	}

	for _, ev := range events {
		start := localTime(ev.Start, loc)
		end := localTime(ev.End, loc)

		idx := dayIndex(first, start)
		if idx < 0 {
			idx = 0
		}
		if idx >= daysPerWeek {
			continue
		}

		view.Days[idx].Events = append(view.Days[idx].Events, domain.EventView{
			Subject:   ev.Subject,
			Organizer: ev.Organizer,
			Start:     start,
			End:       end,
			StartText: FormatClock(start, timeFormat),
			EndText:   FormatClock(end, timeFormat),
		})
	}

	for i := range view.Days {
		sort.SliceStable(view.Days[i].Events, func(a, b int) bool {
			return view.Days[i].Events[a].Start.Before(view.Days[i].Events[b].Start)
		})
	}

	return view
}

// localTime interprets a floating date-time in its own zone, when known,
// and converts it to loc.
func localTime(f domain.FloatingDateTime, loc *time.Location) time.Time {
	if f.IsZero() {
		return time.Time{}
	}
	if f.Zone != "" {
		if zoneLoc, err := ResolveTimeZone(f.Zone); err == nil {
			return f.In(zoneLoc).In(loc)
		}
	}
	return f.In(loc)
}

// dayIndex returns the number of calendar days from first to t.
func dayIndex(first, t time.Time) int {
	a := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// FormatClock formats the time of day of t with a .NET time format such as
// "h:mm tt". A single t writes "A" or "P" and a single H is unpadded.
// Other characters are copied literally; an empty format uses DefaultTimeLayout.
func FormatClock(t time.Time, format string) string {
	if strings.TrimSpace(format) == "" {
		return t.Format(DefaultTimeLayout)
	}

	var b strings.Builder
	for i := 0; i < len(format); {
		c := format[i]
		n := 1
		for i+n < len(format) && format[i+n] == c {
			n++
		}
		i += n

		switch c {
		case 'h':
			hour := t.Hour() % 12
			if hour == 0 {
				hour = 12
			}
			writeClockField(&b, hour, n)
		case 'H':
			writeClockField(&b, t.Hour(), n)
		case 'm':
			writeClockField(&b, t.Minute(), n)
		case 's':
			writeClockField(&b, t.Second(), n)
		case 't':
			designator := "AM"
			if t.Hour() >= 12 {
				designator = "PM"
			}
			if n == 1 {
				designator = designator[:1]
			}
			b.WriteString(designator)
		default:
			b.WriteString(strings.Repeat(string(c), n))
		}
	}
	return b.String()
}

func writeClockField(b *strings.Builder, value, width int) {
	if width > 1 && value < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(value))
}
