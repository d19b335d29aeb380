package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
	"github.com/custodia-labs/graphcal/internal/core/ports/driving"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// Calendar view defaults.
const (
	DefaultPageSize = 50
	defaultOrderBy  = "start/dateTime"
)

// defaultSelect is the event projection read for the week view.
var defaultSelect = []string{"subject", "organizer", "start", "end"}

// ErrRepeatedNextLink indicates the remote API returned a continuation link
// that was already followed.
var ErrRepeatedNextLink = errors.New("calendar view: repeated next link")

// CalendarService fetches the current week and creates events.
type CalendarService struct {
	calendar driven.CalendarClient
	tokens   driven.TokenProviderFactory
	pageSize int
}

// Ensure CalendarService implements the interface.
var _ driving.CalendarService = (*CalendarService)(nil)

// NewCalendarService creates a CalendarService. A non-positive pageSize uses DefaultPageSize.
func NewCalendarService(
	calendar driven.CalendarClient,
	tokens driven.TokenProviderFactory,
	pageSize int,
) *CalendarService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CalendarService{
		calendar: calendar,
		tokens:   tokens,
		pageSize: pageSize,
	}
}

// WeekView fetches the week containing now in the session's time zone and
// groups its events by day.
func (s *CalendarService) WeekView(
	ctx context.Context, sess *domain.Session, now time.Time,
) (*domain.WeekView, error) {
	window, err := NewWeekWindow(now, sess.Profile.TimeZone)
	if err != nil {
		return nil, err
	}

	events, err := s.FetchWeek(ctx, s.tokens.ForSession(sess), window, sess.Profile.TimeZone)
	if err != nil {
		return nil, err
	}

	return BuildWeekView(window, events, sess.Profile.TimeFormat), nil
}

// FetchWeek reads every event in window, following continuation links until
// the remote API reports no more pages. Events are returned in page order.
func (s *CalendarService) FetchWeek(
	ctx context.Context, tp driven.TokenProvider, window domain.WeekWindow, zone string,
) ([]domain.CalendarEvent, error) {
	query := domain.CalendarViewQuery{
		Start:    window.Start,
		End:      window.End,
		TimeZone: zone,
		PageSize: s.pageSize,
		Select:   defaultSelect,
		OrderBy:  defaultOrderBy,
	}

	var events []domain.CalendarEvent
	visited := make(map[string]bool)
	nextLink := ""
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.calendar.CalendarViewPage(ctx, tp, query, nextLink)
		if err != nil {
			return nil, err
		}
		pages++
		events = append(events, page.Events...)

		if page.NextLink == "" {
			break
		}
		if visited[page.NextLink] {
			return nil, fmt.Errorf("%w after %d pages", ErrRepeatedNextLink, pages)
		}
		visited[page.NextLink] = true
		nextLink = page.NextLink
	}

	logger.Debug("calendar: fetched %d events in %d pages for week of %s",
		len(events), pages, window.LocalStart().Format(time.DateOnly))

	return events, nil
}

// CreateEvent creates an event in the session's time zone.
func (s *CalendarService) CreateEvent(ctx context.Context, sess *domain.Session, req *domain.NewEventRequest) error {
	draft := BuildEventDraft(req, sess.Profile.TimeZone)
	if err := s.calendar.CreateEvent(ctx, s.tokens.ForSession(sess), draft); err != nil {
		return err
	}
	logger.Info("calendar: created event for %s", sess.Profile.Email)
	return nil
}

// ParseAttendees splits a semicolon-delimited address list, dropping empty
// segments and duplicates. Address syntax is not checked.
func ParseAttendees(s string) []domain.Attendee {
	var attendees []domain.Attendee
	seen := make(map[string]bool)

	for _, part := range strings.Split(s, ";") {
		addr := strings.TrimSpace(part)
		if addr == "" || seen[strings.ToLower(addr)] {
			continue
		}
		seen[strings.ToLower(addr)] = true
		attendees = append(attendees, domain.Attendee{Address: addr, Type: domain.AttendeeRequired})
	}

	return attendees
}

// BuildEventDraft maps a submitted form to an event draft. Start and end keep
// their wall-clock fields and are paired with zone, not converted to UTC.
func BuildEventDraft(req *domain.NewEventRequest, zone string) *domain.EventDraft {
	return &domain.EventDraft{
		Subject:   req.Subject,
		Start:     domain.NewFloatingDateTime(req.Start, zone),
		End:       domain.NewFloatingDateTime(req.End, zone),
		Body:      req.Body,
		Attendees: ParseAttendees(req.Attendees),
	}
}
