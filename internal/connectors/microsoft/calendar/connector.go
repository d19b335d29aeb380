package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/graphcal/internal/connectors/microsoft"
	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.CalendarClient = (*Connector)(nil)

// queryTimeLayout formats calendar view bounds as UTC instants.
const queryTimeLayout = "2006-01-02T15:04:05Z"

// Connector reads and creates events in the user's Microsoft calendar via Microsoft Graph.
type Connector struct {
	client *microsoft.Client
	config *Config
}

// New creates a new Microsoft Calendar connector.
func New(client *microsoft.Client, cfg *Config) *Connector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Connector{client: client, config: cfg}
}

// CalendarViewPage fetches one page of the user's calendar view.
// An empty nextLink requests the first page; otherwise nextLink is followed verbatim.
func (c *Connector) CalendarViewPage(
	ctx context.Context, tp driven.TokenProvider, query domain.CalendarViewQuery, nextLink string,
) (*domain.EventPage, error) {
	query = c.config.Apply(query)

	req := &microsoft.Request{
		Method:   http.MethodGet,
		URL:      nextLink,
		TimeZone: query.TimeZone,
	}
	if nextLink == "" {
		req.URL = "/me/calendarView"
		req.Query = buildViewQuery(query)
	}

	resp, err := c.client.Do(ctx, tp, req)
	if err != nil {
		logger.Debug("microsoft-calendar: calendar view request failed: %v", err)
		return nil, fmt.Errorf("calendar view: %w", err)
	}

	var page eventPage
	if err := resp.Decode(&page); err != nil {
		return nil, fmt.Errorf("calendar view: %w", err)
	}

	events := make([]domain.CalendarEvent, 0, len(page.Value))
	for i := range page.Value {
		event, err := ToCalendarEvent(&page.Value[i], query.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("calendar view: %w", err)
		}
		events = append(events, event)
	}

	logger.Debug("microsoft-calendar: fetched page with %d events, more=%t", len(events), page.NextLink != "")

	return &domain.EventPage{Events: events, NextLink: page.NextLink}, nil
}

// buildViewQuery builds the first-page query parameters.
func buildViewQuery(query domain.CalendarViewQuery) url.Values {
	values := url.Values{
		"startDateTime": {formatInstant(query.Start)},
		"endDateTime":   {formatInstant(query.End)},
		"$top":          {strconv.Itoa(query.PageSize)},
	}
	if len(query.Select) > 0 {
		values.Set("$select", strings.Join(query.Select, ","))
	}
	if query.OrderBy != "" {
		values.Set("$orderby", query.OrderBy)
	}
	return values
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(queryTimeLayout)
}

// CreateEvent creates an event in the user's default calendar.
func (c *Connector) CreateEvent(ctx context.Context, tp driven.TokenProvider, draft *domain.EventDraft) error {
	_, err := c.client.Do(ctx, tp, &microsoft.Request{
		Method: http.MethodPost,
		URL:    "/me/events",
		Body:   NewEventPayload(draft),
	})
	if err != nil {
		logger.Debug("microsoft-calendar: create event failed: %v", err)
		return fmt.Errorf("create event: %w", err)
	}

	logger.Debug("microsoft-calendar: created event %q with %d attendees", draft.Subject, len(draft.Attendees))
	return nil
}
