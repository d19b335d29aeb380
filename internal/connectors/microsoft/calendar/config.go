package calendar

import "github.com/custodia-labs/graphcal/internal/core/domain"

// DefaultPageSize is the number of events requested per calendar view page.
const DefaultPageSize = 50

// Config holds calendar view defaults.
type Config struct {
	// PageSize is the $top value for calendar view reads.
	PageSize int
	// Select limits the event fields returned.
	Select []string
	// OrderBy is the $orderby sort key.
	OrderBy string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PageSize: DefaultPageSize,
		Select:   []string{"subject", "organizer", "start", "end"},
		OrderBy:  "start/dateTime",
	}
}

// Apply fills the unset fields of query from the configuration.
func (c *Config) Apply(query domain.CalendarViewQuery) domain.CalendarViewQuery {
	if query.PageSize <= 0 {
		query.PageSize = c.PageSize
	}
	if len(query.Select) == 0 {
		query.Select = c.Select
	}
	if query.OrderBy == "" {
		query.OrderBy = c.OrderBy
	}
	return query
}
