package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

// CalendarService serves the calendar pages.
type CalendarService interface {
	// WeekView fetches and lays out the current week in the session's time zone.
	WeekView(ctx context.Context, sess *domain.Session, now time.Time) (*domain.WeekView, error)

	// CreateEvent submits a new event in the session's time zone.
	CreateEvent(ctx context.Context, sess *domain.Session, req *domain.NewEventRequest) error
}

// SignInService manages the sign-in lifecycle.
type SignInService interface {
	// BeginSignIn returns the authorization URL to redirect the user to.
	BeginSignIn(ctx context.Context, returnTo string) (string, error)

	// CompleteSignIn finishes the callback and creates the session.
	// Returns the session and the path the user started from.
	CompleteSignIn(ctx context.Context, state, code string) (*domain.Session, string, error)

	// Session loads an active session.
	Session(ctx context.Context, id string) (*domain.Session, error)

	// SignOut removes a session.
	SignOut(ctx context.Context, id string) error

	// PruneExpired removes expired sessions and stale sign-in states.
	PruneExpired(ctx context.Context) error
}
