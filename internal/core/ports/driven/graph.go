package driven

import (
	"context"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

// TokenProvider supplies access tokens for remote API calls.
type TokenProvider interface {
	// GetToken returns a valid access token, refreshing it if needed.
	// Returns domain.ErrAuthChallenge when the user must sign in again.
	GetToken(ctx context.Context) (string, error)
}

// TokenProviderFactory creates token providers bound to a session.
type TokenProviderFactory interface {
	ForSession(sess *domain.Session) TokenProvider
}

// CalendarClient reads and writes calendar events on the remote API.
type CalendarClient interface {
	// CalendarViewPage fetches one page of a calendar view.
	// An empty nextLink requests the first page built from query.
	CalendarViewPage(
		ctx context.Context, tp TokenProvider, query domain.CalendarViewQuery, nextLink string,
	) (*domain.EventPage, error)

	// CreateEvent submits a new event to the user's default calendar.
	CreateEvent(ctx context.Context, tp TokenProvider, draft *domain.EventDraft) error
}

// ProfileClient reads the signed-in user's profile.
type ProfileClient interface {
	GetProfile(ctx context.Context, tp TokenProvider) (*domain.GraphUser, error)
	GetPhoto(ctx context.Context, tp TokenProvider) (*domain.Photo, error)
}

// OAuthClient performs the authorization code flow.
type OAuthClient interface {
	// AuthCodeURL builds the authorization URL for state and PKCE verifier.
	AuthCodeURL(state, verifier string) string
	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code, verifier string) (*domain.OAuthToken, error)
}
