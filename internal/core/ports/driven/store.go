package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

// SessionStore persists sessions and pending sign-in states.
type SessionStore interface {
	SaveSession(ctx context.Context, sess *domain.Session) error
	// GetSession returns domain.ErrSessionNotFound for unknown ids.
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	UpdateToken(ctx context.Context, id string, token *domain.OAuthToken) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	SaveAuthState(ctx context.Context, state *domain.AuthState) error
	// TakeAuthState returns and removes a state; domain.ErrAuthStateNotFound if absent.
	TakeAuthState(ctx context.Context, state string) (*domain.AuthState, error)
	DeleteAuthStatesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
