// Package auth supplies session-bound access tokens that refresh themselves.
package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/graphcal/internal/connectors/microsoft"
	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// TokenSourceProvider builds refreshing token sources from stored tokens.
// microsoft.OAuthHandler implements it.
type TokenSourceProvider interface {
	TokenSource(ctx context.Context, tok *domain.OAuthToken) oauth2.TokenSource
}

// Factory creates token providers bound to a session.
type Factory struct {
	sources TokenSourceProvider
	store   driven.SessionStore
}

// Ensure Factory implements the interface.
var _ driven.TokenProviderFactory = (*Factory)(nil)

// NewFactory creates a token provider factory.
func NewFactory(sources TokenSourceProvider, store driven.SessionStore) *Factory {
	return &Factory{sources: sources, store: store}
}

// ForSession returns a provider for sess. The session value is not modified;
// refreshed tokens are persisted to the store.
func (f *Factory) ForSession(sess *domain.Session) driven.TokenProvider {
	return &SessionTokenProvider{
		sessionID: sess.ID,
		token:     sess.Token,
		sources:   f.sources,
		store:     f.store,
	}
}

// SessionTokenProvider returns a session's access token, refreshing it when expired.
type SessionTokenProvider struct {
	sessionID string
	sources   TokenSourceProvider
	store     driven.SessionStore

	mu    sync.Mutex
	token domain.OAuthToken
}

// GetToken returns a valid access token.
// Returns domain.ErrAuthChallenge if there is no usable token or the refresh fails.
func (p *SessionTokenProvider) GetToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token.AccessToken == "" && p.token.RefreshToken == "" {
		return "", fmt.Errorf("%w: session has no token", domain.ErrAuthChallenge)
	}

	current := p.token
	tok, err := p.sources.TokenSource(ctx, &current).Token()
	if err != nil {
		if microsoft.IsInvalidGrant(err) {
			logger.Info("auth: refresh token rejected for session, sign-in required")
		} else {
			logger.Warn("auth: token refresh failed: %v", err)
		}
		return "", fmt.Errorf("%w: refresh token: %w", domain.ErrAuthChallenge, err)
	}

	if tok.AccessToken != current.AccessToken {
		refreshed := microsoft.FromOAuth2Token(tok)
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = current.RefreshToken
		}
		p.token = *refreshed
		if err := p.store.UpdateToken(ctx, p.sessionID, refreshed); err != nil {
			// The new token is still usable for this request.
			logger.Warn("auth: persist refreshed token: %v", err)
		} else {
			logger.Debug("auth: refreshed access token, expires %s", refreshed.Expiry)
		}
	}

	return tok.AccessToken, nil
}
