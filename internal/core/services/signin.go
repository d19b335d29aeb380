package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
	"github.com/custodia-labs/graphcal/internal/core/ports/driving"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// AuthStateTTL bounds how long a started sign-in can be completed.
const AuthStateTTL = 10 * time.Minute

// DefaultSessionTTL is used when no session lifetime is configured.
const DefaultSessionTTL = 8 * time.Hour

// SignInService runs the sign-in lifecycle and owns sessions.
type SignInService struct {
	oauth      driven.OAuthClient
	store      driven.SessionStore
	enricher   *ProfileEnricher
	sessionTTL time.Duration
	now        func() time.Time
}

// Ensure SignInService implements the interface.
var _ driving.SignInService = (*SignInService)(nil)

// NewSignInService creates a SignInService.
func NewSignInService(
	oauth driven.OAuthClient,
	store driven.SessionStore,
	enricher *ProfileEnricher,
	sessionTTL time.Duration,
) *SignInService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &SignInService{
		oauth:      oauth,
		store:      store,
		enricher:   enricher,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// BeginSignIn records a new sign-in state with a PKCE verifier and returns
// the authorization URL.
func (s *SignInService) BeginSignIn(ctx context.Context, returnTo string) (string, error) {
	state := &domain.AuthState{
		State:     uuid.NewString(),
		Verifier:  oauth2.GenerateVerifier(),
		ReturnTo:  SanitizeReturnTo(returnTo),
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.SaveAuthState(ctx, state); err != nil {
		return "", fmt.Errorf("save sign-in state: %w", err)
	}

	return s.oauth.AuthCodeURL(state.State, state.Verifier), nil
}

// CompleteSignIn consumes the sign-in state, exchanges the code and creates
// a session with the user's profile.
func (s *SignInService) CompleteSignIn(
	ctx context.Context, state, code string,
) (*domain.Session, string, error) {
	if state == "" || code == "" {
		return nil, "", fmt.Errorf("%w: missing state or code", domain.ErrInvalidInput)
	}

	pending, err := s.store.TakeAuthState(ctx, state)
	if err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	if now.Sub(pending.CreatedAt) > AuthStateTTL {
		return nil, "", fmt.Errorf("%w: expired", domain.ErrAuthStateNotFound)
	}

	token, err := s.oauth.Exchange(ctx, code, pending.Verifier)
	if err != nil {
		return nil, "", err
	}

	profile, err := s.enricher.Enrich(ctx, staticTokenProvider(token.AccessToken))
	if err != nil {
		logger.Warn("signin: profile enrichment failed: %v", err)
		return nil, "", err
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		Profile:   profile,
		Token:     *token,
		CSRFToken: uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}

	logger.Info("signin: %s signed in", profile.Email)
	return sess, pending.ReturnTo, nil
}

// Session loads an active session.
func (s *SignInService) Session(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// SignOut removes a session. Unknown ids are not an error.
func (s *SignInService) SignOut(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := s.store.DeleteSession(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	return err
}

// PruneExpired removes expired sessions and abandoned sign-in states.
func (s *SignInService) PruneExpired(ctx context.Context) error {
	now := s.now().UTC()

	sessions, err := s.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	states, err := s.store.DeleteAuthStatesBefore(ctx, now.Add(-AuthStateTTL))
	if err != nil {
		return fmt.Errorf("prune sign-in states: %w", err)
	}

	if sessions > 0 || states > 0 {
		logger.Debug("signin: pruned %d sessions and %d sign-in states", sessions, states)
	}
	return nil
}

// SanitizeReturnTo keeps only local absolute paths, defaulting to "/".
func SanitizeReturnTo(returnTo string) string {
	if !strings.HasPrefix(returnTo, "/") ||
		strings.HasPrefix(returnTo, "//") ||
		strings.HasPrefix(returnTo, "/\\") {
		return "/"
	}
	return returnTo
}

// staticTokenProvider serves a freshly exchanged access token.
type staticTokenProvider string

func (p staticTokenProvider) GetToken(_ context.Context) (string, error) {
	if p == "" {
		return "", domain.ErrAuthChallenge
	}
	return string(p), nil
}
