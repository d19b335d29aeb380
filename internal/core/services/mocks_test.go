package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
)

// mockTokenProvider implements driven.TokenProvider for testing.
type mockTokenProvider struct{}

func (p *mockTokenProvider) GetToken(_ context.Context) (string, error) { return "token", nil }

// mockTokenFactory implements driven.TokenProviderFactory for testing.
type mockTokenFactory struct{}

func (f *mockTokenFactory) ForSession(_ *domain.Session) driven.TokenProvider {
	return &mockTokenProvider{}
}

// mockCalendarClient serves pages keyed by next link ("" is the first page).
type mockCalendarClient struct {
	pages     map[string]*domain.EventPage
	pageErr   error
	createErr error

	queries []domain.CalendarViewQuery
	links   []string
	created []*domain.EventDraft
	mu      sync.Mutex
}

func (m *mockCalendarClient) CalendarViewPage(
	_ context.Context, _ driven.TokenProvider, query domain.CalendarViewQuery, nextLink string,
) (*domain.EventPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	m.links = append(m.links, nextLink)
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	page, ok := m.pages[nextLink]
	if !ok {
		return &domain.EventPage{}, nil
	}
	return page, nil
}

func (m *mockCalendarClient) CreateEvent(_ context.Context, _ driven.TokenProvider, draft *domain.EventDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, draft)
	return m.createErr
}

// mockProfileClient implements driven.ProfileClient for testing.
type mockProfileClient struct {
	user       *domain.GraphUser
	profileErr error
	photo      *domain.Photo
	photoErr   error
}

func (m *mockProfileClient) GetProfile(_ context.Context, _ driven.TokenProvider) (*domain.GraphUser, error) {
	return m.user, m.profileErr
}

func (m *mockProfileClient) GetPhoto(_ context.Context, _ driven.TokenProvider) (*domain.Photo, error) {
	return m.photo, m.photoErr
}

// mockOAuthClient implements driven.OAuthClient for testing.
type mockOAuthClient struct {
	token       *domain.OAuthToken
	exchangeErr error

	gotCode     string
	gotVerifier string
}

func (m *mockOAuthClient) AuthCodeURL(state, verifier string) string {
	return "https://login.example.com/authorize?state=" + state + "&verifier=" + verifier
}

func (m *mockOAuthClient) Exchange(_ context.Context, code, verifier string) (*domain.OAuthToken, error) {
	m.gotCode = code
	m.gotVerifier = verifier
	return m.token, m.exchangeErr
}

// memStore is an in-memory driven.SessionStore.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	states   map[string]domain.AuthState
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]domain.Session),
		states:   make(map[string]domain.AuthState),
	}
}

func (s *memStore) SaveSession(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *memStore) UpdateToken(_ context.Context, id string, token *domain.OAuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Token = *token
	s.sessions[id] = sess
	return nil
}

func (s *memStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *memStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) SaveAuthState(_ context.Context, state *domain.AuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.State] = *state
	return nil
}

func (s *memStore) TakeAuthState(_ context.Context, state string) (*domain.AuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[state]
	if !ok {
		return nil, domain.ErrAuthStateNotFound
	}
	delete(s.states, state)
	return &st, nil
}

func (s *memStore) DeleteAuthStatesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, st := range s.states {
		if st.CreatedAt.Before(cutoff) {
			delete(s.states, k)
			n++
		}
	}
	return n, nil
}
