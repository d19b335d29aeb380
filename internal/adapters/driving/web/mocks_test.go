package web

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

type mockCalendar struct {
	mu        sync.Mutex
	week      *domain.WeekView
	weekErr   error
	createErr error
	created   []*domain.NewEventRequest
}

func (m *mockCalendar) WeekView(_ context.Context, _ *domain.Session, _ time.Time) (*domain.WeekView, error) {
	if m.weekErr != nil {
		return nil, m.weekErr
	}
	return m.week, nil
}

func (m *mockCalendar) CreateEvent(_ context.Context, _ *domain.Session, req *domain.NewEventRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, req)
	return m.createErr
}

type mockSignIn struct {
	mu             sync.Mutex
	sessions       map[string]*domain.Session
	beginURL       string
	beginErr       error
	gotReturnTo    string
	completeSess   *domain.Session
	completeReturn string
	completeErr    error
	signedOut      []string
	pruned         int
}

func newMockSignIn() *mockSignIn {
	return &mockSignIn{sessions: make(map[string]*domain.Session)}
}

func (m *mockSignIn) BeginSignIn(_ context.Context, returnTo string) (string, error) {
	m.gotReturnTo = returnTo
	return m.beginURL, m.beginErr
}

func (m *mockSignIn) CompleteSignIn(_ context.Context, _, _ string) (*domain.Session, string, error) {
	if m.completeErr != nil {
		return nil, "", m.completeErr
	}
	return m.completeSess, m.completeReturn, nil
}

func (m *mockSignIn) Session(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (m *mockSignIn) SignOut(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signedOut = append(m.signedOut, id)
	delete(m.sessions, id)
	return nil
}

func (m *mockSignIn) PruneExpired(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned++
	return nil
}

func (m *mockSignIn) prunedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruned
}
