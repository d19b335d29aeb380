package microsoft

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

// mockTokenProvider implements driven.TokenProvider for testing.
type mockTokenProvider struct {
	token string
	err   error
}

func (p *mockTokenProvider) GetToken(_ context.Context) (string, error) {
	return p.token, p.err
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		BaseURL:   srv.URL + "/v1.0",
		Timeout:   5 * time.Second,
		RateLimit: RateLimitConfig{RequestsPerSecond: 100, BurstSize: 100},
	})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(ClientConfig{})

	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.NotNil(t, c.rateLimiter)
}

func TestNewClient_ServiceRateLimits(t *testing.T) {
	profile := NewClient(ClientConfig{Service: ServiceProfile})
	assert.Equal(t, ServiceProfile, profile.rateLimiter.Service())
	assert.Equal(t, DefaultRateLimits[ServiceProfile].BurstSize, profile.rateLimiter.limiter.Burst())

	calendar := NewClient(ClientConfig{Service: ServiceCalendar, RateLimit: RateLimitConfig{BurstSize: 30}})
	assert.Equal(t, 30, calendar.rateLimiter.limiter.Burst())
	assert.InDelta(t, DefaultRateLimits[ServiceCalendar].RequestsPerSecond,
		float64(calendar.rateLimiter.limiter.Limit()), 0.001)
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "https://graph.example.com/v1.0/"})

	assert.Equal(t, "https://graph.example.com/v1.0", c.BaseURL())
}

func TestClient_Do_SendsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me", r.URL.Path)
		assert.Equal(t, "displayName", r.URL.Query().Get("$select"))
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, `outlook.timezone="Eastern Standard Time"`, r.Header.Get("Prefer"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"displayName":"Adele Vance"}`)
	})

	resp, err := c.Do(context.Background(), &mockTokenProvider{token: "access-token"}, &Request{
		URL:      "/me",
		Query:    url.Values{"$select": {"displayName"}},
		TimeZone: "Eastern Standard Time",
	})
	require.NoError(t, err)

	var out struct {
		DisplayName string `json:"displayName"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "Adele Vance", out.DisplayName)
}

func TestClient_Do_EncodesJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"subject":"Standup"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	})

	resp, err := c.Do(context.Background(), &mockTokenProvider{token: "t"}, &Request{
		Method: http.MethodPost,
		URL:    "me/events",
		Body:   map[string]string{"subject": "Standup"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestClient_Do_AbsoluteURLUsedVerbatim(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: "https://graph.invalid/v1.0"})
	next := srv.URL + "/v1.0/me/calendarView?$skip=50&startDateTime=x"

	_, err := c.Do(context.Background(), &mockTokenProvider{token: "t"}, &Request{URL: next})
	require.NoError(t, err)
	assert.Equal(t, "$skip=50&startDateTime=x", gotQuery)
}

func TestClient_Do_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":{"code":"ErrorConflict","message":"Conflict"}}`)
	})

	_, err := c.Do(context.Background(), &mockTokenProvider{token: "t"}, &Request{URL: "/me/events"})

	svcErr, ok := domain.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, svcErr.StatusCode)
	assert.Equal(t, "Conflict", svcErr.Message)
}

func TestClient_Do_RateLimitedRecordsBackoff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Do(context.Background(), &mockTokenProvider{token: "t"}, &Request{URL: "/me"})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.WithinDuration(t, time.Now().Add(7*time.Second), c.rateLimiter.RetryAt(), 2*time.Second)
}

func TestClient_Do_TokenError(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})

	_, err := c.Do(context.Background(), &mockTokenProvider{err: domain.ErrAuthChallenge}, &Request{URL: "/me"})

	assert.ErrorIs(t, err, domain.ErrAuthChallenge)
	assert.False(t, called)
}

func TestClient_Do_EncodeError(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "https://graph.invalid/v1.0"})

	_, err := c.Do(context.Background(), &mockTokenProvider{token: "t"}, &Request{
		Method: http.MethodPost,
		URL:    "/me/events",
		Body:   map[string]any{"bad": make(chan int)},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode request")
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "https://graph.invalid/v1.0"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, &mockTokenProvider{token: "t"}, &Request{URL: "/me"})

	assert.True(t, errors.Is(err, context.Canceled))
}
