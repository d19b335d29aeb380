package microsoft

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

func TestNewOAuthHandler_DefaultEndpoint(t *testing.T) {
	handler := NewOAuthHandler(OAuthConfig{ClientID: "client"})

	cfg := handler.Config()
	assert.Equal(t, "https://login.microsoftonline.com/common/oauth2/v2.0/authorize", cfg.Endpoint.AuthURL)
	assert.Equal(t, "https://login.microsoftonline.com/common/oauth2/v2.0/token", cfg.Endpoint.TokenURL)
	assert.Equal(t, defaultScopes, cfg.Scopes)
	assert.Contains(t, cfg.Scopes, "offline_access")
}

func TestNewOAuthHandler_TenantAndInstance(t *testing.T) {
	tests := []struct {
		name     string
		cfg      OAuthConfig
		authURL  string
		tokenURL string
	}{
		{
			name:     "tenant",
			cfg:      OAuthConfig{TenantID: "contoso.onmicrosoft.com"},
			authURL:  "https://login.microsoftonline.com/contoso.onmicrosoft.com/oauth2/v2.0/authorize",
			tokenURL: "https://login.microsoftonline.com/contoso.onmicrosoft.com/oauth2/v2.0/token",
		},
		{
			name:     "default instance",
			cfg:      OAuthConfig{Instance: DefaultInstance, TenantID: "organizations"},
			authURL:  "https://login.microsoftonline.com/organizations/oauth2/v2.0/authorize",
			tokenURL: "https://login.microsoftonline.com/organizations/oauth2/v2.0/token",
		},
		{
			name:     "sovereign cloud",
			cfg:      OAuthConfig{Instance: "https://login.microsoftonline.us/", TenantID: "common"},
			authURL:  "https://login.microsoftonline.us/common/oauth2/v2.0/authorize",
			tokenURL: "https://login.microsoftonline.us/common/oauth2/v2.0/token",
		},
		{
			name:     "explicit overrides",
			cfg:      OAuthConfig{AuthURL: "http://idp/authorize", TokenURL: "http://idp/token"},
			authURL:  "http://idp/authorize",
			tokenURL: "http://idp/token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := NewOAuthHandler(tt.cfg).Config().Endpoint
			assert.Equal(t, tt.authURL, endpoint.AuthURL)
			assert.Equal(t, tt.tokenURL, endpoint.TokenURL)
			assert.Equal(t, oauth2.AuthStyleInParams, endpoint.AuthStyle)
		})
	}
}

func TestOAuthHandler_AuthCodeURL(t *testing.T) {
	handler := NewOAuthHandler(OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost:5000/signin-oidc",
		Scopes:      []string{"openid", "offline_access", "User.Read"},
		Prompt:      "select_account",
	})
	verifier := oauth2.GenerateVerifier()

	raw := handler.AuthCodeURL("test-state", verifier)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "login.microsoftonline.com", u.Host)
	assert.Equal(t, "test-client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:5000/signin-oidc", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid offline_access User.Read", q.Get("scope"))
	assert.Equal(t, "test-state", q.Get("state"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "query", q.Get("response_mode"))
	assert.Equal(t, "select_account", q.Get("prompt"))
}

func TestOAuthHandler_AuthCodeURL_NoPrompt(t *testing.T) {
	handler := NewOAuthHandler(OAuthConfig{ClientID: "c"})

	u, err := url.Parse(handler.AuthCodeURL("s", oauth2.GenerateVerifier()))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("prompt"))
}

func TestOAuthHandler_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		assert.Equal(t, "the-verifier", r.PostForm.Get("code_verifier"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	handler := NewOAuthHandler(OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     srv.URL,
	})

	tok, err := handler.Exchange(context.Background(), "auth-code", "the-verifier")
	require.NoError(t, err)

	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, time.Minute)
}

func TestOAuthHandler_Exchange_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"AADSTS70008: code expired"}`)
	}))
	defer srv.Close()

	handler := NewOAuthHandler(OAuthConfig{ClientID: "client", TokenURL: srv.URL})

	_, err := handler.Exchange(context.Background(), "stale", "v")

	require.Error(t, err)
	assert.True(t, IsInvalidGrant(err))
}

func TestOAuthHandler_TokenSource_Refreshes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	handler := NewOAuthHandler(OAuthConfig{ClientID: "client", TokenURL: srv.URL})
	stale := &domain.OAuthToken{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		Expiry:       time.Now().Add(-time.Minute),
	}

	tok, err := handler.TokenSource(context.Background(), stale).Token()
	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)
	assert.Equal(t, "new-refresh", tok.RefreshToken)
}

func TestIsInvalidGrant(t *testing.T) {
	assert.False(t, IsInvalidGrant(assert.AnError))
	assert.True(t, IsInvalidGrant(&oauth2.RetrieveError{ErrorCode: "invalid_grant"}))
	assert.True(t, IsInvalidGrant(&oauth2.RetrieveError{ErrorCode: "interaction_required"}))
	assert.True(t, IsInvalidGrant(&oauth2.RetrieveError{Response: &http.Response{StatusCode: 401}}))
	assert.False(t, IsInvalidGrant(&oauth2.RetrieveError{Response: &http.Response{StatusCode: 500}}))
}

func TestTokenConversion(t *testing.T) {
	expiry := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tok := &domain.OAuthToken{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: expiry}

	assert.Equal(t, tok, FromOAuth2Token(ToOAuth2Token(tok)))
	assert.Nil(t, ToOAuth2Token(nil))
	assert.Nil(t, FromOAuth2Token(nil))
}
