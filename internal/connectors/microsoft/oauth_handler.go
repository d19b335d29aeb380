package microsoft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.OAuthClient = (*OAuthHandler)(nil)

// DefaultInstance is the public cloud identity endpoint.
const DefaultInstance = "https://login.microsoftonline.com/"

// OAuthConfig configures the Microsoft identity platform app registration.
type OAuthConfig struct {
	// Instance is the identity authority host; empty means DefaultInstance.
	Instance string
	// TenantID is a tenant GUID, domain, "common", "organizations" or "consumers".
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// Prompt is sent as the prompt parameter, e.g. "select_account".
	Prompt string

	// AuthURL and TokenURL override the endpoints derived from Instance and TenantID.
	AuthURL  string
	TokenURL string
}

// OAuthHandler implements the authorization code flow with PKCE for Microsoft.
// Handles Microsoft-specific requirements like offline_access for refresh tokens.
type OAuthHandler struct {
	config *oauth2.Config
	prompt string
}

// NewOAuthHandler creates a Microsoft OAuth handler.
func NewOAuthHandler(cfg OAuthConfig) *OAuthHandler {
	tenant := cfg.TenantID
	if tenant == "" {
		tenant = "common"
	}

	endpoint := microsoft.AzureADEndpoint(tenant)
	if instance := strings.TrimRight(cfg.Instance, "/"); instance != "" && instance+"/" != DefaultInstance {
		endpoint.AuthURL = instance + "/" + tenant + "/oauth2/v2.0/authorize"
		endpoint.TokenURL = instance + "/" + tenant + "/oauth2/v2.0/token"
	}
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	return &OAuthHandler{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		prompt: cfg.Prompt,
	}
}

// defaultScopes are requested when none are configured.
var defaultScopes = []string{
	"openid",
	"profile",
	"offline_access", // Required for refresh tokens
	"User.Read",
	"MailboxSettings.Read",
	"Calendars.ReadWrite",
}

// AuthCodeURL constructs the authorization URL for state with an S256 PKCE challenge.
func (h *OAuthHandler) AuthCodeURL(state, verifier string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(verifier),
		// Microsoft-specific: response_mode=query for easier code extraction
		oauth2.SetAuthURLParam("response_mode", "query"),
	}
	if h.prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", h.prompt))
	}
	return h.config.AuthCodeURL(state, opts...)
}

// Exchange exchanges an authorization code for tokens.
func (h *OAuthHandler) Exchange(ctx context.Context, code, verifier string) (*domain.OAuthToken, error) {
	tok, err := h.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return FromOAuth2Token(tok), nil
}

// TokenSource returns a source that refreshes tok when it expires.
func (h *OAuthHandler) TokenSource(ctx context.Context, tok *domain.OAuthToken) oauth2.TokenSource {
	return h.config.TokenSource(ctx, ToOAuth2Token(tok))
}

// Config returns the underlying OAuth2 configuration.
func (h *OAuthHandler) Config() *oauth2.Config {
	return h.config
}

// IsInvalidGrant reports whether err is a token endpoint rejection that
// requires the user to sign in again.
func IsInvalidGrant(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	return retrieveErr.ErrorCode == "invalid_grant" ||
		retrieveErr.ErrorCode == "interaction_required" ||
		retrieveErr.Response != nil && retrieveErr.Response.StatusCode == 401
}

// ToOAuth2Token converts a stored token for use with golang.org/x/oauth2.
func ToOAuth2Token(tok *domain.OAuthToken) *oauth2.Token {
	if tok == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

// FromOAuth2Token converts a golang.org/x/oauth2 token for storage.
func FromOAuth2Token(tok *oauth2.Token) *domain.OAuthToken {
	if tok == nil {
		return nil
	}
	return &domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}
