// Package microsoft provides Microsoft identity platform sign-in and
// Microsoft Graph access for graphcal.
//
// This package provides:
//   - OAuth2 authorization code flow with PKCE (golang.org/x/oauth2)
//   - An authenticated Graph HTTP client with rate limiting
//   - Error parsing for the Graph error envelope
//   - Profile and profile photo reads
//
// Endpoints use the configured tenant; "common" allows both personal
// Microsoft accounts and Azure AD accounts.
//
// # OAuth2 Flow
//
//   - Auth URL: https://login.microsoftonline.com/{tenant}/oauth2/v2.0/authorize
//   - Token URL: https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token
//
// The "offline_access" scope is required for refresh tokens.
//
// # Errors
//
// Graph returns errors as {"error":{"code":"...","message":"..."}}. They are
// surfaced as *domain.ServiceError. A 401 also matches domain.ErrAuthChallenge
// so callers can send the user back through sign-in.
//
// # Rate Limits
//
// Microsoft Graph allows approximately 10,000 requests per 10 minutes per app.
// Requests wait on a token bucket, and a 429 response pauses further requests
// for the Retry-After period. Requests are never retried automatically.
package microsoft
