package sqlite

import (
	"time"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

type session struct {
	ID           string `db:"id"`
	DisplayName  string `db:"display_name"`
	Email        string `db:"email"`
	Photo        string `db:"photo"`
	TimeZone     string `db:"time_zone"`
	TimeFormat   string `db:"time_format"`
	AccessToken  string `db:"access_token"`
	RefreshToken string `db:"refresh_token"`
	TokenType    string `db:"token_type"`
	TokenExpiry  int64  `db:"token_expiry"`
	CSRFToken    string `db:"csrf_token"`
	CreatedAt    int64  `db:"created_at"`
	ExpiresAt    int64  `db:"expires_at"`
}

func newSession(s *domain.Session) session {
	return session{
		ID:           s.ID,
		DisplayName:  s.Profile.DisplayName,
		Email:        s.Profile.Email,
		Photo:        s.Profile.Photo,
		TimeZone:     s.Profile.TimeZone,
		TimeFormat:   s.Profile.TimeFormat,
		AccessToken:  s.Token.AccessToken,
		RefreshToken: s.Token.RefreshToken,
		TokenType:    s.Token.TokenType,
		TokenExpiry:  toUnix(s.Token.Expiry),
		CSRFToken:    s.CSRFToken,
		CreatedAt:    toUnix(s.CreatedAt),
		ExpiresAt:    toUnix(s.ExpiresAt),
	}
}

func (s session) Convert() *domain.Session {
	return &domain.Session{
		ID: s.ID,
		Profile: domain.UserProfile{
			DisplayName: s.DisplayName,
			Email:       s.Email,
			Photo:       s.Photo,
			TimeZone:    s.TimeZone,
			TimeFormat:  s.TimeFormat,
		},
		Token: domain.OAuthToken{
			AccessToken:  s.AccessToken,
			RefreshToken: s.RefreshToken,
			TokenType:    s.TokenType,
			Expiry:       fromUnix(s.TokenExpiry),
		},
		CSRFToken: s.CSRFToken,
		CreatedAt: fromUnix(s.CreatedAt),
		ExpiresAt: fromUnix(s.ExpiresAt),
	}
}

type authState struct {
	State     string `db:"state"`
	Verifier  string `db:"verifier"`
	ReturnTo  string `db:"return_to"`
	CreatedAt int64  `db:"created_at"`
}

func (a authState) Convert() *domain.AuthState {
	return &domain.AuthState{
		State:     a.State,
		Verifier:  a.Verifier,
		ReturnTo:  a.ReturnTo,
		CreatedAt: fromUnix(a.CreatedAt),
	}
}

// toUnix stores instants as unix nanoseconds; the zero time is 0.
func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
