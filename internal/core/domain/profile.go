package domain

import "time"

// DefaultProfilePhoto is the photo used when the account has no profile photo.
const DefaultProfilePhoto = "/img/no-profile-photo.png"

// UserProfile holds the profile attributes captured once at sign-in.
type UserProfile struct {
	DisplayName string
	Email       string
	// Photo is a data URL or DefaultProfilePhoto.
	Photo string
	// TimeZone is the mailbox time zone, IANA or Windows name.
	TimeZone string
	// TimeFormat is the mailbox time format in .NET notation (e.g. "h:mm tt").
	TimeFormat string
}

// GraphUser is the subset of the remote user resource read at sign-in.
type GraphUser struct {
	DisplayName       string
	Mail              string
	UserPrincipalName string
	TimeZone          string
	TimeFormat        string
}

// Email returns the mail address, falling back to the user principal name.
func (u *GraphUser) Email() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

// Photo is raw profile photo content.
type Photo struct {
	Data        []byte
	ContentType string
}

// OAuthToken holds OAuth tokens for a session.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

// Session is the immutable per-user context created at sign-in.
// Profile values never change for the lifetime of the session.
type Session struct {
	ID        string
	Profile   UserProfile
	Token     OAuthToken
	CSRFToken string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has expired at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthState is a pending sign-in started by BeginSignIn.
type AuthState struct {
	State     string
	Verifier  string
	ReturnTo  string
	CreatedAt time.Time
}
