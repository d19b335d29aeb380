package microsoft

import (
	"context"
	"net/http"
	"net/url"

	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ProfileClient = (*ProfileService)(nil)

// UserInfo contains the signed-in user's profile from Microsoft Graph.
type UserInfo struct {
	ID                string          `json:"id"`
	DisplayName       string          `json:"displayName"`
	Mail              string          `json:"mail"`
	UserPrincipalName string          `json:"userPrincipalName"`
	MailboxSettings   MailboxSettings `json:"mailboxSettings"`
}

// MailboxSettings holds the regional settings used to render the calendar.
type MailboxSettings struct {
	TimeZone   string `json:"timeZone"`
	TimeFormat string `json:"timeFormat"`
}

// GetUserEmail returns the user's email address.
// Falls back to userPrincipalName if mail is not set.
func (u *UserInfo) GetUserEmail() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

// userSelect is the projection requested from /me.
const userSelect = "displayName,mail,userPrincipalName,mailboxSettings"

// ProfileService reads the signed-in user's profile and photo.
type ProfileService struct {
	client    *Client
	photoSize string
}

// NewProfileService creates a profile reader. photoSize selects a photo
// rendition such as "48x48"; empty reads the full-size photo.
func NewProfileService(client *Client, photoSize string) *ProfileService {
	return &ProfileService{client: client, photoSize: photoSize}
}

// GetProfile fetches the user's identity and mailbox settings.
func (s *ProfileService) GetProfile(ctx context.Context, tp driven.TokenProvider) (*domain.GraphUser, error) {
	resp, err := s.client.Do(ctx, tp, &Request{
		Method: http.MethodGet,
		URL:    "/me",
		Query:  url.Values{"$select": {userSelect}},
	})
	if err != nil {
		return nil, err
	}

	var info UserInfo
	if err := resp.Decode(&info); err != nil {
		return nil, err
	}

	return &domain.GraphUser{
		DisplayName:       info.DisplayName,
		Mail:              info.Mail,
		UserPrincipalName: info.UserPrincipalName,
		TimeZone:          info.MailboxSettings.TimeZone,
		TimeFormat:        info.MailboxSettings.TimeFormat,
	}, nil
}

// GetPhoto fetches the user's profile photo content.
// Accounts without a photo fail with a service error coded ErrorItemNotFound
// or ConsumerPhotoIsNotSupported.
func (s *ProfileService) GetPhoto(ctx context.Context, tp driven.TokenProvider) (*domain.Photo, error) {
	path := "/me/photo/$value"
	if s.photoSize != "" {
		path = "/me/photos/" + url.PathEscape(s.photoSize) + "/$value"
	}

	resp, err := s.client.Do(ctx, tp, &Request{Method: http.MethodGet, URL: path})
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(resp.Body)
	}

	return &domain.Photo{Data: resp.Body, ContentType: contentType}, nil
}
