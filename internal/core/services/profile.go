package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// Graph error codes meaning the account has no profile photo.
const (
	codeItemNotFound                = "ErrorItemNotFound"
	codeConsumerPhotoIsNotSupported = "ConsumerPhotoIsNotSupported"
)

// defaultPhotoType is used when the photo response has no content type.
const defaultPhotoType = "image/png"

// defaultProfileZone is used when the mailbox reports no time zone.
const defaultProfileZone = "UTC"

// ProfileEnricher reads the profile attributes stored on a new session.
type ProfileEnricher struct {
	profiles driven.ProfileClient
}

// NewProfileEnricher creates a ProfileEnricher.
func NewProfileEnricher(profiles driven.ProfileClient) *ProfileEnricher {
	return &ProfileEnricher{profiles: profiles}
}

// Enrich reads the user's identity, mailbox settings and photo.
// A missing photo falls back to domain.DefaultProfilePhoto; any other failure
// is returned.
func (e *ProfileEnricher) Enrich(ctx context.Context, tp driven.TokenProvider) (domain.UserProfile, error) {
	user, err := e.profiles.GetProfile(ctx, tp)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}

	profile := domain.UserProfile{
		DisplayName: user.DisplayName,
		Email:       user.Email(),
		TimeZone:    user.TimeZone,
		TimeFormat:  user.TimeFormat,
	}
	if profile.TimeZone == "" {
		profile.TimeZone = defaultProfileZone
	}

	photo, err := e.profiles.GetPhoto(ctx, tp)
	switch {
	case err == nil:
		profile.Photo = PhotoDataURL(photo)
	case photoUnavailable(err):
		logger.Debug("profile: no photo for %s, using placeholder", profile.Email)
		profile.Photo = domain.DefaultProfilePhoto
	default:
		return domain.UserProfile{}, fmt.Errorf("get photo: %w", err)
	}

	return profile, nil
}

// PhotoDataURL encodes photo content as a data URL.
func PhotoDataURL(photo *domain.Photo) string {
	if photo == nil || len(photo.Data) == 0 {
		return domain.DefaultProfilePhoto
	}
	contentType := photo.ContentType
	if contentType == "" {
		contentType = defaultPhotoType
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(photo.Data)
}

func photoUnavailable(err error) bool {
	svcErr, ok := domain.AsServiceError(err)
	if !ok {
		return false
	}
	return svcErr.IsMatch(codeItemNotFound) || svcErr.IsMatch(codeConsumerPhotoIsNotSupported)
}
