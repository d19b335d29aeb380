package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFloatingDateTime_KeepsWallClock(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	f := NewFloatingDateTime(time.Date(2024, 3, 13, 9, 30, 0, 0, tokyo), "Tokyo Standard Time")

	assert.Equal(t, "2024-03-13T09:30:00.0000000", f.String())
	assert.Equal(t, "Tokyo Standard Time", f.Zone)
}

func TestParseFloatingDateTime(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "seven fractional digits", value: "2024-03-10T09:00:00.0000000", expected: "2024-03-10T09:00:00.0000000"},
		{name: "no fraction", value: "2024-03-10T09:00:00", expected: "2024-03-10T09:00:00.0000000"},
		{name: "partial fraction", value: "2024-03-10T09:00:00.5", expected: "2024-03-10T09:00:00.5000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFloatingDateTime(tt.value, "UTC")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f.String())
		})
	}
}

func TestParseFloatingDateTime_Invalid(t *testing.T) {
	_, err := ParseFloatingDateTime("not a date", "UTC")
	assert.Error(t, err)
}

func TestFloatingDateTime_In(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	f, err := ParseFloatingDateTime("2024-03-10T09:00:00", "Eastern Standard Time")
	require.NoError(t, err)

	instant := f.In(ny)
	assert.Equal(t, time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC), instant.UTC())
}

func TestServiceError(t *testing.T) {
	svcErr := &ServiceError{StatusCode: 404, Code: "ErrorItemNotFound", Message: "The photo wasn't found."}

	assert.Equal(t, "The photo wasn't found.", svcErr.Error())
	assert.True(t, svcErr.IsMatch("erroritemnotfound"))
	assert.False(t, svcErr.IsMatch("ConsumerPhotoIsNotSupported"))

	got, ok := AsServiceError(svcErr)
	require.True(t, ok)
	assert.Same(t, svcErr, got)
}

func TestServiceError_UnwrapsCause(t *testing.T) {
	svcErr := &ServiceError{StatusCode: 401, Cause: ErrAuthChallenge}

	assert.ErrorIs(t, svcErr, ErrAuthChallenge)
	assert.Equal(t, ErrAuthChallenge.Error(), svcErr.Error())
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
	assert.False(t, (&Session{}).Expired(now))
}

func TestGraphUser_Email(t *testing.T) {
	assert.Equal(t, "user@example.com", (&GraphUser{Mail: "user@example.com", UserPrincipalName: "upn"}).Email())
	assert.Equal(t, "upn@tenant.onmicrosoft.com", (&GraphUser{UserPrincipalName: "upn@tenant.onmicrosoft.com"}).Email())
}
