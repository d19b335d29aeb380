package microsoft

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/graphcal/internal/core/domain"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   error
	}{
		{name: "unauthorised", statusCode: http.StatusUnauthorized, expected: ErrUnauthorised},
		{name: "forbidden", statusCode: http.StatusForbidden, expected: ErrForbidden},
		{name: "not found", statusCode: http.StatusNotFound, expected: ErrNotFound},
		{name: "conflict", statusCode: http.StatusConflict, expected: ErrConflict},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, expected: ErrRateLimited},
		{name: "bad request", statusCode: http.StatusBadRequest, expected: ErrBadRequest},
		{name: "internal server error", statusCode: http.StatusInternalServerError, expected: ErrServerError},
		{name: "service unavailable", statusCode: http.StatusServiceUnavailable, expected: ErrServerError},
		{name: "success returns nil", statusCode: http.StatusOK, expected: nil},
		{name: "unmapped client error returns nil", statusCode: http.StatusTeapot, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WrapError(tt.statusCode))
		})
	}
}

func TestParseError_GraphEnvelope(t *testing.T) {
	body := []byte(`{"error":{"code":"ErrorItemNotFound","message":"The specified object was not found in the store."}}`)

	err := ParseError(http.StatusNotFound, body)

	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "ErrorItemNotFound", err.Code)
	assert.Equal(t, "The specified object was not found in the store.", err.Message)
	assert.True(t, err.IsMatch("erroritemnotfound"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, domain.ErrAuthChallenge))
}

func TestParseError_Conflict(t *testing.T) {
	body := []byte(`{"error":{"code":"ErrorConflict","message":"Conflict"}}`)

	err := ParseError(http.StatusConflict, body)

	assert.Equal(t, "Conflict", err.Error())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestParseError_UnauthorisedIsAuthChallenge(t *testing.T) {
	body := []byte(`{"error":{"code":"InvalidAuthenticationToken","message":"Access token has expired."}}`)

	err := ParseError(http.StatusUnauthorized, body)

	assert.ErrorIs(t, err, domain.ErrAuthChallenge)
	assert.ErrorIs(t, err, ErrUnauthorised)
}

func TestParseError_NonJSONBody(t *testing.T) {
	err := ParseError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))

	assert.Empty(t, err.Code)
	assert.Equal(t, "request failed with status 502", err.Message)
	assert.ErrorIs(t, err, ErrServerError)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsUnauthorised(http.StatusUnauthorized))
	assert.False(t, IsUnauthorised(http.StatusForbidden))
	assert.True(t, IsRateLimited(http.StatusTooManyRequests))
	assert.False(t, IsRateLimited(http.StatusOK))
}
