package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrConfig        = fmt.Errorf("configuration error")
	ErrMissingConfig = fmt.Errorf("%w: configuration not found", ErrConfig)
	ErrMissingAPIKey = fmt.Errorf("%w: YouTube API key not configured", ErrConfig)

	// Authentication errors
	ErrAuth             = fmt.Errorf("authentication error")
	ErrNotAuthenticated = fmt.Errorf("%w: not authenticated", ErrAuth)
	ErrTokenExpired     = fmt.Errorf("%w: token expired", ErrAuth)
	ErrInvalidSession   = fmt.Errorf("%w: invalid session", ErrAuth)
	ErrAuthFailed       = fmt.Errorf("%w: authentication failed", ErrAuth)

	// Upstream provider errors
	ErrUpstream        = fmt.Errorf("upstream error")
	ErrNoPlaybackState = fmt.Errorf("%w: no playback state available", ErrUpstream)

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation error")
	ErrMissingArgument = fmt.Errorf("%w: missing required argument", ErrValidation)
	ErrInvalidTrack    = fmt.Errorf("%w: invalid track", ErrValidation)
	ErrNicknameShort   = fmt.Errorf("%w: Nickname must be at least 3 characters long", ErrValidation)
	ErrNicknameTaken   = fmt.Errorf("%w: This nickname is already taken", ErrValidation)

	// Playback errors
	ErrPlayback         = fmt.Errorf("playback error")
	ErrNoBackend        = fmt.Errorf("%w: no backend for track origin", ErrPlayback)
	ErrAudioUnavailable = fmt.Errorf("%w: audio output unavailable in this build", ErrPlayback)
	ErrNoPlayer         = fmt.Errorf("%w: no embedded player connected", ErrPlayback)
	ErrClosed           = fmt.Errorf("%w: controller closed", ErrPlayback)

	// Storage errors
	ErrNotFound = fmt.Errorf("not found")
)

// UpstreamError carries the HTTP status reported by a provider.
//
// A zero Status means the provider could not be reached or answered with a payload that could not be decoded.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s request failed with status %d: %v", e.Service, e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// StatusOf extracts the upstream status from err, returning fallback when none is present.
func StatusOf(err error, fallback int) int {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status != 0 {
		return ue.Status
	}
	return fallback
}

// HTTPStatus maps an error onto the status code a route handler should reply with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoPlaybackState):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return StatusOf(err, http.StatusInternalServerError)
	default:
		return http.StatusInternalServerError
	}
}
