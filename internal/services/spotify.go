// Spotify Web API player client
//
// Wraps the player endpoints of [spotify.Client] behind a per-request bearer token
// taken from the caller's cookie.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/desertthunder/karaoke/internal/shared"
)

const defaultSpotifyBaseURL = "https://api.spotify.com/v1/"

// spotifyScopes are the scopes needed to list devices and control playback.
var spotifyScopes = []string{
	"user-read-email",
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"streaming",
}

// SpotifyOAuthConfig builds the OAuth2 configuration for Spotify sign-in.
func SpotifyOAuthConfig(cfg shared.SpotifyConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrConfig)
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       spotifyScopes,
		Endpoint:     endpoints.Spotify,
	}, nil
}

// SpotifyPlayer controls Spotify Connect playback for a user token.
type SpotifyPlayer struct {
	baseURL string
	base    http.RoundTripper
}

// NewSpotifyPlayer creates a player client. An empty baseURL selects the public Web API.
func NewSpotifyPlayer(baseURL string, base http.RoundTripper) *SpotifyPlayer {
	if baseURL == "" {
		baseURL = defaultSpotifyBaseURL
	}
	if baseURL[len(baseURL)-1] != '/' {
		baseURL += "/"
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &SpotifyPlayer{baseURL: baseURL, base: base}
}

// Name returns the service name.
func (s *SpotifyPlayer) Name() string {
	return "Spotify"
}

func (s *SpotifyPlayer) client(token string) (*spotify.Client, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   s.base,
		},
	}
	return spotify.New(httpClient, spotify.WithBaseURL(s.baseURL)), nil
}

// Devices lists the user's available Spotify Connect devices.
func (s *SpotifyPlayer) Devices(ctx context.Context, token string) ([]spotify.PlayerDevice, error) {
	client, err := s.client(token)
	if err != nil {
		return nil, err
	}

	devices, err := client.PlayerDevices(ctx)
	if err != nil {
		return nil, wrapSpotifyError(err)
	}
	if devices == nil {
		devices = []spotify.PlayerDevice{}
	}
	return devices, nil
}

// Play starts spotify:track:<trackID> on deviceID, or on the active device when deviceID is empty.
func (s *SpotifyPlayer) Play(ctx context.Context, token, trackID, deviceID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: trackId", shared.ErrMissingArgument)
	}

	client, err := s.client(token)
	if err != nil {
		return err
	}

	opts := &spotify.PlayOptions{URIs: []spotify.URI{spotify.URI("spotify:track:" + trackID)}}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}

	if err := client.PlayOpt(ctx, opts); err != nil {
		return wrapSpotifyError(err)
	}
	return nil
}

// State returns the current playback state.
//
// Spotify answers 204 when nothing is playing; that is reported as [shared.ErrNoPlaybackState].
func (s *SpotifyPlayer) State(ctx context.Context, token string) (*spotify.PlayerState, error) {
	client, err := s.client(token)
	if err != nil {
		return nil, err
	}

	state, err := client.PlayerState(ctx)
	if err != nil {
		return nil, wrapSpotifyError(err)
	}
	if state == nil || (state.Item == nil && state.Device.ID == "") {
		return nil, shared.ErrNoPlaybackState
	}
	return state, nil
}

// wrapSpotifyError converts a client error into an [shared.UpstreamError], marking expired tokens as auth failures.
func wrapSpotifyError(err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		if se.Status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", shared.ErrTokenExpired, se.Message)
		}
		return &shared.UpstreamError{Service: "spotify", Status: se.Status, Err: err}
	}
	return &shared.UpstreamError{Service: "spotify", Err: err}
}
