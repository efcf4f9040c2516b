package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/server"
	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/shared"
)

const spotifyAuthTimeout = 5 * time.Minute

func (r *Runner) spotifyToken(cmd *cli.Command) (string, error) {
	token := cmd.String("token")
	if token == "" {
		return "", fmt.Errorf("%w: pass --token or set SPOTIFY_ACCESS_TOKEN", shared.ErrNotAuthenticated)
	}
	return token, nil
}

// SpotifyDevices lists the user's Spotify Connect devices.
func (r *Runner) SpotifyDevices(ctx context.Context, cmd *cli.Command) error {
	token, err := r.spotifyToken(cmd)
	if err != nil {
		return err
	}

	devices, err := r.spotify.Devices(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to fetch devices: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"devices": devices}, cmd.Bool("pretty"))
	}

	if len(devices) == 0 {
		return r.writePlain("No devices found. Open Spotify on a device first.\n")
	}

	r.writePlain("Found %d devices:\n\n", len(devices))
	for i, d := range devices {
		active := ""
		if d.Active {
			active = " (active)"
		}
		r.writePlain("%d. %s [%s]%s\n", i+1, d.Name, d.Type, active)
		r.writePlain("   ID: %s\n", d.ID)
	}
	return nil
}

// SpotifyState prints the current playback state.
func (r *Runner) SpotifyState(ctx context.Context, cmd *cli.Command) error {
	token, err := r.spotifyToken(cmd)
	if err != nil {
		return err
	}

	state, err := r.spotify.State(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to get playback state: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, cmd.Bool("pretty"))
	}

	status := "paused"
	if state.Playing {
		status = "playing"
	}
	r.writePlain("Device: %s\n", state.Device.Name)
	r.writePlain("Status: %s\n", status)
	if item := state.Item; item != nil {
		artist := ""
		if len(item.Artists) > 0 {
			artist = item.Artists[0].Name + " - "
		}
		r.writePlain("Track: %s%s\n", artist, item.Name)
		r.writePlain("Progress: %s / %s\n",
			shared.FormatDuration(int(state.Progress)/1000), shared.FormatDuration(int(item.Duration)/1000))
	}
	return nil
}

// SpotifyPlay plays a track on a device.
func (r *Runner) SpotifyPlay(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}

	token, err := r.spotifyToken(cmd)
	if err != nil {
		return err
	}

	if err := r.spotify.Play(ctx, token, trackID, cmd.String("device")); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}
	return r.writePlain("✓ Playing spotify:track:%s\n", trackID)
}

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server on the configured redirect URI, opens the browser for user authorization,
// and prints the access token once the callback has exchanged the code.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	config, err := services.SpotifyOAuthConfig(r.config.Credentials.Spotify)
	if err != nil {
		return err
	}

	redirect, err := url.Parse(config.RedirectURL)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: invalid spotify redirect_uri %q", shared.ErrConfig, config.RedirectURL)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	state := shared.GenerateID()
	callback := server.NewOAuthHandler(config, state, redirect.Path)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Mount(callback)

	srv := server.NewHTTPServer(redirect.Host, router)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			callback.Send(server.OAuthResult{})
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := config.AuthCodeURL(state)
	r.writePlain("Opening browser for Spotify authorization...\n")
	r.writePlain("If the browser does not open, visit:\n%s\n\n", authURL)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, spotifyAuthTimeout)
	defer cancel()

	select {
	case result := <-callback.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		if result.Token == nil {
			return shared.ErrAuthFailed
		}
		r.writePlain("✓ Authorization successful\n\n")
		r.writePlain("export SPOTIFY_ACCESS_TOKEN=%s\n", result.Token.AccessToken)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: timed out waiting for authorization", shared.ErrAuthFailed)
	}
}
