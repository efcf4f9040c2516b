package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/repositories"
	"github.com/desertthunder/karaoke/internal/server"
	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/ui"
)

const shutdownTimeout = 10 * time.Second

// sessionSecret returns the configured secret, or a random one that does not survive restarts.
func (r *Runner) sessionSecret() string {
	if s := r.config.Server.SessionSecret; s != "" {
		return s
	}
	r.logger.Warn("server.session_secret is not set; sessions will not survive a restart")
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// buildApp wires the API router over db and searcher.
func (r *Runner) buildApp(db *sql.DB, searcher ui.Searcher) (http.Handler, error) {
	secure := strings.HasPrefix(r.config.Server.BaseURL, "https://")

	sessions, err := server.NewSessionManager(r.sessionSecret(), server.DefaultSessionTTL, secure)
	if err != nil {
		return nil, err
	}

	opts := server.AppOpts{
		Logger:   r.logger,
		Search:   searcher,
		Videos:   r.youtube,
		Streams:  r.streams,
		Spotify:  r.spotify,
		Sessions: sessions,
		Library: server.LibraryStores{
			Users:     repositories.NewUserRepository(db),
			Playlists: repositories.NewPlaylistRepository(db),
			Entries:   repositories.NewPlaylistTrackRepository(db),
			Favorites: repositories.NewFavoriteRepository(db),
		},
		MusicDir:      r.config.Server.MusicDir,
		SecureCookies: secure,
	}

	if oauth, err := services.SpotifyOAuthConfig(r.config.Credentials.Spotify); err == nil {
		opts.SpotifyOAuth = oauth
	} else {
		r.logger.Info("spotify login disabled", "reason", err)
	}

	if google, err := services.NewGoogleAccounts(r.config.Credentials.Google); err == nil {
		opts.Google = google
	} else {
		r.logger.Info("google sign-in disabled", "reason", err)
	}

	return server.NewApp(opts), nil
}

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	stack, err := r.newSearchStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	handler, err := r.buildApp(db, stack.searcher)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("watch") {
		go func() {
			if err := stack.catalog.Watch(ctx); err != nil {
				r.logger.Warn("music directory watch stopped", "error", err)
			}
		}()
	}

	srv := server.NewHTTPServer(addr, handler)
	errs := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", addr, "music_dir", r.config.Server.MusicDir)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
