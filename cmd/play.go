package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/playback"
	"github.com/desertthunder/karaoke/internal/server"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/sources"
	"github.com/desertthunder/karaoke/internal/ui"
)

// player is the controller and the bridge serving its embedded backend.
type player struct {
	controller *playback.Controller
	bridge     *server.Bridge
	srv        *http.Server
	url        string
}

// startPlayer serves the embedded-player bridge on ln and starts a controller over both backends.
func (r *Runner) startPlayer(ln net.Listener) *player {
	bridge := server.NewBridge(r.logger)
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Mount(bridge)
	if dir := r.config.Server.MusicDir; dir != "" {
		router.Handle(http.MethodGet, sources.MediaPrefix, http.StripPrefix(sources.MediaPrefix, http.FileServer(http.Dir(dir))))
	}

	srv := server.NewHTTPServer(ln.Addr().String(), router)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("player bridge failed", "error", err)
		}
	}()

	opener := sources.DirOpener{Dir: r.config.Server.MusicDir, Client: r.httpClient}
	controller := playback.NewController(playback.ControllerOpts{
		Local:    playback.NewLocalBackend(opener, r.logger),
		Embedded: playback.NewRemoteBackend(bridge),
		Logger:   r.logger,
	})

	return &player{
		controller: controller,
		bridge:     bridge,
		srv:        srv,
		url:        "http://" + ln.Addr().String() + "/player",
	}
}

func (p *player) Close() error {
	p.controller.Close()
	p.bridge.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.srv.Shutdown(ctx)
}

// Play launches the interactive terminal player.
//
// Local songs play through the native audio backend; YouTube results play in the embedded player
// page, which must be open in a browser.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	stack, err := r.newSearchStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := stack.catalog.Watch(ctx); err != nil {
			r.logger.Warn("music directory watch stopped", "error", err)
		}
	}()

	ln, err := net.Listen("tcp", r.config.Player.BridgeAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.config.Player.BridgeAddr, err)
	}
	p := r.startPlayer(ln)
	defer p.Close()

	r.logger.Info("embedded player page", "url", p.url)
	r.writePlain("Embedded player: %s\n", p.url)
	if r.config.Player.OpenBrowser || cmd.Bool("open") {
		if err := shared.OpenBrowser(p.url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	model := ui.NewModel(ctx, p.controller, stack.searcher)
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
