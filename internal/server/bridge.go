package server

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/karaoke/internal/playback"
	"github.com/desertthunder/karaoke/internal/shared"
)

//go:embed player.html
var playerHTML []byte

const bridgeWriteWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Bridge connects the embedded backend to a browser page hosting the video player.
//
// It implements [playback.Transport]. Only the most recent page connection is used;
// an older one is closed when a new page connects.
type Bridge struct {
	logger *log.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	handler  func(playback.RemoteEvent)
	lastLoad uint64
	connects chan struct{}

	writeMu sync.Mutex
}

func NewBridge(logger *log.Logger) *Bridge {
	return &Bridge{logger: logger, connects: make(chan struct{}, 1)}
}

func (b *Bridge) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/player", Handler: b.page},
		{Method: http.MethodGet, Pattern: "/player/ws", Handler: b.serveWS},
	}
}

// Connected reports whether a player page is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// SetHandler installs the receiver of page events.
func (b *Bridge) SetHandler(h func(playback.RemoteEvent)) {
	b.mu.Lock()
	b.handler = h
	b.mu.Unlock()
}

// Send writes cmd to the attached page.
func (b *Bridge) Send(cmd playback.Command) error {
	b.mu.Lock()
	conn := b.conn
	switch cmd.Type {
	case playback.CommandLoad:
		b.lastLoad = cmd.LoadID
	case playback.CommandDestroy:
		if b.lastLoad == cmd.LoadID {
			b.lastLoad = 0
		}
	}
	b.mu.Unlock()

	if conn == nil {
		return shared.ErrNoPlayer
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(bridgeWriteWait))
	if err := conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("%w: failed to send %s: %v", shared.ErrPlayback, cmd.Type, err)
	}
	return nil
}

// WaitConnected blocks until a page is attached or ctx ends.
func (b *Bridge) WaitConnected(ctx context.Context) error {
	for {
		if b.Connected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", shared.ErrNoPlayer, ctx.Err())
		case <-b.connects:
		}
	}
}

// Close detaches the current page.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (b *Bridge) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(playerHTML)
}

func (b *Bridge) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	b.mu.Lock()
	previous := b.conn
	b.conn = conn
	b.mu.Unlock()
	if previous != nil {
		previous.Close()
	}

	select {
	case b.connects <- struct{}{}:
	default:
	}
	b.logger.Info("player page connected", "remote", r.RemoteAddr)

	b.readLoop(conn)
}

// readLoop forwards page events until the connection drops. A page lost mid-load is reported
// to the handler as an error of that load.
func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		var ev playback.RemoteEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		b.dispatch(ev)
	}

	b.mu.Lock()
	current := b.conn == conn
	if current {
		b.conn = nil
	}
	lastLoad := b.lastLoad
	b.mu.Unlock()

	if !current {
		return
	}
	b.logger.Warn("player page disconnected")
	if lastLoad != 0 {
		b.dispatch(playback.RemoteEvent{Type: playback.EventError, LoadID: lastLoad, Message: "player page disconnected"})
	}
}

func (b *Bridge) dispatch(ev playback.RemoteEvent) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

var _ playback.Transport = (*Bridge)(nil)
