package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/desertthunder/karaoke/internal/playback"
	"github.com/desertthunder/karaoke/internal/shared"
)

type eventSink struct {
	mu     sync.Mutex
	events []playback.RemoteEvent
	signal chan struct{}
}

func newEventSink() *eventSink {
	return &eventSink{signal: make(chan struct{}, 16)}
}

func (s *eventSink) handle(ev playback.RemoteEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	s.signal <- struct{}{}
}

func (s *eventSink) wait(t *testing.T) playback.RemoteEvent {
	t.Helper()
	select {
	case <-s.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func startBridge(t *testing.T) (*Bridge, *httptest.Server) {
	t.Helper()
	bridge := NewBridge(testLogger())
	router := NewBasicRouter()
	router.Use(Logging(testLogger()))
	router.Mount(bridge)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		bridge.Close()
		srv.Close()
	})
	return bridge, srv
}

func dialPlayer(t *testing.T, srv *httptest.Server, bridge *Bridge) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/player/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := bridge.WaitConnected(ctx); err != nil {
		t.Fatalf("WaitConnected() error = %v", err)
	}
	return conn
}

func TestBridge(t *testing.T) {
	t.Run("Page", func(t *testing.T) {
		_, srv := startBridge(t)
		resp, err := http.Get(srv.URL + "/player")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
			t.Errorf("unexpected response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
		}
	})

	t.Run("SendWithoutPage", func(t *testing.T) {
		bridge := NewBridge(testLogger())
		if bridge.Connected() {
			t.Fatal("expected no page to be connected")
		}
		if err := bridge.Send(playback.Command{Type: playback.CommandPlay}); !errors.Is(err, shared.ErrNoPlayer) {
			t.Errorf("expected ErrNoPlayer, got %v", err)
		}
	})

	t.Run("WaitConnectedTimeout", func(t *testing.T) {
		bridge := NewBridge(testLogger())
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := bridge.WaitConnected(ctx); !errors.Is(err, shared.ErrNoPlayer) {
			t.Errorf("expected ErrNoPlayer, got %v", err)
		}
	})

	t.Run("CommandsAndEvents", func(t *testing.T) {
		bridge, srv := startBridge(t)
		sink := newEventSink()
		bridge.SetHandler(sink.handle)
		conn := dialPlayer(t, srv, bridge)

		if err := bridge.Send(playback.Command{Type: playback.CommandLoad, LoadID: 3, VideoID: "vid1", Volume: 0.5}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		var cmd playback.Command
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&cmd); err != nil {
			t.Fatalf("page read failed: %v", err)
		}
		if cmd.Type != playback.CommandLoad || cmd.LoadID != 3 || cmd.VideoID != "vid1" || cmd.Volume != 0.5 {
			t.Errorf("unexpected command %+v", cmd)
		}

		if err := conn.WriteJSON(playback.RemoteEvent{Type: playback.EventReady, LoadID: 3, Duration: 200}); err != nil {
			t.Fatal(err)
		}
		ev := sink.wait(t)
		if ev.Type != playback.EventReady || ev.LoadID != 3 || ev.Duration != 200 {
			t.Errorf("unexpected event %+v", ev)
		}
	})

	t.Run("DisconnectMidLoad", func(t *testing.T) {
		bridge, srv := startBridge(t)
		sink := newEventSink()
		bridge.SetHandler(sink.handle)
		conn := dialPlayer(t, srv, bridge)

		if err := bridge.Send(playback.Command{Type: playback.CommandLoad, LoadID: 7, VideoID: "vid"}); err != nil {
			t.Fatal(err)
		}
		conn.Close()

		ev := sink.wait(t)
		if ev.Type != playback.EventError || ev.LoadID != 7 {
			t.Errorf("expected an error event for load 7, got %+v", ev)
		}
		if bridge.Connected() {
			t.Error("expected bridge to report no page")
		}
	})

	t.Run("NewPageReplacesOld", func(t *testing.T) {
		bridge, srv := startBridge(t)
		sink := newEventSink()
		bridge.SetHandler(sink.handle)
		first := dialPlayer(t, srv, bridge)

		bridge.mu.Lock()
		old := bridge.conn
		bridge.mu.Unlock()

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/player/ws"
		second, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer second.Close()

		deadline := time.Now().Add(2 * time.Second)
		for {
			bridge.mu.Lock()
			replaced := bridge.conn != nil && bridge.conn != old
			bridge.mu.Unlock()
			if replaced {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("second page never registered")
			}
			time.Sleep(5 * time.Millisecond)
		}

		if err := bridge.Send(playback.Command{Type: playback.CommandPlay, LoadID: 1}); err != nil {
			t.Fatal(err)
		}

		var cmd playback.Command
		second.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := second.ReadJSON(&cmd); err != nil || cmd.Type != playback.CommandPlay {
			t.Errorf("expected the newest page to receive commands, got %+v %v", cmd, err)
		}

		first.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := first.ReadJSON(&cmd); err == nil {
			t.Error("expected the replaced page to be closed")
		}
	})
}
