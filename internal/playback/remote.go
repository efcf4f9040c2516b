package playback

import (
	"fmt"
	"sync"

	"github.com/desertthunder/karaoke/internal/shared"
)

// Command types sent to the embedded player page.
const (
	CommandLoad    = "load"
	CommandPlay    = "play"
	CommandPause   = "pause"
	CommandSeek    = "seek"
	CommandVolume  = "volume"
	CommandDestroy = "destroy"
)

// Event types reported by the embedded player page.
const (
	EventReady      = "ready"
	EventTimeUpdate = "timeUpdate"
	EventEnded      = "ended"
	EventError      = "error"
)

// Command is a message to the embedded player. LoadID ties it to one load.
type Command struct {
	Type     string  `json:"type"`
	LoadID   uint64  `json:"loadId"`
	VideoID  string  `json:"videoId,omitempty"`
	Autoplay bool    `json:"autoplay,omitempty"`
	Seconds  float64 `json:"seconds,omitempty"`
	Volume   float64 `json:"volume"`
	Muted    bool    `json:"muted"`
}

// RemoteEvent is a message from the embedded player, echoing the LoadID of the load it belongs to.
type RemoteEvent struct {
	Type     string  `json:"type"`
	LoadID   uint64  `json:"loadId"`
	Duration float64 `json:"duration,omitempty"`
	Position float64 `json:"position,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// Transport carries commands to a connected player page and events back.
type Transport interface {
	Connected() bool
	Send(cmd Command) error
	SetHandler(h func(RemoteEvent))
}

// RemoteBackend drives a single embedded video player through a [Transport].
//
// The page destroys and recreates its player on every load, so only one video is ever live.
type RemoteBackend struct {
	transport Transport

	mu     sync.Mutex
	loadID uint64
	obs    Observer
	volume float64
	muted  bool
}

// NewRemoteBackend creates a backend and registers it as the transport's event handler.
func NewRemoteBackend(t Transport) *RemoteBackend {
	b := &RemoteBackend{transport: t, volume: 1}
	t.SetHandler(b.handle)
	return b
}

// Load cues videoID on the page. It fails with [shared.ErrNoPlayer] when no page is connected.
func (b *RemoteBackend) Load(videoID string, obs Observer) error {
	if !b.transport.Connected() {
		return shared.ErrNoPlayer
	}

	b.mu.Lock()
	b.loadID++
	b.obs = obs
	cmd := Command{Type: CommandLoad, LoadID: b.loadID, VideoID: videoID, Volume: b.volume, Muted: b.muted}
	b.mu.Unlock()

	return b.send(cmd)
}

func (b *RemoteBackend) Play() error  { return b.command(Command{Type: CommandPlay}) }
func (b *RemoteBackend) Pause() error { return b.command(Command{Type: CommandPause}) }

func (b *RemoteBackend) Seek(seconds float64) error {
	return b.command(Command{Type: CommandSeek, Seconds: seconds})
}

func (b *RemoteBackend) SetVolume(v float64) error {
	b.mu.Lock()
	b.volume = v
	b.mu.Unlock()
	return b.command(Command{Type: CommandVolume})
}

func (b *RemoteBackend) SetMuted(muted bool) error {
	b.mu.Lock()
	b.muted = muted
	b.mu.Unlock()
	return b.command(Command{Type: CommandVolume})
}

// Destroy tells the page to drop its player. Events of the destroyed load are ignored afterwards.
func (b *RemoteBackend) Destroy() error {
	b.mu.Lock()
	if b.obs == nil {
		b.mu.Unlock()
		return nil
	}
	cmd := Command{Type: CommandDestroy, LoadID: b.loadID}
	b.loadID++
	b.obs = nil
	b.mu.Unlock()

	if !b.transport.Connected() {
		return nil
	}
	return b.send(cmd)
}

// command stamps cmd with the current load and volume settings and sends it.
func (b *RemoteBackend) command(cmd Command) error {
	b.mu.Lock()
	if b.obs == nil {
		b.mu.Unlock()
		return nil
	}
	cmd.LoadID = b.loadID
	cmd.Volume, cmd.Muted = b.volume, b.muted
	b.mu.Unlock()

	return b.send(cmd)
}

func (b *RemoteBackend) send(cmd Command) error {
	if err := b.transport.Send(cmd); err != nil {
		return fmt.Errorf("%w: sending %s: %v", shared.ErrPlayback, cmd.Type, err)
	}
	return nil
}

func (b *RemoteBackend) handle(ev RemoteEvent) {
	b.mu.Lock()
	obs := b.obs
	if ev.LoadID != b.loadID {
		obs = nil
	}
	b.mu.Unlock()

	if obs == nil {
		return
	}

	switch ev.Type {
	case EventReady:
		obs.Ready(ev.Duration)
	case EventTimeUpdate:
		obs.TimeUpdate(ev.Position)
	case EventEnded:
		obs.Ended()
	case EventError:
		msg := ev.Message
		if msg == "" {
			msg = "embedded player error"
		}
		obs.Error(fmt.Errorf("%w: %s", shared.ErrPlayback, msg))
	}
}
