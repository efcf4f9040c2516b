package playback

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

// ControllerOpts configures a [Controller].
//
// Local plays local files; Embedded plays both YouTube origins. Either may be nil, in which case
// selecting a track of that origin fails with [shared.ErrNoBackend].
type ControllerOpts struct {
	Local     Backend
	Embedded  Backend
	Navigator *Navigator
	Logger    *log.Logger
}

// Controller is the single owner of the playback state.
//
// All state lives on one loop goroutine. Public methods post a closure to the loop and wait for it;
// backend events are posted the same way and are dropped when their generation is stale.
type Controller struct {
	logger   *log.Logger
	backends map[models.Origin]Backend

	mu      sync.Mutex
	inbox   []func()
	stopped bool
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once

	// owned by the loop goroutine
	state       State
	gen         uint64
	active      Backend
	act         *activation
	wantPlay    bool
	pendingSeek float64
	seekPending bool
	nav         *Navigator
	subs        map[chan State]struct{}
}

// NewController starts a controller. Call [Controller.Close] to stop it.
func NewController(opts ControllerOpts) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Navigator == nil {
		opts.Navigator = NewNavigator(nil)
	}

	backends := map[models.Origin]Backend{}
	if opts.Local != nil {
		backends[models.OriginLocal] = opts.Local
	}
	if opts.Embedded != nil {
		backends[models.OriginYouTubeSearch] = opts.Embedded
		backends[models.OriginYouTubeMusic] = opts.Embedded
	}

	c := &Controller{
		logger:   opts.Logger.With("component", "playback"),
		backends: backends,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		state:    State{Volume: 1},
		nav:      opts.Navigator,
		subs:     map[chan State]struct{}{},
	}
	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			c.teardown()
			for ch := range c.subs {
				close(ch)
			}
			c.subs = nil
			return
		case <-c.wake:
		}

		c.mu.Lock()
		batch := c.inbox
		c.inbox = nil
		c.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}

// post queues fn on the loop. It never blocks.
func (c *Controller) post(fn func()) bool {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return false
	}
	c.inbox = append(c.inbox, fn)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

// do runs fn on the loop and waits for its result.
func (c *Controller) do(fn func() error) error {
	reply := make(chan error, 1)
	if !c.post(func() { reply <- fn() }) {
		return shared.ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return shared.ErrClosed
	}
}

// Close tears down the active backend and stops the loop. Subscriber channels are closed.
func (c *Controller) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
		close(c.quit)
	})
	<-c.done
	return nil
}

// State returns a snapshot of the playback state.
func (c *Controller) State() State {
	var s State
	if err := c.do(func() error {
		s = c.state.clone()
		return nil
	}); err != nil {
		return State{Err: err}
	}
	return s
}

// Subscribe returns a channel receiving a snapshot after every change, and a function to cancel it.
//
// Slow receivers only see the most recent snapshot.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	if err := c.do(func() error {
		c.subs[ch] = struct{}{}
		deliver(ch, c.state.clone())
		return nil
	}); err != nil {
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = c.do(func() error {
				if _, ok := c.subs[ch]; ok {
					delete(c.subs, ch)
					close(ch)
				}
				return nil
			})
		})
	}
	return ch, cancel
}

func deliver(ch chan State, s State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

func (c *Controller) publish() {
	for ch := range c.subs {
		deliver(ch, c.state.clone())
	}
}

// SelectTrack tears down the current backend and loads t on the backend for its origin.
//
// Load failures stop playback, are recorded in the state and are returned; the queue is not advanced.
// If t is in the queue the queue position moves to it.
func (c *Controller) SelectTrack(t models.Track) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return c.do(func() error {
		if i := c.nav.IndexOf(t.ID()); i >= 0 {
			c.nav.JumpTo(i)
		}
		return c.selectTrack(t)
	})
}

// SetQueue replaces the queue and selects the track at index.
func (c *Controller) SetQueue(tracks []models.Track, index int) error {
	return c.do(func() error {
		c.nav.Replace(tracks, index)
		t, ok := c.nav.Current()
		if !ok {
			return nil
		}
		return c.selectTrack(t)
	})
}

// Queue returns the queue and the current index.
func (c *Controller) Queue() ([]models.Track, int) {
	var (
		tracks []models.Track
		index  int
	)
	_ = c.do(func() error {
		tracks, index = c.nav.Tracks(), c.nav.Index()
		return nil
	})
	return tracks, index
}

// Next selects the next track in the queue, honoring shuffle. It is a no-op on an empty queue.
func (c *Controller) Next() error {
	return c.do(func() error {
		t, ok := c.nav.Next(c.state.Shuffle)
		if !ok {
			return nil
		}
		return c.selectTrack(t)
	})
}

// Previous selects the previous track in the queue. It is a no-op on an empty queue.
func (c *Controller) Previous() error {
	return c.do(func() error {
		t, ok := c.nav.Previous()
		if !ok {
			return nil
		}
		return c.selectTrack(t)
	})
}

// PlayPause toggles the play intent. Without an active backend it does nothing.
//
// While loading only the intent changes; it decides between playing and pausing once the backend is ready.
func (c *Controller) PlayPause() error {
	return c.do(func() error {
		if c.active == nil {
			return nil
		}

		var err error
		switch c.state.Status {
		case Loading:
			c.wantPlay = !c.wantPlay
		case Playing:
			if err = c.active.Pause(); err == nil {
				c.wantPlay = false
				c.state.Status = Paused
			}
		case Paused:
			if err = c.active.Play(); err == nil {
				c.wantPlay = true
				c.state.Status = Playing
			}
		case Stopped:
			if err = c.active.Seek(0); err == nil {
				err = c.active.Play()
			}
			if err == nil {
				c.wantPlay = true
				c.state.Status = Playing
				c.state.Position = 0
			}
		}

		if err != nil {
			return c.fail(err)
		}
		c.publish()
		return nil
	})
}

// Seek moves to seconds, clamped to [0, duration]. While loading the seek is applied once ready.
func (c *Controller) Seek(seconds float64) error {
	return c.do(func() error {
		if c.active == nil {
			return nil
		}
		if c.state.Status == Loading {
			c.pendingSeek, c.seekPending = max(seconds, 0), true
			return nil
		}

		s := clamp(seconds, 0, c.state.Duration)
		if err := c.active.Seek(s); err != nil {
			return c.fail(err)
		}
		c.state.Position = s
		c.publish()
		return nil
	})
}

// SetVolume sets the volume, clamped to [0, 1]. The muted flag is left alone.
func (c *Controller) SetVolume(v float64) error {
	return c.do(func() error {
		c.state.Volume = clamp(v, 0, 1)
		if c.active != nil && c.state.Status != Loading {
			if err := c.active.SetVolume(c.state.Volume); err != nil {
				return c.fail(err)
			}
		}
		c.publish()
		return nil
	})
}

// ToggleMute flips the muted flag without touching the volume.
func (c *Controller) ToggleMute() error {
	return c.do(func() error {
		c.state.Muted = !c.state.Muted
		if c.active != nil && c.state.Status != Loading {
			if err := c.active.SetMuted(c.state.Muted); err != nil {
				return c.fail(err)
			}
		}
		c.publish()
		return nil
	})
}

// ToggleRepeat flips repeat. With repeat on, a finished track restarts instead of advancing.
func (c *Controller) ToggleRepeat() error {
	return c.do(func() error {
		c.state.Repeat = !c.state.Repeat
		c.publish()
		return nil
	})
}

// ToggleShuffle flips shuffle for subsequent next selections.
func (c *Controller) ToggleShuffle() error {
	return c.do(func() error {
		c.state.Shuffle = !c.state.Shuffle
		c.publish()
		return nil
	})
}

func (c *Controller) selectTrack(t models.Track) error {
	c.teardown()

	c.gen++
	c.state.Track = &t
	c.state.Status = Loading
	c.state.Position = 0
	c.state.Duration = 0
	c.state.Err = nil
	c.wantPlay = true
	c.seekPending = false

	b, ok := c.backends[t.Origin()]
	if !ok {
		return c.fail(fmt.Errorf("%w: %s", shared.ErrNoBackend, t.Origin()))
	}

	act := &activation{c: c, gen: c.gen}
	c.active, c.act = b, act

	c.logger.Debug("loading track", "track", t.Label(), "origin", t.Origin(), "generation", c.gen)
	if err := b.Load(t.PlayableRef(), act); err != nil {
		return c.fail(err)
	}
	c.publish()
	return nil
}

// teardown detaches the activation and releases the active backend.
func (c *Controller) teardown() {
	if c.act != nil {
		c.act.closed.Store(true)
		c.act = nil
	}
	if c.active != nil {
		if err := c.active.Destroy(); err != nil {
			c.logger.Warn("failed to release backend", "error", err)
		}
		c.active = nil
	}
}

// fail tears the backend down and records err as a playback error.
func (c *Controller) fail(err error) error {
	if !errors.Is(err, shared.ErrPlayback) {
		err = fmt.Errorf("%w: %w", shared.ErrPlayback, err)
	}
	c.logger.Error("playback failed", "error", err)

	c.teardown()
	c.state.Status = Stopped
	c.state.Err = err
	c.wantPlay = false
	c.seekPending = false
	c.publish()
	return err
}

func (c *Controller) current(gen uint64) bool {
	if gen != c.gen || c.active == nil {
		c.logger.Debug("dropping stale event", "generation", gen, "current", c.gen)
		return false
	}
	return true
}

func (c *Controller) onReady(gen uint64, duration float64) {
	if !c.current(gen) || c.state.Status != Loading {
		return
	}
	c.state.Duration = max(duration, 0)

	if err := c.active.SetVolume(c.state.Volume); err != nil {
		_ = c.fail(err)
		return
	}
	if err := c.active.SetMuted(c.state.Muted); err != nil {
		_ = c.fail(err)
		return
	}

	if c.seekPending {
		s := clamp(c.pendingSeek, 0, c.state.Duration)
		c.seekPending = false
		if err := c.active.Seek(s); err != nil {
			_ = c.fail(err)
			return
		}
		c.state.Position = s
	}

	if c.wantPlay {
		if err := c.active.Play(); err != nil {
			_ = c.fail(err)
			return
		}
		c.state.Status = Playing
	} else {
		c.state.Status = Paused
	}
	c.publish()
}

func (c *Controller) onTimeUpdate(gen uint64, position float64) {
	if !c.current(gen) || c.state.Status == Loading || c.state.Status == Stopped {
		return
	}
	c.state.Position = clamp(position, 0, c.state.Duration)
	c.publish()
}

func (c *Controller) onEnded(gen uint64) {
	if !c.current(gen) {
		return
	}

	if c.state.Repeat {
		err := c.active.Seek(0)
		if err == nil {
			err = c.active.Play()
		}
		if err != nil {
			_ = c.fail(err)
			return
		}
		c.state.Position = 0
		c.state.Status = Playing
		c.publish()
		return
	}

	if t, ok := c.nav.Next(c.state.Shuffle); ok {
		_ = c.selectTrack(t)
		return
	}

	c.state.Status = Stopped
	c.state.Position = c.state.Duration
	c.wantPlay = false
	c.publish()
}

func (c *Controller) onError(gen uint64, err error) {
	if !c.current(gen) {
		return
	}
	_ = c.fail(err)
}

// activation is the [Observer] handed to a backend for one selection.
type activation struct {
	c      *Controller
	gen    uint64
	closed atomic.Bool
}

func (a *activation) emit(fn func()) {
	if a.closed.Load() {
		return
	}
	a.c.post(fn)
}

func (a *activation) Ready(duration float64) {
	a.emit(func() { a.c.onReady(a.gen, duration) })
}

func (a *activation) TimeUpdate(position float64) {
	a.emit(func() { a.c.onTimeUpdate(a.gen, position) })
}

func (a *activation) Ended() {
	a.emit(func() { a.c.onEnded(a.gen) })
}

func (a *activation) Error(err error) {
	a.emit(func() { a.c.onError(a.gen, err) })
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
