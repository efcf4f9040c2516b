//go:build (linux && cgo) || windows || darwin

package playback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/sources"
)

// AudioAvailable reports whether this build can play local files.
const AudioAvailable = true

const (
	speakerSampleRate = beep.SampleRate(44100)
	tickInterval      = 250 * time.Millisecond
)

var (
	speakerMu    sync.Mutex
	speakerReady bool
)

func initSpeaker() error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerReady {
		return nil
	}
	if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("%w: speaker init: %v", shared.ErrPlayback, err)
	}
	speakerReady = true
	return nil
}

// LocalBackend plays MP3 files through the system speaker.
type LocalBackend struct {
	opener sources.MediaOpener
	logger *log.Logger

	mu       sync.Mutex
	token    uint64
	cancel   context.CancelFunc
	obs      Observer
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	muted    bool
	finished bool
	stopTick chan struct{}
}

// NewLocalBackend creates a backend reading media through opener.
func NewLocalBackend(opener sources.MediaOpener, logger *log.Logger) *LocalBackend {
	if logger == nil {
		logger = log.Default()
	}
	return &LocalBackend{opener: opener, logger: logger.With("backend", "local"), level: 1}
}

// Load opens and decodes mediaURL in the background, then reports Ready with playback paused.
func (b *LocalBackend) Load(mediaURL string, obs Observer) error {
	b.mu.Lock()
	b.releaseLocked()
	b.token++
	token := b.token
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.obs = obs
	b.mu.Unlock()

	go b.open(ctx, token, mediaURL)
	return nil
}

func (b *LocalBackend) open(ctx context.Context, token uint64, mediaURL string) {
	fail := func(err error) {
		b.mu.Lock()
		obs := b.obs
		live := token == b.token
		b.mu.Unlock()
		if live && obs != nil {
			obs.Error(err)
		}
	}

	rc, err := b.opener.Open(ctx, mediaURL)
	if err != nil {
		fail(err)
		return
	}

	streamer, format, err := mp3.Decode(rc)
	if err != nil {
		rc.Close()
		fail(fmt.Errorf("%w: decoding %s: %v", shared.ErrPlayback, mediaURL, err))
		return
	}

	if err := initSpeaker(); err != nil {
		streamer.Close()
		fail(err)
		return
	}

	b.mu.Lock()
	if token != b.token {
		b.mu.Unlock()
		streamer.Close()
		return
	}
	b.streamer, b.format = streamer, format
	b.queueLocked(true)
	stop := make(chan struct{})
	b.stopTick = stop
	obs := b.obs
	duration := format.SampleRate.D(streamer.Len()).Seconds()
	b.mu.Unlock()

	go b.tick(token, stop)
	b.logger.Debug("loaded", "media", mediaURL, "duration", duration)
	obs.Ready(duration)
}

// queueLocked builds the effect chain over the decoded stream and hands it to the speaker.
func (b *LocalBackend) queueLocked(paused bool) {
	token := b.token
	resampled := beep.Resample(4, b.format.SampleRate, speakerSampleRate, b.streamer)
	b.ctrl = &beep.Ctrl{Streamer: resampled, Paused: paused}
	b.volume = &effects.Volume{Streamer: b.ctrl, Base: 2}
	b.applyVolumeLocked()
	b.finished = false

	speaker.Play(beep.Seq(b.volume, beep.Callback(func() {
		// the speaker lock is held here
		go b.ended(token)
	})))
}

func (b *LocalBackend) applyVolumeLocked() {
	if b.volume == nil {
		return
	}
	speaker.Lock()
	b.volume.Volume = levelToVolume(b.level)
	b.volume.Silent = b.muted || b.level <= 0
	speaker.Unlock()
}

func (b *LocalBackend) ended(token uint64) {
	b.mu.Lock()
	if token != b.token || b.streamer == nil {
		b.mu.Unlock()
		return
	}
	b.finished = true
	obs := b.obs
	b.mu.Unlock()

	if obs != nil {
		obs.Ended()
	}
}

func (b *LocalBackend) tick(token uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		b.mu.Lock()
		if token != b.token || b.streamer == nil || b.ctrl == nil || b.finished {
			b.mu.Unlock()
			continue
		}
		speaker.Lock()
		paused := b.ctrl.Paused
		pos := b.streamer.Position()
		speaker.Unlock()
		obs := b.obs
		position := b.format.SampleRate.D(pos).Seconds()
		b.mu.Unlock()

		if !paused && obs != nil {
			obs.TimeUpdate(position)
		}
	}
}

func (b *LocalBackend) setPaused(paused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streamer == nil {
		return
	}
	if b.finished && !paused {
		b.queueLocked(false)
		return
	}
	if b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = paused
		speaker.Unlock()
	}
}

func (b *LocalBackend) Play() error {
	b.setPaused(false)
	return nil
}

func (b *LocalBackend) Pause() error {
	b.setPaused(true)
	return nil
}

func (b *LocalBackend) Seek(seconds float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := b.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	samples = min(max(samples, 0), b.streamer.Len())
	if err := b.streamer.Seek(samples); err != nil {
		return fmt.Errorf("%w: seek: %v", shared.ErrPlayback, err)
	}
	return nil
}

func (b *LocalBackend) SetVolume(v float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = v
	b.applyVolumeLocked()
	return nil
}

func (b *LocalBackend) SetMuted(muted bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.muted = muted
	b.applyVolumeLocked()
	return nil
}

// Destroy stops the current file and closes its decoder.
func (b *LocalBackend) Destroy() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token++
	b.releaseLocked()
	return nil
}

func (b *LocalBackend) releaseLocked() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.stopTick != nil {
		close(b.stopTick)
		b.stopTick = nil
	}
	if b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = true
		b.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if b.streamer != nil {
		if err := b.streamer.Close(); err != nil {
			b.logger.Warn("failed to close stream", "error", err)
		}
	}
	b.streamer, b.ctrl, b.volume = nil, nil, nil
	b.obs = nil
	b.finished = false
}

// levelToVolume maps a linear level in (0, 1] onto beep's base-2 volume scale.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
