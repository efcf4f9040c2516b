//go:build !((linux && cgo) || windows || darwin)

package playback

import (
	"github.com/charmbracelet/log"

	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/sources"
)

// AudioAvailable reports whether this build can play local files.
const AudioAvailable = false

// LocalBackend is a stand-in for builds without audio output. Every load fails.
type LocalBackend struct{}

// NewLocalBackend returns a backend that rejects every load.
func NewLocalBackend(_ sources.MediaOpener, _ *log.Logger) *LocalBackend {
	return &LocalBackend{}
}

func (*LocalBackend) Load(string, Observer) error { return shared.ErrAudioUnavailable }
func (*LocalBackend) Play() error                 { return nil }
func (*LocalBackend) Pause() error                { return nil }
func (*LocalBackend) Seek(float64) error          { return nil }
func (*LocalBackend) SetVolume(float64) error     { return nil }
func (*LocalBackend) SetMuted(bool) error         { return nil }
func (*LocalBackend) Destroy() error              { return nil }
