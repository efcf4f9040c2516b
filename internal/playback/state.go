// package playback owns what is loaded and its transport state, delegating to native audio or the
// embedded video player depending on the track's origin
package playback

import "github.com/desertthunder/karaoke/internal/models"

// Status is the transport status of the controller.
type Status int

const (
	Stopped Status = iota
	Loading
	Playing
	Paused
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller's playback state.
//
// Volume and Muted are independent: muting never changes Volume.
type State struct {
	Track    *models.Track
	Status   Status
	Position float64
	Duration float64
	Volume   float64
	Muted    bool
	Repeat   bool
	Shuffle  bool
	// Err is the last playback failure. It is cleared by the next selection.
	Err error
}

func (s State) clone() State {
	if s.Track != nil {
		t := *s.Track
		s.Track = &t
	}
	return s
}
