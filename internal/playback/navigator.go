package playback

import (
	"math/rand/v2"

	"github.com/desertthunder/karaoke/internal/models"
)

// Navigator is an ordered queue with a current index.
//
// The queue is only ever replaced as a whole. The index is -1 exactly when the queue is empty.
type Navigator struct {
	tracks []models.Track
	index  int
	rng    *rand.Rand
}

// NewNavigator creates an empty navigator. A nil rng uses the global source.
func NewNavigator(rng *rand.Rand) *Navigator {
	return &Navigator{index: -1, rng: rng}
}

// Replace swaps in a new queue positioned at index, clamped to the queue bounds.
func (n *Navigator) Replace(tracks []models.Track, index int) {
	n.tracks = append([]models.Track(nil), tracks...)
	switch {
	case len(n.tracks) == 0:
		n.index = -1
	case index < 0:
		n.index = 0
	case index >= len(n.tracks):
		n.index = len(n.tracks) - 1
	default:
		n.index = index
	}
}

func (n *Navigator) Len() int   { return len(n.tracks) }
func (n *Navigator) Index() int { return n.index }

// Tracks returns a copy of the queue.
func (n *Navigator) Tracks() []models.Track {
	return append([]models.Track(nil), n.tracks...)
}

// Current returns the track at the current index.
func (n *Navigator) Current() (models.Track, bool) {
	if n.index < 0 {
		return models.Track{}, false
	}
	return n.tracks[n.index], true
}

// JumpTo moves to index i if it is in range.
func (n *Navigator) JumpTo(i int) bool {
	if i < 0 || i >= len(n.tracks) {
		return false
	}
	n.index = i
	return true
}

// IndexOf returns the position of the first track with the given id, or -1.
func (n *Navigator) IndexOf(id string) int {
	for i, t := range n.tracks {
		if t.ID() == id {
			return i
		}
	}
	return -1
}

// Next advances and returns the new current track, wrapping from the last index to the first.
//
// With shuffle on and more than one track it picks a uniformly random index other than the current one.
func (n *Navigator) Next(shuffle bool) (models.Track, bool) {
	size := len(n.tracks)
	if size == 0 {
		return models.Track{}, false
	}

	if shuffle && size > 1 {
		i := n.intN(size - 1)
		if i >= n.index {
			i++
		}
		n.index = i
	} else {
		n.index = (n.index + 1) % size
	}
	return n.tracks[n.index], true
}

// Previous steps back and returns the new current track, wrapping from the first index to the last.
// Shuffle does not apply.
func (n *Navigator) Previous() (models.Track, bool) {
	size := len(n.tracks)
	if size == 0 {
		return models.Track{}, false
	}
	n.index = (n.index - 1 + size) % size
	return n.tracks[n.index], true
}

func (n *Navigator) intN(k int) int {
	if n.rng != nil {
		return n.rng.IntN(k)
	}
	return rand.IntN(k)
}
