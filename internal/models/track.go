package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/karaoke/internal/shared"
)

// Origin identifies which source produced a [Track] and therefore which backend plays it.
type Origin string

const (
	// OriginLocal is a file from the local music directory, played by the native audio backend.
	OriginLocal Origin = "local"
	// OriginYouTubeSearch is a hit from the YouTube Data API search, played by the embedded backend.
	OriginYouTubeSearch Origin = "youtube"
	// OriginYouTubeMusic is a YouTube Music catalog entry, played by the embedded backend.
	OriginYouTubeMusic Origin = "youtube-music"
)

// ParseOrigin converts a wire value to an [Origin].
func ParseOrigin(s string) (Origin, error) {
	switch o := Origin(strings.ToLower(strings.TrimSpace(s))); o {
	case OriginLocal, OriginYouTubeSearch, OriginYouTubeMusic:
		return o, nil
	case "youtube-search":
		return OriginYouTubeSearch, nil
	default:
		return "", fmt.Errorf("%w: unknown origin %q", shared.ErrInvalidTrack, s)
	}
}

// Embedded reports whether tracks of this origin are played through the embedded video player.
func (o Origin) Embedded() bool {
	return o == OriginYouTubeSearch || o == OriginYouTubeMusic
}

func (o Origin) String() string { return string(o) }

// TrackInfo holds the display fields of a track.
//
// Missing optional fields stay empty.
type TrackInfo struct {
	ID        string
	Title     string
	Artist    string
	Thumbnail string
	Duration  string
	// StreamURL is a resolved stream for YouTube Music entries, when one is known.
	StreamURL string
	SourceURL string
}

// Track is a normalized playable item. It is immutable once constructed.
//
// For local tracks the playable reference is a direct media URL; for YouTube tracks it is the
// platform video id, which is also the track id.
type Track struct {
	id        string
	title     string
	artist    string
	thumbnail string
	duration  string
	origin    Origin
	ref       string
	streamURL string
	sourceURL string
}

// NewTrack validates and builds a track of the given origin around ref.
func NewTrack(origin Origin, ref string, info TrackInfo) (Track, error) {
	ref = strings.TrimSpace(ref)
	t := Track{
		id:        info.ID,
		title:     info.Title,
		artist:    info.Artist,
		thumbnail: info.Thumbnail,
		duration:  info.Duration,
		origin:    origin,
		ref:       ref,
		streamURL: info.StreamURL,
		sourceURL: info.SourceURL,
	}

	switch {
	case origin.Embedded():
		t.id = ref
	case t.id == "":
		t.id = ref
	}

	if err := t.Validate(); err != nil {
		return Track{}, err
	}
	return t, nil
}

// NewLocalTrack builds a track for a file served at mediaURL.
func NewLocalTrack(mediaURL, title, artist string) (Track, error) {
	return NewTrack(OriginLocal, mediaURL, TrackInfo{Title: title, Artist: artist, SourceURL: mediaURL})
}

// NewYouTubeTrack builds a track for the given video id.
func NewYouTubeTrack(origin Origin, videoID string, info TrackInfo) (Track, error) {
	if !origin.Embedded() {
		return Track{}, fmt.Errorf("%w: origin %q is not a YouTube origin", shared.ErrInvalidTrack, origin)
	}
	return NewTrack(origin, videoID, info)
}

// Validate enforces the origin/reference invariant.
func (t Track) Validate() error {
	switch {
	case t.origin == OriginLocal:
		if t.ref == "" {
			return fmt.Errorf("%w: local track requires a media URL", shared.ErrInvalidTrack)
		}
	case t.origin.Embedded():
		if t.ref == "" {
			return fmt.Errorf("%w: %s track requires a video id", shared.ErrInvalidTrack, t.origin)
		}
	default:
		return fmt.Errorf("%w: unknown origin %q", shared.ErrInvalidTrack, t.origin)
	}
	return nil
}

func (t Track) ID() string        { return t.id }
func (t Track) Title() string     { return t.title }
func (t Track) Artist() string    { return t.artist }
func (t Track) Thumbnail() string { return t.thumbnail }
func (t Track) Duration() string  { return t.duration }
func (t Track) Origin() Origin    { return t.origin }

// PlayableRef returns the media URL for local tracks and the video id for YouTube tracks.
func (t Track) PlayableRef() string { return t.ref }

// VideoID returns the platform video id, or "" for local tracks.
func (t Track) VideoID() string {
	if t.origin.Embedded() {
		return t.ref
	}
	return ""
}

// MediaURL returns the direct media URL, or "" for YouTube tracks.
func (t Track) MediaURL() string {
	if t.origin == OriginLocal {
		return t.ref
	}
	return ""
}

// IsZero reports whether t is the zero Track.
func (t Track) IsZero() bool { return t.origin == "" && t.ref == "" }

// Label renders "Artist - Title", or just the title when there is no artist.
func (t Track) Label() string {
	if t.artist == "" {
		return t.title
	}
	return t.artist + " - " + t.title
}

// ToMusicTrack converts t to its wire shape.
func (t Track) ToMusicTrack() MusicTrack {
	mt := MusicTrack{
		ID:        t.id,
		Title:     t.title,
		Artist:    t.artist,
		Thumbnail: t.thumbnail,
		Duration:  t.duration,
		Source:    t.origin,
		SourceURL: t.sourceURL,
	}
	if t.origin.Embedded() {
		mt.YouTubeData = &YouTubeData{VideoID: t.ref, StreamURL: t.streamURL}
	} else if mt.SourceURL == "" {
		mt.SourceURL = t.ref
	}
	return mt
}

// Track converts a wire track back into a validated [Track].
func (mt MusicTrack) Track() (Track, error) {
	origin, err := ParseOrigin(string(mt.Source))
	if err != nil {
		return Track{}, err
	}

	info := TrackInfo{
		ID:        mt.ID,
		Title:     mt.Title,
		Artist:    mt.Artist,
		Thumbnail: mt.Thumbnail,
		Duration:  mt.Duration,
		SourceURL: mt.SourceURL,
	}

	if origin.Embedded() {
		var videoID string
		if mt.YouTubeData != nil {
			videoID = mt.YouTubeData.VideoID
			info.StreamURL = mt.YouTubeData.StreamURL
		}
		if videoID == "" {
			videoID = mt.ID
		}
		return NewTrack(origin, videoID, info)
	}
	return NewTrack(origin, mt.SourceURL, info)
}
