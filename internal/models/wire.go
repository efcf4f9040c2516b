package models

import (
	"fmt"

	"github.com/desertthunder/karaoke/internal/shared"
)

// MusicTrack is the JSON shape of a [Track], shared by every adapter and route.
type MusicTrack struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Artist      string       `json:"artist"`
	Thumbnail   string       `json:"thumbnail"`
	Duration    string       `json:"duration"`
	Source      Origin       `json:"source"`
	SourceURL   string       `json:"sourceUrl,omitempty"`
	YouTubeData *YouTubeData `json:"youtubeData,omitempty"`
}

// YouTubeData carries the embedded-player reference of a YouTube track.
type YouTubeData struct {
	VideoID   string `json:"videoId"`
	StreamURL string `json:"streamUrl,omitempty"`
}

// SearchResult is one entry of the aggregated search payload.
//
// Type is the inferred song type for local files and "youtube" for remote hits.
type SearchResult struct {
	Title     string `json:"title"`
	Type      string `json:"type"`
	Path      string `json:"path"`
	Artist    string `json:"artist,omitempty"`
	YouTubeID string `json:"youtubeId,omitempty"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Success bool           `json:"success"`
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// IsRemote reports whether the result came from YouTube rather than the local catalog.
func (r SearchResult) IsRemote() bool { return r.YouTubeID != "" }

// Track converts a search hit into a playable [Track].
func (r SearchResult) Track() (Track, error) {
	if r.IsRemote() {
		return NewYouTubeTrack(OriginYouTubeSearch, r.YouTubeID, TrackInfo{
			Title:     r.Title,
			Artist:    r.Artist,
			SourceURL: r.Path,
		})
	}
	if r.Path == "" {
		return Track{}, fmt.Errorf("%w: search result %q has no path", shared.ErrInvalidTrack, r.Title)
	}
	return NewLocalTrack(r.Path, r.Title, r.Artist)
}
