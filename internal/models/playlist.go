package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/karaoke/internal/shared"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a playlist name.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// Playlist is a user-owned, ordered list of tracks addressed by slug.
type Playlist struct {
	record
	userID string
	name   string
	slug   string
	tracks []Track
}

// NewPlaylist creates a [Playlist] for userID, deriving the slug from name.
func NewPlaylist(userID, name string) *Playlist {
	return &Playlist{record: newRecord(0), userID: userID, name: strings.TrimSpace(name), slug: Slugify(name)}
}

func (p *Playlist) UserID() string { return p.userID }
func (p *Playlist) Name() string   { return p.name }
func (p *Playlist) Slug() string   { return p.slug }

// SetName renames the playlist and re-derives its slug.
func (p *Playlist) SetName(name string) {
	p.name = strings.TrimSpace(name)
	p.slug = Slugify(name)
}

// SetSlug overrides the derived slug, e.g. when loading from storage.
func (p *Playlist) SetSlug(slug string) { p.slug = slug }

// Tracks returns the tracks loaded with the playlist.
func (p *Playlist) Tracks() []Track { return p.tracks }

// SetTracks attaches loaded tracks.
func (p *Playlist) SetTracks(tracks []Track) { p.tracks = tracks }

// Validate checks that the playlist has an owner and a sluggable name.
func (p *Playlist) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("%w: playlist owner is required", shared.ErrValidation)
	}
	if p.name == "" || p.slug == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}
	return nil
}

// MarshalJSON renders the playlist with its tracks in wire shape.
func (p *Playlist) MarshalJSON() ([]byte, error) {
	tracks := make([]MusicTrack, 0, len(p.tracks))
	for _, t := range p.tracks {
		tracks = append(tracks, t.ToMusicTrack())
	}
	return json.Marshal(struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Slug      string       `json:"slug"`
		Tracks    []MusicTrack `json:"tracks"`
		CreatedAt time.Time    `json:"createdAt"`
		UpdatedAt time.Time    `json:"updatedAt"`
	}{p.id, p.name, p.slug, tracks, p.createdAt, p.updatedAt})
}

// Favorite is a track a user marked as favorite.
type Favorite struct {
	UserID    string
	Track     Track
	CreatedAt time.Time
}
