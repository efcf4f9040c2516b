// package services defines clients for the HTTP APIs the karaoke app talks to
//
// YouTube Data API, Spotify Web API, Google accounts
package services

import (
	"context"

	"github.com/zmb3/spotify/v2"
)

// Service is implemented by every outbound client.
type Service interface {
	// Name returns the name of the service (e.g., "Spotify", "YouTube")
	Name() string
}

// VideoCatalog searches and lists YouTube videos. [YouTubeService] implements it.
type VideoCatalog interface {
	Service
	Configured() bool
	Search(ctx context.Context, p SearchParams) (*YouTubeSearchResponse, error)
	SearchKaraoke(ctx context.Context, query string) (*YouTubeSearchResponse, error)
	Popular(ctx context.Context, maxResults int) (*YouTubeVideoListResponse, error)
}

// PlayerService controls Spotify Connect playback. [SpotifyPlayer] implements it.
type PlayerService interface {
	Service
	Devices(ctx context.Context, token string) ([]spotify.PlayerDevice, error)
	Play(ctx context.Context, token, trackID, deviceID string) error
	State(ctx context.Context, token string) (*spotify.PlayerState, error)
}

var (
	_ VideoCatalog  = (*YouTubeService)(nil)
	_ PlayerService = (*SpotifyPlayer)(nil)
)
