package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/karaoke/internal/shared"
)

// StreamResolver turns a video id into a URL a media element can load.
type StreamResolver interface {
	Resolve(ctx context.Context, videoID string) (string, error)
}

// URLStreamResolver resolves streams by joining a base URL and the video id.
type URLStreamResolver struct {
	BaseURL string
}

// Resolve returns <base>/<videoId>.
func (r URLStreamResolver) Resolve(_ context.Context, videoID string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", fmt.Errorf("%w: Video ID is required", shared.ErrMissingArgument)
	}
	if r.BaseURL == "" {
		return "", fmt.Errorf("%w: stream base url not configured", shared.ErrConfig)
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + url.PathEscape(videoID), nil
}
