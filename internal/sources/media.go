package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/karaoke/internal/shared"
)

// MediaOpener opens the bytes behind a local track's media URL.
type MediaOpener interface {
	Open(ctx context.Context, mediaURL string) (io.ReadCloser, error)
}

// DirOpener serves /Music/ URLs from a directory and fetches absolute http(s) URLs over the network.
type DirOpener struct {
	Dir    string
	Client *http.Client
}

// Open resolves mediaURL. Remote bodies are read fully.
func (o DirOpener) Open(ctx context.Context, mediaURL string) (io.ReadCloser, error) {
	if strings.HasPrefix(mediaURL, "http://") || strings.HasPrefix(mediaURL, "https://") {
		return o.fetch(ctx, mediaURL)
	}

	name := strings.TrimPrefix(mediaURL, MediaPrefix)
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("%w: unresolvable media url %q", shared.ErrPlayback, mediaURL)
	}

	f, err := os.Open(filepath.Join(o.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlayback, err)
	}
	return f, nil
}

func (o DirOpener) fetch(ctx context.Context, mediaURL string) (io.ReadCloser, error) {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlayback, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlayback, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: %s", shared.ErrPlayback, mediaURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlayback, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
