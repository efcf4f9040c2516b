// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/zmb3/spotify/v2"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/services"
)

// MockCatalog is a test double for [services.VideoCatalog]
//
// Calls are recorded in order; Err, when set, is returned from every lookup.
type MockCatalog struct {
	mu       sync.Mutex
	Key      bool
	Results  *services.YouTubeSearchResponse
	Videos   *services.YouTubeVideoListResponse
	Err      error
	Searches []services.SearchParams
}

func (m *MockCatalog) Name() string     { return "mock" }
func (m *MockCatalog) Configured() bool { return m.Key }

func (m *MockCatalog) Search(ctx context.Context, p services.SearchParams) (*services.YouTubeSearchResponse, error) {
	m.mu.Lock()
	m.Searches = append(m.Searches, p)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Results == nil {
		return &services.YouTubeSearchResponse{}, nil
	}
	return m.Results, nil
}

func (m *MockCatalog) SearchKaraoke(ctx context.Context, query string) (*services.YouTubeSearchResponse, error) {
	return m.Search(ctx, services.SearchParams{Query: query + " karaoke"})
}

func (m *MockCatalog) Popular(ctx context.Context, maxResults int) (*services.YouTubeVideoListResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Videos == nil {
		return &services.YouTubeVideoListResponse{}, nil
	}
	return m.Videos, nil
}

// MockPlayer is a test double for [services.PlayerService]
type MockPlayer struct {
	DeviceList []spotify.PlayerDevice
	Current    *spotify.PlayerState
	Err        error
	Token      string
	Played     string
	Device     string
}

func (m *MockPlayer) Name() string { return "mock" }

func (m *MockPlayer) Devices(ctx context.Context, token string) ([]spotify.PlayerDevice, error) {
	m.Token = token
	return m.DeviceList, m.Err
}

func (m *MockPlayer) Play(ctx context.Context, token, trackID, deviceID string) error {
	m.Token, m.Played, m.Device = token, trackID, deviceID
	return m.Err
}

func (m *MockPlayer) State(ctx context.Context, token string) (*spotify.PlayerState, error) {
	m.Token = token
	return m.Current, m.Err
}

// MockSearcher returns a canned aggregated response and records queries.
type MockSearcher struct {
	Response models.SearchResponse
	Err      error
	Queries  []string
}

func (m *MockSearcher) Search(ctx context.Context, query string) (models.SearchResponse, error) {
	m.Queries = append(m.Queries, query)
	return m.Response, m.Err
}

var (
	_ services.VideoCatalog  = (*MockCatalog)(nil)
	_ services.PlayerService = (*MockPlayer)(nil)
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
