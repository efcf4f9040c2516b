package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/karaoke/internal/shared"
)

const searchPayload = `{
  "nextPageToken": "CAoQAA",
  "items": [
    {"id": {"kind": "youtube#video", "videoId": "vid1"},
     "snippet": {"title": "Arirang Karaoke", "channelTitle": "KaraokeTV",
                 "thumbnails": {"medium": {"url": "https://i.ytimg.com/vi/vid1/mqdefault.jpg"}}}},
    {"id": {"kind": "youtube#channel"},
     "snippet": {"title": "A channel", "channelTitle": "Someone"}}
  ]
}`

func TestYouTubeService(t *testing.T) {
	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			svc := NewYouTubeService(YouTubeOpts{})
			if svc.baseURL != defaultYouTubeBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYouTubeBaseURL, svc.baseURL)
			}
			if svc.Configured() {
				t.Error("service without api key should not be configured")
			}
		})

		t.Run("trims trailing slash from custom URL", func(t *testing.T) {
			svc := NewYouTubeService(YouTubeOpts{BaseURL: "http://localhost:9000/v3/", APIKey: "k"})
			if svc.baseURL != "http://localhost:9000/v3" {
				t.Errorf("unexpected baseURL %s", svc.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService(YouTubeOpts{}); svc.Name() != "YouTube" {
			t.Errorf("expected name to be 'YouTube', got %s", svc.Name())
		}
	})

	t.Run("Search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected path /search, got %s", r.URL.Path)
			}
			q := r.URL.Query()
			want := map[string]string{
				"part": "snippet", "type": "video", "q": "arirang",
				"maxResults": "10", "key": "test-key", "videoCategoryId": "10", "pageToken": "next",
			}
			for k, v := range want {
				if got := q.Get(k); got != v {
					t.Errorf("expected %s=%s, got %s", k, v, got)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(searchPayload))
		}))
		defer server.Close()

		svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL, APIKey: "test-key"})
		resp, err := svc.Search(context.Background(), SearchParams{Query: "arirang", PageToken: "next", MusicOnly: true})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(resp.Items) != 2 || resp.NextPageToken != "CAoQAA" {
			t.Fatalf("unexpected response %+v", resp)
		}
		if resp.Items[0].ID.VideoID != "vid1" || resp.Items[0].Snippet.Thumbnails.Medium == nil {
			t.Errorf("unexpected first item %+v", resp.Items[0])
		}
	})

	t.Run("SearchKaraoke appends suffix", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("q"); got != "arirang karaoke" {
				t.Errorf("expected karaoke query, got %q", got)
			}
			if r.URL.Query().Has("videoCategoryId") {
				t.Error("karaoke search should not restrict category")
			}
			w.Write([]byte(`{"items": []}`))
		}))
		defer server.Close()

		svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL, APIKey: "k"})
		if _, err := svc.SearchKaraoke(context.Background(), "arirang"); err != nil {
			t.Fatalf("SearchKaraoke() error = %v", err)
		}
	})

	t.Run("Popular", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/videos" {
				t.Errorf("expected path /videos, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("chart") != "mostPopular" {
				t.Errorf("expected chart=mostPopular")
			}
			w.Write([]byte(`{"items": [{"id": "pop1", "snippet": {"title": "Hit"}, "contentDetails": {"duration": "PT3M5S"}}]}`))
		}))
		defer server.Close()

		svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL, APIKey: "k"})
		resp, err := svc.Popular(context.Background(), 0)
		if err != nil {
			t.Fatalf("Popular() error = %v", err)
		}
		if len(resp.Items) != 1 || resp.Items[0].ContentDetails.Duration != "PT3M5S" {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Run("missing api key makes no request", func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
			}))
			defer server.Close()

			svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL})
			_, err := svc.Search(context.Background(), SearchParams{Query: "x"})
			if !errors.Is(err, shared.ErrMissingAPIKey) {
				t.Errorf("expected ErrMissingAPIKey, got %v", err)
			}
			if calls.Load() != 0 {
				t.Errorf("expected no requests, got %d", calls.Load())
			}
		})

		t.Run("non-2xx carries status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": {"code": 403, "message": "quotaExceeded"}}`))
			}))
			defer server.Close()

			svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL, APIKey: "k"})
			_, err := svc.Search(context.Background(), SearchParams{Query: "x"})
			if got := shared.StatusOf(err, 0); got != http.StatusForbidden {
				t.Errorf("expected status 403, got %d (%v)", got, err)
			}
		})

		t.Run("malformed payload", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			}))
			defer server.Close()

			svc := NewYouTubeService(YouTubeOpts{BaseURL: server.URL, APIKey: "k"})
			_, err := svc.Popular(context.Background(), 5)
			if !errors.Is(err, shared.ErrUpstream) {
				t.Errorf("expected ErrUpstream, got %v", err)
			}
			if got := shared.HTTPStatus(err); got != http.StatusInternalServerError {
				t.Errorf("expected 500, got %d", got)
			}
		})

		t.Run("cancelled context", func(t *testing.T) {
			svc := NewYouTubeService(YouTubeOpts{BaseURL: "http://127.0.0.1:1", APIKey: "k", RequestsPerSecond: 1})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if _, err := svc.Search(ctx, SearchParams{Query: "x"}); err == nil {
				t.Error("expected error for cancelled context")
			}
		})
	})
}

func TestURLStreamResolver(t *testing.T) {
	r := URLStreamResolver{BaseURL: "https://example.com/stream/"}

	got, err := r.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://example.com/stream/abc123" {
		t.Errorf("Resolve() = %q", got)
	}

	if _, err := r.Resolve(context.Background(), ""); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := (URLStreamResolver{}).Resolve(context.Background(), "x"); !errors.Is(err, shared.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}
