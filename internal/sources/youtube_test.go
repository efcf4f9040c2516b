package sources

import (
	"encoding/json"
	"testing"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/services"
)

func searchItems(t *testing.T, raw string) []services.YouTubeSearchItem {
	t.Helper()
	var resp services.YouTubeSearchResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return resp.Items
}

const itemsFixture = `{"items": [
  {"id": {"videoId": "abc"}, "snippet": {"title": "Hello Karaoke", "channelTitle": "Sing King",
   "thumbnails": {"default": {"url": "d.jpg"}, "medium": {"url": "m.jpg"}}}},
  {"id": {"kind": "youtube#channel"}, "snippet": {"title": "Channel"}},
  {"id": {"videoId": "def"}, "snippet": {"title": "No Thumbs", "channelTitle": "Uploader"}},
  {"id": {"videoId": "abc"}, "snippet": {"title": "Hello Karaoke (dup)"}}
]}`

func TestFormatISODuration(t *testing.T) {
	tc := map[string]string{
		"PT4M13S":  "04:13",
		"PT45S":    "00:45",
		"PT1H2M3S": "1:02:03",
		"PT10M":    "10:00",
		"P1DT1S":   "24:00:01",
		"":         "",
		"PT":       "",
		"garbage":  "",
	}
	for in, want := range tc {
		if got := FormatISODuration(in); got != want {
			t.Errorf("FormatISODuration(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSearchItemsToResults(t *testing.T) {
	results := SearchItemsToResults(searchItems(t, itemsFixture))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
	}

	first := results[0]
	want := models.SearchResult{
		Title:     "Hello Karaoke",
		Artist:    "Sing King",
		Type:      "youtube",
		Path:      "https://www.youtube.com/watch?v=abc",
		YouTubeID: "abc",
	}
	if first != want {
		t.Errorf("first result = %+v, want %+v", first, want)
	}
	if results[1].YouTubeID != "def" {
		t.Errorf("expected second result def, got %s", results[1].YouTubeID)
	}
}

func TestFromYouTubeSearch(t *testing.T) {
	tracks := FromYouTubeSearch(models.OriginYouTubeMusic, searchItems(t, itemsFixture))
	if len(tracks) != 3 {
		t.Fatalf("expected items without ids to be dropped, got %d tracks", len(tracks))
	}

	hello := tracks[0]
	if hello.ID() != "abc" || hello.VideoID() != "abc" {
		t.Errorf("expected id abc, got %s/%s", hello.ID(), hello.VideoID())
	}
	if hello.Thumbnail() != "m.jpg" {
		t.Errorf("expected medium thumbnail, got %q", hello.Thumbnail())
	}
	if hello.Duration() != "" {
		t.Errorf("search items carry no duration, got %q", hello.Duration())
	}
	if hello.Origin() != models.OriginYouTubeMusic {
		t.Errorf("unexpected origin %s", hello.Origin())
	}
	if tracks[1].Thumbnail() != "" {
		t.Errorf("missing thumbnail should default to empty, got %q", tracks[1].Thumbnail())
	}
}

func TestFromYouTubeVideos(t *testing.T) {
	var resp services.YouTubeVideoListResponse
	raw := `{"items": [
	  {"id": "v1", "snippet": {"title": "Top Song", "channelTitle": "Artist",
	   "thumbnails": {"high": {"url": "h.jpg"}}}, "contentDetails": {"duration": "PT3M5S"}},
	  {"id": "", "snippet": {"title": "Broken"}}
	]}`
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}

	tracks := FromYouTubeVideos(models.OriginYouTubeMusic, resp.Items)
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
	mt := tracks[0].ToMusicTrack()
	if mt.Duration != "03:05" || mt.Thumbnail != "h.jpg" || mt.YouTubeData == nil || mt.YouTubeData.VideoID != "v1" {
		t.Errorf("unexpected wire track %+v", mt)
	}
}

func TestResultsToTracks(t *testing.T) {
	tracks := ResultsToTracks([]models.SearchResult{
		{Title: "Local", Type: "other", Path: "/Music/local.mp3"},
		{Title: "Remote", Type: "youtube", Path: "https://www.youtube.com/watch?v=xyz", YouTubeID: "xyz"},
		{Title: "Broken"},
	})
	if len(tracks) != 2 {
		t.Fatalf("expected invalid results to be skipped, got %d", len(tracks))
	}
	if tracks[0].Origin() != models.OriginLocal || tracks[1].Origin() != models.OriginYouTubeSearch {
		t.Errorf("unexpected origins %s, %s", tracks[0].Origin(), tracks[1].Origin())
	}
}
