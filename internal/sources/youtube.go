package sources

import (
	"regexp"
	"strconv"

	"github.com/samber/lo"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/shared"
)

const (
	// RemoteType is the search result type of YouTube hits.
	RemoteType = "youtube"
	watchURL   = "https://www.youtube.com/watch?v="
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.\d+)?S)?)?$`)

// FormatISODuration renders an ISO-8601 duration such as PT4M13S as mm:ss.
//
// Unparseable input yields "".
func FormatISODuration(d string) string {
	m := isoDuration.FindStringSubmatch(d)
	if m == nil || d == "P" || d == "PT" {
		return ""
	}
	part := func(i int) int {
		n, _ := strconv.Atoi(m[i])
		return n
	}
	seconds := part(1)*86400 + part(2)*3600 + part(3)*60 + part(4)
	return shared.FormatDuration(seconds)
}

// thumbnail picks the medium rendition, falling back to high then default.
func thumbnail(t services.YouTubeThumbnails) string {
	for _, th := range []*services.YouTubeThumbnail{t.Medium, t.High, t.Default} {
		if th != nil && th.URL != "" {
			return th.URL
		}
	}
	return ""
}

// SearchItemsToResults maps search items to search results, dropping items without a video id and
// keeping the first occurrence of each id.
func SearchItemsToResults(items []services.YouTubeSearchItem) []models.SearchResult {
	withID := lo.Filter(items, func(it services.YouTubeSearchItem, _ int) bool { return it.ID.VideoID != "" })
	unique := lo.UniqBy(withID, func(it services.YouTubeSearchItem) string { return it.ID.VideoID })
	return lo.Map(unique, func(it services.YouTubeSearchItem, _ int) models.SearchResult {
		return models.SearchResult{
			Title:     it.Snippet.Title,
			Artist:    it.Snippet.ChannelTitle,
			Type:      RemoteType,
			Path:      watchURL + it.ID.VideoID,
			YouTubeID: it.ID.VideoID,
		}
	})
}

// FromYouTubeSearch maps search items to tracks of the given origin, dropping items without a video id.
func FromYouTubeSearch(origin models.Origin, items []services.YouTubeSearchItem) []models.Track {
	return lo.FilterMap(items, func(it services.YouTubeSearchItem, _ int) (models.Track, bool) {
		t, err := models.NewYouTubeTrack(origin, it.ID.VideoID, models.TrackInfo{
			Title:     it.Snippet.Title,
			Artist:    it.Snippet.ChannelTitle,
			Thumbnail: thumbnail(it.Snippet.Thumbnails),
			SourceURL: watchURL + it.ID.VideoID,
		})
		return t, err == nil
	})
}

// FromYouTubeVideos maps videos.list items to tracks of the given origin.
func FromYouTubeVideos(origin models.Origin, videos []services.YouTubeVideo) []models.Track {
	return lo.FilterMap(videos, func(v services.YouTubeVideo, _ int) (models.Track, bool) {
		t, err := models.NewYouTubeTrack(origin, v.ID, models.TrackInfo{
			Title:     v.Snippet.Title,
			Artist:    v.Snippet.ChannelTitle,
			Thumbnail: thumbnail(v.Snippet.Thumbnails),
			Duration:  FormatISODuration(v.ContentDetails.Duration),
			SourceURL: watchURL + v.ID,
		})
		return t, err == nil
	})
}

// ResultsToTracks converts search results into playable tracks, skipping any that are invalid.
func ResultsToTracks(results []models.SearchResult) []models.Track {
	return lo.FilterMap(results, func(r models.SearchResult, _ int) (models.Track, bool) {
		t, err := r.Track()
		return t, err == nil
	})
}
