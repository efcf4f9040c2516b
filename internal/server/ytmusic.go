package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/sources"
)

// ytMusicPageSize is the number of tracks per search page and recommendation list.
const ytMusicPageSize = 10

type tracksBody struct {
	Tracks        []models.MusicTrack `json:"tracks"`
	NextPageToken *string             `json:"nextPageToken"`
}

type recommendBody struct {
	Tracks []models.MusicTrack `json:"tracks"`
}

// YouTubeMusicHandler serves the /api/youtube-music routes. All of them require a signed-in session
// carrying a provider access token.
type YouTubeMusicHandler struct {
	catalog  services.VideoCatalog
	streams  services.StreamResolver
	sessions *SessionManager
	logger   *log.Logger
}

func NewYouTubeMusicHandler(catalog services.VideoCatalog, streams services.StreamResolver, sessions *SessionManager, logger *log.Logger) *YouTubeMusicHandler {
	return &YouTubeMusicHandler{catalog: catalog, streams: streams, sessions: sessions, logger: logger}
}

func (h *YouTubeMusicHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/youtube-music/search", Handler: h.search},
		{Method: http.MethodGet, Pattern: "/api/youtube-music/recommend", Handler: h.recommend},
		{Method: http.MethodGet, Pattern: "/api/youtube-music/stream/{videoId}", Handler: h.stream},
		{Method: http.MethodGet, Pattern: "/api/youtube-music/stream/{$}", Handler: h.stream},
	}
}

func (h *YouTubeMusicHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	s, err := h.sessions.Read(r)
	if err != nil || s.AccessToken == "" {
		WriteJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return false
	}
	return true
}

func (h *YouTubeMusicHandler) configured(w http.ResponseWriter) bool {
	if !h.catalog.Configured() {
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "YouTube API key not configured"})
		return false
	}
	return true
}

func (h *YouTubeMusicHandler) search(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: "Query parameter is required"})
		return
	}
	if !h.configured(w) {
		return
	}

	resp, err := h.catalog.Search(r.Context(), services.SearchParams{
		Query:      query,
		PageToken:  r.URL.Query().Get("pageToken"),
		MaxResults: ytMusicPageSize,
		MusicOnly:  true,
	})
	if err != nil {
		h.logger.Error("youtube music search failed", "query", query, "error", err)
		writeFailure(w, err, "Internal server error")
		return
	}

	body := tracksBody{Tracks: wireTracks(sources.FromYouTubeSearch(models.OriginYouTubeMusic, resp.Items))}
	if resp.NextPageToken != "" {
		body.NextPageToken = &resp.NextPageToken
	}
	WriteJSON(w, http.StatusOK, body)
}

func (h *YouTubeMusicHandler) recommend(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) || !h.configured(w) {
		return
	}

	resp, err := h.catalog.Popular(r.Context(), ytMusicPageSize)
	if err != nil {
		h.logger.Error("youtube music recommend failed", "error", err)
		writeFailure(w, err, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, recommendBody{Tracks: wireTracks(sources.FromYouTubeVideos(models.OriginYouTubeMusic, resp.Items))})
}

func (h *YouTubeMusicHandler) stream(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}

	videoID := strings.TrimSpace(r.PathValue("videoId"))
	if videoID == "" {
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: "Video ID is required"})
		return
	}

	streamURL, err := h.streams.Resolve(r.Context(), videoID)
	if err != nil {
		h.logger.Error("stream resolution failed", "videoId", videoID, "error", err)
		writeFailure(w, err, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"streamUrl": streamURL})
}

func wireTracks(tracks []models.Track) []models.MusicTrack {
	return lo.Map(tracks, func(t models.Track, _ int) models.MusicTrack { return t.ToMusicTrack() })
}
