package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/shared"
)

func testLogger() *log.Logger { return shared.NewLogger(io.Discard) }

type fakeSearcher struct {
	resp  models.SearchResponse
	err   error
	query string
}

func (f *fakeSearcher) Search(_ context.Context, q string) (models.SearchResponse, error) {
	f.query = q
	return f.resp, f.err
}

type fakeCatalog struct {
	configured bool
	search     *services.YouTubeSearchResponse
	popular    *services.YouTubeVideoListResponse
	err        error
	params     services.SearchParams
}

func (f *fakeCatalog) Name() string     { return "fake" }
func (f *fakeCatalog) Configured() bool { return f.configured }

func (f *fakeCatalog) Search(_ context.Context, p services.SearchParams) (*services.YouTubeSearchResponse, error) {
	f.params = p
	return f.search, f.err
}

func (f *fakeCatalog) SearchKaraoke(ctx context.Context, q string) (*services.YouTubeSearchResponse, error) {
	return f.Search(ctx, services.SearchParams{Query: q + " karaoke"})
}

func (f *fakeCatalog) Popular(context.Context, int) (*services.YouTubeVideoListResponse, error) {
	return f.popular, f.err
}

type fakePlayer struct {
	devices []spotify.PlayerDevice
	state   *spotify.PlayerState
	err     error
	played  []string
}

func (f *fakePlayer) Name() string { return "fake" }

func (f *fakePlayer) Devices(context.Context, string) ([]spotify.PlayerDevice, error) {
	return f.devices, f.err
}

func (f *fakePlayer) Play(_ context.Context, _, trackID, deviceID string) error {
	f.played = append(f.played, trackID+"@"+deviceID)
	return f.err
}

func (f *fakePlayer) State(context.Context, string) (*spotify.PlayerState, error) {
	return f.state, f.err
}

func searchItem(id, title string) services.YouTubeSearchItem {
	var item services.YouTubeSearchItem
	item.ID.VideoID = id
	item.Snippet.Title = title
	item.Snippet.ChannelTitle = "Channel"
	item.Snippet.Thumbnails.Medium = &services.YouTubeThumbnail{URL: "https://i.ytimg.com/" + id}
	return item
}

func serve(h Handler, req *http.Request) *httptest.ResponseRecorder {
	router := NewBasicRouter()
	router.Mount(h)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestSearchHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		searcher := &fakeSearcher{resp: models.SearchResponse{
			Success: true,
			Results: []models.SearchResult{{Title: "Song", Type: "pop", Path: "/Music/song.mp3"}},
		}}
		rec := serve(NewSearchHandler(searcher, testLogger()), httptest.NewRequest(http.MethodGet, "/api/search?q=Song", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if searcher.query != "Song" {
			t.Errorf("expected query to be forwarded, got %q", searcher.query)
		}
		body := decodeBody[models.SearchResponse](t, rec)
		if !body.Success || len(body.Results) != 1 {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		searcher := &fakeSearcher{err: errors.New("disk gone")}
		rec := serve(NewSearchHandler(searcher, testLogger()), httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		body := decodeBody[models.SearchResponse](t, rec)
		if body.Success || body.Error != "Failed to perform search" {
			t.Errorf("unexpected body %+v", body)
		}
	})
}

func TestYouTubeMusicHandler(t *testing.T) {
	sessions := newTestSessions(t)
	signedIn := func(r *http.Request) *http.Request {
		return withSession(t, sessions, r, Session{Email: "singer@example.com", AccessToken: "google-token"})
	}
	streams := services.URLStreamResolver{BaseURL: "https://stream.example.com"}

	t.Run("Unauthorized", func(t *testing.T) {
		h := NewYouTubeMusicHandler(&fakeCatalog{configured: true}, streams, sessions, testLogger())
		for _, path := range []string{"/api/youtube-music/search?q=x", "/api/youtube-music/recommend", "/api/youtube-music/stream/abc"} {
			rec := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s: expected 401, got %d", path, rec.Code)
			}
		}

		noToken := withSession(t, sessions, httptest.NewRequest(http.MethodGet, "/api/youtube-music/recommend", nil), Session{Email: "singer@example.com"})
		if rec := serve(h, noToken); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for a session without access token, got %d", rec.Code)
		}
	})

	t.Run("MissingQuery", func(t *testing.T) {
		h := NewYouTubeMusicHandler(&fakeCatalog{configured: false}, streams, sessions, testLogger())
		rec := serve(h, signedIn(httptest.NewRequest(http.MethodGet, "/api/youtube-music/search", nil)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 before the key check, got %d", rec.Code)
		}
		if body := decodeBody[errorBody](t, rec); body.Error != "Query parameter is required" {
			t.Errorf("unexpected error %q", body.Error)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		h := NewYouTubeMusicHandler(&fakeCatalog{configured: false}, streams, sessions, testLogger())
		rec := serve(h, signedIn(httptest.NewRequest(http.MethodGet, "/api/youtube-music/search?q=x", nil)))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if body := decodeBody[errorBody](t, rec); body.Error != "YouTube API key not configured" {
			t.Errorf("unexpected error %q", body.Error)
		}
	})

	t.Run("Search", func(t *testing.T) {
		catalog := &fakeCatalog{configured: true, search: &services.YouTubeSearchResponse{
			Items:         []services.YouTubeSearchItem{searchItem("vid1", "First"), searchItem("vid2", "Second")},
			NextPageToken: "page2",
		}}
		h := NewYouTubeMusicHandler(catalog, streams, sessions, testLogger())
		rec := serve(h, signedIn(httptest.NewRequest(http.MethodGet, "/api/youtube-music/search?q=love&pageToken=page1", nil)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if catalog.params.Query != "love" || catalog.params.PageToken != "page1" || !catalog.params.MusicOnly || catalog.params.MaxResults != 10 {
			t.Errorf("unexpected params %+v", catalog.params)
		}

		body := decodeBody[tracksBody](t, rec)
		if len(body.Tracks) != 2 || body.Tracks[0].ID != "vid1" || body.Tracks[0].Source != models.OriginYouTubeMusic {
			t.Errorf("unexpected tracks %+v", body.Tracks)
		}
		if body.Tracks[0].YouTubeData == nil || body.Tracks[0].YouTubeData.VideoID != "vid1" {
			t.Errorf("expected youtubeData on tracks, got %+v", body.Tracks[0])
		}
		if body.Tracks[0].Thumbnail != "https://i.ytimg.com/vid1" {
			t.Errorf("expected medium thumbnail, got %q", body.Tracks[0].Thumbnail)
		}
		if body.NextPageToken == nil || *body.NextPageToken != "page2" {
			t.Errorf("expected next page token, got %v", body.NextPageToken)
		}
	})

	t.Run("SearchLastPage", func(t *testing.T) {
		catalog := &fakeCatalog{configured: true, search: &services.YouTubeSearchResponse{}}
		h := NewYouTubeMusicHandler(catalog, streams, sessions, testLogger())
		rec := serve(h, signedIn(httptest.NewRequest(http.MethodGet, "/api/youtube-music/search?q=love", nil)))

		if !strings.Contains(rec.Body.String(), `"nextPageToken":null`) || !strings.Contains(rec.Body.String(), `"tracks":[]`) {
			t.Errorf("expected empty tracks and null token, got %s", rec.Body.String())
		}
	})

	t.Run("UpstreamStatus", func(t *testing.T) {
		catalog := &fakeCatalog{configured: true, err: &shared.UpstreamError{Service: "youtube", Status: http.StatusForbidden, Err: errors.New("quota")}}
		h := NewYouTubeMusicHandler(catalog, streams, sessions, testLogger())
		rec := serve(h, signedIn(httptest.NewRequest(http.MethodGet, "/api/youtube-music/search?q=love", nil)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected upstream status to pass through, got %d", rec.Code)
		}
	})

	t.Run("Recommend", func(t *testing.T) {
		video := services.YouTubeVideo{ID: "pop1"}
		video.Snippet.Title = "Hit"
		video.ContentDetails.Duration = "PT3M5S"
		catalog := &fakeCatalog{configured: true, popular: &services.YouTubeVideoListResponse{Items: []services.YouTubeVideo{video}}}
		h := NewYouTubeMusicHandler(catalog, streams, sessions, testLogger())
		rec := serve(h, signedIn(httptest.NewRequest(http.MethodGet, "/api/youtube-music/recommend", nil)))

		body := decodeBody[recommendBody](t, rec)
		if len(body.Tracks) != 1 || body.Tracks[0].ID != "pop1" || body.Tracks[0].Duration != "03:05" {
			t.Errorf("unexpected tracks %+v", body.Tracks)
		}
	})

	t.Run("Stream", func(t *testing.T) {
		h := NewYouTubeMusicHandler(&fakeCatalog{}, streams, sessions, testLogger())

		rec := serve(h, signedIn(httptest.NewRequest(http.MethodGet, "/api/youtube-music/stream/abc123", nil)))
		body := decodeBody[map[string]string](t, rec)
		if body["streamUrl"] != "https://stream.example.com/abc123" {
			t.Errorf("unexpected stream url %q", body["streamUrl"])
		}

		rec = serve(h, signedIn(httptest.NewRequest(http.MethodGet, "/api/youtube-music/stream/", nil)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 without video id, got %d", rec.Code)
		}
	})
}

func spotifyRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: SpotifyTokenCookie, Value: "spotify-token"})
	return req
}

func TestSpotifyHandler(t *testing.T) {
	t.Run("NotAuthenticated", func(t *testing.T) {
		h := NewSpotifyHandler(&fakePlayer{}, nil, false, testLogger())
		for _, req := range []*http.Request{
			httptest.NewRequest(http.MethodGet, "/api/spotify/devices", nil),
			httptest.NewRequest(http.MethodPost, "/api/spotify/play", strings.NewReader(`{"trackId":"t"}`)),
			httptest.NewRequest(http.MethodGet, "/api/spotify/state", nil),
		} {
			rec := serve(h, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s: expected 401, got %d", req.URL.Path, rec.Code)
			}
			if body := decodeBody[errorBody](t, rec); body.Error != "Not authenticated" {
				t.Errorf("unexpected error %q", body.Error)
			}
		}
	})

	t.Run("Devices", func(t *testing.T) {
		player := &fakePlayer{devices: []spotify.PlayerDevice{{ID: "dev1", Name: "Speaker"}}}
		rec := serve(NewSpotifyHandler(player, nil, false, testLogger()), spotifyRequest(http.MethodGet, "/api/spotify/devices", ""))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"devices"`) || !strings.Contains(rec.Body.String(), "Speaker") {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("DevicesUpstreamStatus", func(t *testing.T) {
		player := &fakePlayer{err: &shared.UpstreamError{Service: "spotify", Status: http.StatusTooManyRequests, Err: errors.New("slow down")}}
		rec := serve(NewSpotifyHandler(player, nil, false, testLogger()), spotifyRequest(http.MethodGet, "/api/spotify/devices", ""))
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", rec.Code)
		}
		if body := decodeBody[errorBody](t, rec); body.Error != "Failed to fetch devices" {
			t.Errorf("unexpected error %q", body.Error)
		}
	})

	t.Run("Play", func(t *testing.T) {
		player := &fakePlayer{}
		rec := serve(NewSpotifyHandler(player, nil, false, testLogger()),
			spotifyRequest(http.MethodPost, "/api/spotify/play", `{"trackId":"track1","deviceId":"dev1"}`))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"success":true`) {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
		if len(player.played) != 1 || player.played[0] != "track1@dev1" {
			t.Errorf("unexpected plays %v", player.played)
		}
	})

	t.Run("PlayFailure", func(t *testing.T) {
		player := &fakePlayer{err: &shared.UpstreamError{Service: "spotify", Status: http.StatusForbidden, Err: errors.New("premium")}}
		rec := serve(NewSpotifyHandler(player, nil, false, testLogger()),
			spotifyRequest(http.MethodPost, "/api/spotify/play", `{"trackId":"track1"}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if body := decodeBody[errorBody](t, rec); body.Error != "Failed to play track" {
			t.Errorf("unexpected error %q", body.Error)
		}
	})

	t.Run("State", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			status int
			msg    string
		}{
			{"expired", shared.ErrTokenExpired, http.StatusUnauthorized, "Token expired"},
			{"empty", shared.ErrNoPlaybackState, http.StatusNotFound, "No playback state available"},
			{"upstream", &shared.UpstreamError{Service: "spotify", Status: http.StatusBadGateway, Err: errors.New("x")}, http.StatusBadGateway, "Failed to get playback state"},
			{"unreachable", &shared.UpstreamError{Service: "spotify", Err: errors.New("dial")}, http.StatusInternalServerError, "Failed to fetch playback state"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := serve(NewSpotifyHandler(&fakePlayer{err: tt.err}, nil, false, testLogger()), spotifyRequest(http.MethodGet, "/api/spotify/state", ""))
				if rec.Code != tt.status {
					t.Errorf("expected %d, got %d", tt.status, rec.Code)
				}
				if body := decodeBody[errorBody](t, rec); body.Error != tt.msg {
					t.Errorf("expected %q, got %q", tt.msg, body.Error)
				}
			})
		}

		state := &spotify.PlayerState{}
		state.Playing = true
		player := &fakePlayer{state: state}
		rec := serve(NewSpotifyHandler(player, nil, false, testLogger()), spotifyRequest(http.MethodGet, "/api/spotify/state", ""))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"is_playing":true`) {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("LoginWithoutConfig", func(t *testing.T) {
		rec := serve(NewSpotifyHandler(&fakePlayer{}, nil, false, testLogger()), httptest.NewRequest(http.MethodGet, "/api/spotify/login", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected config error, got %d", rec.Code)
		}
	})

	t.Run("LoginAndCallback", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if r.Form.Get("code") != "auth-code" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
		}))
		defer tokenServer.Close()

		cfg := &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  "http://127.0.0.1:3000/api/spotify/callback",
			Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/authorize", TokenURL: tokenServer.URL},
		}
		h := NewSpotifyHandler(&fakePlayer{}, cfg, false, testLogger())

		login := serve(h, httptest.NewRequest(http.MethodGet, "/api/spotify/login", nil))
		if login.Code != http.StatusFound {
			t.Fatalf("expected redirect, got %d", login.Code)
		}
		location, _ := url.Parse(login.Header().Get("Location"))
		state := location.Query().Get("state")
		if state == "" || !strings.HasPrefix(location.String(), "https://accounts.example.com/authorize") {
			t.Fatalf("unexpected redirect %s", location)
		}

		callback := httptest.NewRequest(http.MethodGet, "/api/spotify/callback?code=auth-code&state="+state, nil)
		callback.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
		rec := serve(h, callback)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
			t.Fatalf("expected redirect home, got %d %s", rec.Code, rec.Body.String())
		}

		var token *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == SpotifyTokenCookie {
				token = c
			}
		}
		if token == nil || token.Value != "fresh-token" || !token.HttpOnly {
			t.Errorf("expected http-only token cookie, got %+v", token)
		}
	})

	t.Run("CallbackErrors", func(t *testing.T) {
		cfg := &oauth2.Config{Endpoint: oauth2.Endpoint{TokenURL: "http://127.0.0.1:0/token"}}
		h := NewSpotifyHandler(&fakePlayer{}, cfg, false, testLogger())

		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/spotify/callback", nil))
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "No code provided") {
			t.Errorf("expected 400 without code, got %d %s", rec.Code, rec.Body.String())
		}

		rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/spotify/callback?code=x&state=forged", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for a forged state, got %d", rec.Code)
		}
	})
}
