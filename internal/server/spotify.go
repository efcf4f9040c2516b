package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/shared"
)

// SpotifyTokenCookie carries the Spotify bearer token of the browser.
const SpotifyTokenCookie = "spotify_access_token"

type playRequest struct {
	TrackID  string `json:"trackId"`
	DeviceID string `json:"deviceId"`
}

type devicesBody struct {
	Devices []spotify.PlayerDevice `json:"devices"`
}

// SpotifyHandler proxies the Spotify Connect player endpoints using the token cookie,
// and runs the browser sign-in that sets it.
type SpotifyHandler struct {
	player services.PlayerService
	oauth  *oauth2.Config
	secure bool
	logger *log.Logger
}

// NewSpotifyHandler creates the handler. A nil oauth config disables login and callback.
func NewSpotifyHandler(player services.PlayerService, oauth *oauth2.Config, secure bool, logger *log.Logger) *SpotifyHandler {
	return &SpotifyHandler{player: player, oauth: oauth, secure: secure, logger: logger}
}

func (h *SpotifyHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/spotify/devices", Handler: h.devices},
		{Method: http.MethodPost, Pattern: "/api/spotify/play", Handler: h.play},
		{Method: http.MethodGet, Pattern: "/api/spotify/state", Handler: h.state},
		{Method: http.MethodGet, Pattern: "/api/spotify/login", Handler: h.login},
		{Method: http.MethodGet, Pattern: "/api/spotify/callback", Handler: h.callback},
	}
}

// token returns the bearer token cookie, answering 401 when it is absent.
func (h *SpotifyHandler) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SpotifyTokenCookie)
	if err != nil || cookie.Value == "" {
		WriteJSON(w, http.StatusUnauthorized, errorBody{Error: "Not authenticated"})
		return "", false
	}
	return cookie.Value, true
}

func (h *SpotifyHandler) devices(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	devices, err := h.player.Devices(r.Context(), token)
	if err != nil {
		h.logger.Warn("spotify devices failed", "error", err)
		writeFailure(w, err, "Failed to fetch devices")
		return
	}
	WriteJSON(w, http.StatusOK, devicesBody{Devices: devices})
}

func (h *SpotifyHandler) play(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	var req playRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.player.Play(r.Context(), token, req.TrackID, req.DeviceID); err != nil {
		h.logger.Warn("spotify play failed", "trackId", req.TrackID, "error", err)
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: "Failed to play track"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *SpotifyHandler) state(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	state, err := h.player.State(r.Context(), token)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, state)
	case errors.Is(err, shared.ErrAuth):
		WriteJSON(w, http.StatusUnauthorized, errorBody{Error: "Token expired"})
	case errors.Is(err, shared.ErrNoPlaybackState):
		WriteJSON(w, http.StatusNotFound, errorBody{Error: "No playback state available"})
	case shared.StatusOf(err, 0) != 0:
		writeFailure(w, err, "Failed to get playback state")
	default:
		h.logger.Error("spotify state failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to fetch playback state"})
	}
}

func (h *SpotifyHandler) login(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		WriteError(w, shared.ErrMissingConfig)
		return
	}
	state := beginOAuth(w, h.secure)
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// callback exchanges the code and stores the access token as an http-only cookie.
func (h *SpotifyHandler) callback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		WriteError(w, shared.ErrMissingConfig)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "No code provided", http.StatusBadRequest)
		return
	}
	if err := checkOAuthState(w, r); err != nil {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("spotify token exchange failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	cookie := &http.Cookie{
		Name:     SpotifyTokenCookie,
		Value:    token.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !token.Expiry.IsZero() {
		cookie.MaxAge = max(1, int(time.Until(token.Expiry).Seconds()))
	}
	http.SetCookie(w, cookie)
	http.Redirect(w, r, "/", http.StatusFound)
}
