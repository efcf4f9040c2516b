package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

// PlaylistStore persists playlists. [repositories.PlaylistRepository] implements it.
type PlaylistStore interface {
	Create(playlist *models.Playlist) error
	GetBySlug(userID, slug string) (*models.Playlist, error)
	ListByUser(userID string) ([]*models.Playlist, error)
	Delete(id string) error
}

// PlaylistTrackStore persists playlist entries. [repositories.PlaylistTrackRepository] implements it.
type PlaylistTrackStore interface {
	Append(playlistID string, track models.Track) (int, error)
	List(playlistID string) ([]models.Track, error)
	Remove(playlistID string, position int) error
}

// FavoriteStore persists favorites. [repositories.FavoriteRepository] implements it.
type FavoriteStore interface {
	Add(userID string, track models.Track) error
	Remove(userID, trackID string) error
	List(userID string) ([]models.Favorite, error)
}

// LibraryStores bundles the stores behind [LibraryHandler].
type LibraryStores struct {
	Users     UserStore
	Playlists PlaylistStore
	Entries   PlaylistTrackStore
	Favorites FavoriteStore
}

type createPlaylistRequest struct {
	Name string `json:"name"`
}

// LibraryHandler serves the playlists and favorites of the signed-in user.
type LibraryHandler struct {
	stores   LibraryStores
	sessions *SessionManager
	logger   *log.Logger
}

func NewLibraryHandler(stores LibraryStores, sessions *SessionManager, logger *log.Logger) *LibraryHandler {
	return &LibraryHandler{stores: stores, sessions: sessions, logger: logger}
}

func (h *LibraryHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/playlists", Handler: h.listPlaylists},
		{Method: http.MethodPost, Pattern: "/api/playlists", Handler: h.createPlaylist},
		{Method: http.MethodGet, Pattern: "/api/playlists/{slug}", Handler: h.getPlaylist},
		{Method: http.MethodDelete, Pattern: "/api/playlists/{slug}", Handler: h.deletePlaylist},
		{Method: http.MethodPost, Pattern: "/api/playlists/{slug}/tracks", Handler: h.addTrack},
		{Method: http.MethodDelete, Pattern: "/api/playlists/{slug}/tracks/{position}", Handler: h.removeTrack},
		{Method: http.MethodGet, Pattern: "/api/favorites", Handler: h.listFavorites},
		{Method: http.MethodPost, Pattern: "/api/favorites", Handler: h.addFavorite},
		{Method: http.MethodDelete, Pattern: "/api/favorites", Handler: h.removeFavorite},
	}
}

// user resolves the signed-in user, creating the record if sign-in happened before it existed.
func (h *LibraryHandler) user(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	s, err := h.sessions.Read(r)
	if err != nil {
		WriteJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return nil, false
	}
	user, err := h.stores.Users.Ensure(s.Email, s.Name)
	if err != nil {
		h.logger.Error("failed to resolve user", "email", s.Email, "error", err)
		WriteError(w, err)
		return nil, false
	}
	return user, true
}

func (h *LibraryHandler) playlist(w http.ResponseWriter, r *http.Request, user *models.User) (*models.Playlist, bool) {
	playlist, err := h.stores.Playlists.GetBySlug(user.ID(), r.PathValue("slug"))
	if err != nil {
		WriteError(w, err)
		return nil, false
	}
	return playlist, true
}

func (h *LibraryHandler) listPlaylists(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	playlists, err := h.stores.Playlists.ListByUser(user.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	if playlists == nil {
		playlists = []*models.Playlist{}
	}
	WriteJSON(w, http.StatusOK, map[string][]*models.Playlist{"playlists": playlists})
}

func (h *LibraryHandler) createPlaylist(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	playlist := models.NewPlaylist(user.ID(), req.Name)
	if err := h.stores.Playlists.Create(playlist); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]*models.Playlist{"playlist": playlist})
}

func (h *LibraryHandler) getPlaylist(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	playlist, ok := h.playlist(w, r, user)
	if !ok {
		return
	}

	tracks, err := h.stores.Entries.List(playlist.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	playlist.SetTracks(tracks)
	WriteJSON(w, http.StatusOK, map[string]*models.Playlist{"playlist": playlist})
}

func (h *LibraryHandler) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	playlist, ok := h.playlist(w, r, user)
	if !ok {
		return
	}

	if err := h.stores.Playlists.Delete(playlist.ID()); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LibraryHandler) addTrack(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	playlist, ok := h.playlist(w, r, user)
	if !ok {
		return
	}

	track, err := decodeTrack(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	position, err := h.stores.Entries.Append(playlist.ID(), track)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]int{"position": position})
}

func (h *LibraryHandler) removeTrack(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	playlist, ok := h.playlist(w, r, user)
	if !ok {
		return
	}

	position, err := strconv.Atoi(r.PathValue("position"))
	if err != nil {
		WriteError(w, fmt.Errorf("%w: position must be a number", shared.ErrValidation))
		return
	}
	if err := h.stores.Entries.Remove(playlist.ID(), position); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LibraryHandler) listFavorites(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	favorites, err := h.stores.Favorites.List(user.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	tracks := lo.Map(favorites, func(f models.Favorite, _ int) models.MusicTrack { return f.Track.ToMusicTrack() })
	WriteJSON(w, http.StatusOK, recommendBody{Tracks: tracks})
}

func (h *LibraryHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	track, err := decodeTrack(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.stores.Favorites.Add(user.ID(), track); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]models.MusicTrack{"track": track.ToMusicTrack()})
}

// removeFavorite takes the track id from ?id= since local ids are media paths.
func (h *LibraryHandler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteError(w, fmt.Errorf("%w: id", shared.ErrMissingArgument))
		return
	}
	if err := h.stores.Favorites.Remove(user.ID(), id); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeTrack reads a wire track from the body and validates it.
func decodeTrack(r *http.Request) (models.Track, error) {
	var mt models.MusicTrack
	if err := decodeJSON(r, &mt); err != nil {
		return models.Track{}, err
	}
	return mt.Track()
}
