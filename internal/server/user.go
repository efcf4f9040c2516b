package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

type nicknameBody struct {
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
}

// UserHandler serves the profile of the signed-in user.
type UserHandler struct {
	users    UserStore
	sessions *SessionManager
	logger   *log.Logger
}

func NewUserHandler(users UserStore, sessions *SessionManager, logger *log.Logger) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, logger: logger}
}

func (h *UserHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/user/profile", Handler: h.profile},
		{Method: http.MethodPost, Pattern: "/api/user/nickname", Handler: h.nickname},
	}
}

func (h *UserHandler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, err := h.sessions.Read(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return s, true
}

func (h *UserHandler) profile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByEmail(s.Email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case err != nil:
		h.logger.Error("profile lookup failed", "email", s.Email, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error loading profile")
	default:
		WriteJSON(w, http.StatusOK, map[string]*models.User{"user": user})
	}
}

// nickname renames the signed-in user after checking length and uniqueness,
// then re-issues the session so it carries the new name.
func (h *UserHandler) nickname(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req nicknameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	nickname := strings.TrimSpace(req.Nickname)

	if err := models.ValidateNickname(nickname); err != nil {
		writeMessage(w, http.StatusBadRequest, "Nickname must be at least 3 characters long")
		return
	}

	taken, err := h.users.FindByName(nickname, s.Email)
	if err != nil {
		h.logger.Error("nickname lookup failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error updating nickname")
		return
	}
	if taken != nil {
		writeMessage(w, http.StatusBadRequest, "This nickname is already taken")
		return
	}

	user, err := h.users.GetByEmail(s.Email)
	if err == nil {
		user.SetName(nickname)
		err = h.users.Update(user)
	}
	if err != nil {
		h.logger.Error("nickname update failed", "email", s.Email, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error updating nickname")
		return
	}

	s.Name = nickname
	if err := h.sessions.Issue(w, *s); err != nil {
		h.logger.Warn("failed to refresh session", "error", err)
	}
	WriteJSON(w, http.StatusOK, nicknameBody{Message: "Nickname updated successfully", User: user})
}
