package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/services"
)

// SignIn is the provider side of the browser sign-in. [services.GoogleAccounts] implements it.
type SignIn interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Profile(ctx context.Context, token *oauth2.Token) (*services.GoogleProfile, error)
}

// UserStore is the user persistence the handlers need. [repositories.UserRepository] implements it.
type UserStore interface {
	GetByEmail(email string) (*models.User, error)
	FindByName(name, excludeEmail string) (*models.User, error)
	Ensure(email, name string) (*models.User, error)
	Update(user *models.User) error
}

// AuthHandler runs Google sign-in and owns the session cookie.
type AuthHandler struct {
	provider SignIn
	sessions *SessionManager
	users    UserStore
	secure   bool
	logger   *log.Logger
}

func NewAuthHandler(provider SignIn, sessions *SessionManager, users UserStore, secure bool, logger *log.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, sessions: sessions, users: users, secure: secure, logger: logger}
}

func (h *AuthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/auth/google/login", Handler: h.login},
		{Method: http.MethodGet, Pattern: "/auth/google/callback", Handler: h.callback},
		{Method: http.MethodGet, Pattern: "/auth/logout", Handler: h.logout},
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state := beginOAuth(w, h.secure)
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// callback creates the user on first sign-in and issues the session.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	if err := checkOAuthState(w, r); err != nil {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "No code provided", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	token, err := h.provider.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("google token exchange failed", "error", err)
		WriteError(w, err)
		return
	}

	profile, err := h.provider.Profile(ctx, token)
	if err != nil {
		h.logger.Error("google profile lookup failed", "error", err)
		WriteError(w, err)
		return
	}

	user, err := h.users.Ensure(profile.Email, profile.Name)
	if err != nil {
		h.logger.Error("failed to create user", "email", profile.Email, "error", err)
		WriteError(w, err)
		return
	}

	s := Session{Email: user.Email(), Name: user.Name(), AccessToken: token.AccessToken}
	if err := h.sessions.Issue(w, s); err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("signed in", "email", user.Email())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
