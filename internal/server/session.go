package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/karaoke/internal/shared"
)

const (
	// SessionCookie holds the signed session token.
	SessionCookie = "karaoke_session"
	// DefaultSessionTTL is the lifetime of a freshly issued session.
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// Session is the signed-in identity carried in the session cookie.
//
// AccessToken is the Google access token obtained at sign-in; the YouTube Music routes require it.
type Session struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session cookies.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a manager signing with secret.
func NewSessionManager(secret string, ttl time.Duration, secure bool) (*SessionManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret is required", shared.ErrConfig)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}, nil
}

// Sign returns the token for s, stamping issue and expiry times.
func (m *SessionManager) Sign(s Session) (string, error) {
	now := m.now()
	s.IssuedAt = jwt.NewNumericDate(now)
	s.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	s.Subject = s.Email

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &s)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its session.
func (m *SessionManager) Parse(raw string) (*Session, error) {
	var s Session
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(raw, &s, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, shared.ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	case s.Email == "":
		return nil, fmt.Errorf("%w: session has no email", shared.ErrInvalidSession)
	}
	return &s, nil
}

// Issue signs s and stores it in the session cookie.
func (m *SessionManager) Issue(w http.ResponseWriter, s Session) error {
	signed, err := m.Sign(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the session of r, or [shared.ErrNotAuthenticated] when there is none.
func (m *SessionManager) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return m.Parse(cookie.Value)
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
