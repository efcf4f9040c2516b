package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/karaoke/internal/shared"
)

func newTestSessions(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager("test-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	return m
}

// withSession returns r carrying a signed session cookie for s.
func withSession(t *testing.T, m *SessionManager, r *http.Request, s Session) *http.Request {
	t.Helper()
	raw, err := m.Sign(s)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: raw})
	return r
}

func TestSessionManager(t *testing.T) {
	t.Run("RequiresSecret", func(t *testing.T) {
		if _, err := NewSessionManager("", time.Hour, false); !errors.Is(err, shared.ErrConfig) {
			t.Errorf("expected config error, got %v", err)
		}
	})

	t.Run("IssueAndRead", func(t *testing.T) {
		m := newTestSessions(t)
		rec := httptest.NewRecorder()
		if err := m.Issue(rec, Session{Email: "singer@example.com", Name: "Singer", AccessToken: "tok"}); err != nil {
			t.Fatalf("Issue() error = %v", err)
		}

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != SessionCookie || !cookies[0].HttpOnly {
			t.Fatalf("unexpected cookies %+v", cookies)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		s, err := m.Read(req)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if s.Email != "singer@example.com" || s.Name != "Singer" || s.AccessToken != "tok" {
			t.Errorf("unexpected session %+v", s)
		}
	})

	t.Run("MissingCookie", func(t *testing.T) {
		m := newTestSessions(t)
		_, err := m.Read(httptest.NewRequest(http.MethodGet, "/", nil))
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		m := newTestSessions(t)
		issued := time.Now().Add(-2 * time.Hour)
		m.now = func() time.Time { return issued }
		raw, err := m.Sign(Session{Email: "singer@example.com"})
		if err != nil {
			t.Fatal(err)
		}
		m.now = time.Now

		if _, err := m.Parse(raw); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		raw, err := newTestSessions(t).Sign(Session{Email: "singer@example.com"})
		if err != nil {
			t.Fatal(err)
		}
		other, _ := NewSessionManager("another-secret", time.Hour, false)
		if _, err := other.Parse(raw); !errors.Is(err, shared.ErrInvalidSession) {
			t.Errorf("expected ErrInvalidSession, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestSessions(t).Clear(rec)
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
			t.Errorf("expected an expiring cookie, got %+v", cookies)
		}
	})
}
