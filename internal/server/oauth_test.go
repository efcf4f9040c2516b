package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"github.com/desertthunder/karaoke/internal/shared"
)

func TestOAuthHandler(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"cli-token","token_type":"Bearer","refresh_token":"refresh"}`))
	}))
	defer tokenServer.Close()

	config := &oauth2.Config{ClientID: "id", ClientSecret: "secret", Endpoint: oauth2.Endpoint{TokenURL: tokenServer.URL}}

	t.Run("Success", func(t *testing.T) {
		h := NewOAuthHandler(config, "state-1", "/api/spotify/callback")
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/spotify/callback?state=state-1&code=abc", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
		}

		result := <-h.Result()
		if result.Error() != nil || result.Token.AccessToken != "cli-token" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("StateMismatch", func(t *testing.T) {
		h := NewOAuthHandler(config, "state-1", "/callback")
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected auth failure, got %v", result.Error())
		}
	})

	t.Run("Denied", func(t *testing.T) {
		h := NewOAuthHandler(config, "s", "/callback")
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); result.Error() == nil {
			t.Error("expected an error result")
		}
	})

	t.Run("OnlyOnce", func(t *testing.T) {
		h := NewOAuthHandler(config, "s", "/callback")
		serve(h, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=abc", nil))
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}
	})
}
