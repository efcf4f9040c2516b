package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/desertthunder/karaoke/internal/shared"
)

const defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleScopes grants profile details plus read access to the user's YouTube library.
var googleScopes = []string{
	"openid",
	"email",
	"profile",
	"https://www.googleapis.com/auth/youtube.readonly",
}

// GoogleProfile is the subset of the userinfo response used for sign-in.
type GoogleProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleAccounts performs the OAuth exchange and profile lookup for Google sign-in.
type GoogleAccounts struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleAccounts builds a sign-in client from cfg.
func NewGoogleAccounts(cfg shared.GoogleConfig) (*GoogleAccounts, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: google client_id and client_secret are required", shared.ErrConfig)
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultGoogleUserInfoURL
	}
	return &GoogleAccounts{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       googleScopes,
			Endpoint:     endpoints.Google,
		},
		userInfoURL: userInfoURL,
	}, nil
}

// OAuthConfig exposes the underlying configuration, e.g. to override the endpoint in tests.
func (g *GoogleAccounts) OAuthConfig() *oauth2.Config {
	return g.config
}

// AuthCodeURL returns the consent page URL for state.
func (g *GoogleAccounts) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token.
func (g *GoogleAccounts) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Profile fetches the signed-in user's profile with token.
func (g *GoogleAccounts) Profile(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, &shared.UpstreamError{Service: "google", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &shared.UpstreamError{Service: "google", Status: resp.StatusCode, Err: fmt.Errorf("userinfo: %s", resp.Status)}
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &shared.UpstreamError{Service: "google", Err: fmt.Errorf("failed to decode profile: %w", err)}
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: profile has no email", shared.ErrAuthFailed)
	}
	return &profile, nil
}
