package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/karaoke/internal/services"
)

// AppOpts collects the dependencies of the web API.
//
// Google may be nil, in which case the sign-in routes are not registered.
// SpotifyOAuth may be nil, in which case Spotify login and callback answer with a configuration error.
type AppOpts struct {
	Logger       *log.Logger
	Search       Searcher
	Videos       services.VideoCatalog
	Streams      services.StreamResolver
	Spotify      services.PlayerService
	SpotifyOAuth *oauth2.Config
	Google       SignIn
	Sessions     *SessionManager
	Library      LibraryStores
	MusicDir     string
	// SecureCookies marks every cookie Secure; set it when serving over https.
	SecureCookies bool
}

// NewApp builds the router serving the JSON API and local media.
func NewApp(opts AppOpts) *BasicRouter {
	logger := opts.Logger
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))

	router.Mount(NewSearchHandler(opts.Search, logger))
	router.Mount(NewYouTubeMusicHandler(opts.Videos, opts.Streams, opts.Sessions, logger))
	router.Mount(NewSpotifyHandler(opts.Spotify, opts.SpotifyOAuth, opts.SecureCookies, logger))
	router.Mount(NewUserHandler(opts.Library.Users, opts.Sessions, logger))
	router.Mount(NewLibraryHandler(opts.Library, opts.Sessions, logger))
	if opts.Google != nil {
		router.Mount(NewAuthHandler(opts.Google, opts.Sessions, opts.Library.Users, opts.SecureCookies, logger))
	}
	if opts.MusicDir != "" {
		router.Handle(http.MethodGet, "/Music/", http.StripPrefix("/Music/", http.FileServer(http.Dir(opts.MusicDir))))
	}

	return router
}
