// Package server provides HTTP routing, middleware, the JSON API handlers, sessions and the
// embedded-player bridge.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns. Feature handlers implement
// [Handler] and return their [Route] table, which [BasicRouter.Mount] registers.
//
// # API
//
// [NewApp] mounts search, YouTube Music, Spotify, user and library handlers plus the /Music/ file server.
// Errors are classified with [shared.HTTPStatus] and written as {error} bodies; the search route keeps
// its {success, results, error} envelope and the user routes answer with {message}.
//
// # Sessions
//
// [SessionManager] signs an HS256 JWT into the karaoke_session cookie at Google sign-in.
// Spotify routes use their own spotify_access_token cookie.
//
// # Embedded player
//
// [Bridge] serves /player and /player/ws. It implements [playback.Transport] so the embedded
// backend can drive a YouTube IFrame player in the browser.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the one-shot callback used by terminal sign-in. It validates the state
// parameter, exchanges the authorization code, and sends the result through a channel.
package server
