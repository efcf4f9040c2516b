// Package services implements the outbound HTTP clients of the karaoke app.
//
// # YouTube Data API
//
// [YouTubeService] runs search.list and videos.list with the configured API key. Requests wait on a
// [rate.Limiter] before they are sent. Non-2xx answers become [shared.UpstreamError] values carrying
// the provider status, and a missing key is reported as [shared.ErrMissingAPIKey] before any call is made.
//
// # Spotify
//
// [SpotifyPlayer] wraps the player endpoints of the zmb3 Spotify client. The bearer token comes from
// the caller on every call, so one player value serves every signed-in user. A 401 from Spotify is
// mapped to [shared.ErrTokenExpired]; other failures keep their status.
//
// # Google
//
// [GoogleAccounts] exchanges sign-in codes and reads the user's profile from the userinfo endpoint.
//
// # Streams
//
// [StreamResolver] turns a video id into a playable URL. [URLStreamResolver] joins a base URL and the id.
package services
