// Package models defines domain entities and persistence interfaces for the karaoke service.
//
// The package contains three categories of types:
//
// 1. The playable unit
//   - [Track] : an immutable, validated item that a playback backend can load
//   - [Origin] : the source that produced a Track and which backend plays it
//
// 2. Wire shapes shared by every route and adapter
//   - [MusicTrack] : the JSON form of a Track
//   - [SearchResult] / [SearchResponse] : the aggregated search payload
//
// 3. Persistent Entities: Database-backed models with soft delete support
//   - [User] : accounts created on first sign-in
//   - [Playlist] : user playlists addressed by slug
//   - [Favorite] : tracks a user marked as favorite
//
// All persistent entities implement the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
