// Package repositories implements SQLite persistence for users and their libraries.
//
// Key Implementations:
//   - [UserRepository] : accounts created on first sign-in, looked up by email or nickname
//   - [PlaylistRepository] : per-user playlists addressed by slug
//   - [PlaylistTrackRepository] : ordered playlist membership, tracks stored in wire shape
//   - [FavoriteRepository] : per-user favorite tracks
//
// Users and playlists are soft deleted via deleted_at and excluded from queries by default.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
