// Package sources converts provider data into [models.Track] and [models.SearchResult] values.
//
// The local adapter lists MP3 files in the music directory and derives title, artist and song type
// from each filename. The YouTube adapters map Data API items, dropping items without a video id.
// Adapters never fail on missing optional fields; empty thumbnails and durations stay empty.
package sources
