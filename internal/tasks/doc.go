// Package tasks runs long playlist operations with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes many playlists to disk concurrently:
//   - A producer loads each playlist through a [PlaylistSource], throttled by a rate limiter
//   - A bounded worker pool renders each playlist with the formatter package
//   - Partial failures are collected per playlist rather than aborting the run
//   - A manifest summarizing the run is written next to the exports
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends use select with default,
// so a slow or absent reader never stalls an export.
package tasks
