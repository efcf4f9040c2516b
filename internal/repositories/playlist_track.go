package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/karaoke/internal/models"
)

// PlaylistTrackRepository manages the ordered membership of playlists.
//
// Positions are dense and start at zero.
type PlaylistTrackRepository struct {
	db *sql.DB
}

// NewPlaylistTrackRepository creates a new PlaylistTrackRepository with the given database connection
func NewPlaylistTrackRepository(db *sql.DB) *PlaylistTrackRepository {
	return &PlaylistTrackRepository{db: db}
}

// Append adds track at the end of the playlist and returns its position
func (r *PlaylistTrackRepository) Append(playlistID string, track models.Track) (int, error) {
	raw, err := encodeTrack(track)
	if err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRow("SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_tracks WHERE playlist_id = ?", playlistID).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to get next position: %w", err)
	}

	query := `
		INSERT INTO playlist_tracks (playlist_id, position, track_id, track_json, added_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, playlistID, position, track.ID(), raw, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("failed to add track to playlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit playlist track: %w", err)
	}
	return position, nil
}

// List returns the tracks of a playlist in position order
func (r *PlaylistTrackRepository) List(playlistID string) ([]models.Track, error) {
	rows, err := r.db.Query("SELECT track_json FROM playlist_tracks WHERE playlist_id = ? ORDER BY position ASC", playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// Remove deletes the track at position and closes the gap
func (r *PlaylistTrackRepository) Remove(playlistID string, position int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM playlist_tracks WHERE playlist_id = ? AND position = ?", playlistID, position)
	if err != nil {
		return fmt.Errorf("failed to remove playlist track: %w", err)
	}
	if err := expectRow(result, "playlist track", fmt.Sprintf("%s#%d", playlistID, position)); err != nil {
		return err
	}

	// shift in two steps so the primary key never collides mid-update
	if _, err := tx.Exec("UPDATE playlist_tracks SET position = -position WHERE playlist_id = ? AND position > ?", playlistID, position); err != nil {
		return fmt.Errorf("failed to reorder playlist tracks: %w", err)
	}
	if _, err := tx.Exec("UPDATE playlist_tracks SET position = -position - 1 WHERE playlist_id = ? AND position < 0", playlistID); err != nil {
		return fmt.Errorf("failed to reorder playlist tracks: %w", err)
	}

	return tx.Commit()
}

// Count returns the number of tracks in a playlist
func (r *PlaylistTrackRepository) Count(playlistID string) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = ?", playlistID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count playlist tracks: %w", err)
	}
	return n, nil
}

func scanTracks(rows *sql.Rows) ([]models.Track, error) {
	tracks := []models.Track{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		track, err := decodeTrack(raw)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}
