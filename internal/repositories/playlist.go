package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

const playlistColumns = "id, sequence, user_id, name, slug, created_at, updated_at, deleted_at"

// PlaylistRepository implements [models.Repository] for [models.Playlist] persistence.
//
// Slugs are unique per user. Tracks are managed by [PlaylistTrackRepository].
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO playlists (id, sequence, user_id, name, slug, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		playlist.UserID(),
		playlist.Name(),
		playlist.Slug(),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("%w: playlist %q already exists", shared.ErrValidation, playlist.Slug())
		}
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	playlist.SetID(id)
	playlist.SetSequence(sequence)
	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE id = ? AND deleted_at IS NULL"

	playlist, err := scanPlaylist(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	return playlist, err
}

// GetBySlug retrieves the playlist of userID with the given slug
func (r *PlaylistRepository) GetBySlug(userID, slug string) (*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE user_id = ? AND slug = ? AND deleted_at IS NULL"

	playlist, err := scanPlaylist(r.db.QueryRow(query, userID, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, slug)
	}
	return playlist, err
}

// Update renames a playlist, re-deriving its slug
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	playlist.SetUpdatedAt(now)

	query := `
		UPDATE playlists
		SET name = ?, slug = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, playlist.Name(), playlist.Slug(), now, playlist.ID())
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	return expectRow(result, "playlist", playlist.ID())
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(id string) error {
	query := `
		UPDATE playlists
		SET deleted_at = ?, slug = slug || '-' || ?
		WHERE id = ? AND deleted_at IS NULL
	`

	// the slug is freed so a new playlist may reuse it
	result, err := r.db.Exec(query, time.Now().UTC(), id, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	return expectRow(result, "playlist", id)
}

// List retrieves playlists matching the given criteria ("user_id"), excluding soft-deleted playlists
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE deleted_at IS NULL"
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// ListByUser returns the playlists of a user in creation order
func (r *PlaylistRepository) ListByUser(userID string) ([]*models.Playlist, error) {
	return r.List(map[string]any{"user_id": userID})
}

func scanPlaylist(s scanner) (*models.Playlist, error) {
	var (
		id        string
		sequence  int
		userID    string
		name      string
		slug      string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &userID, &name, &slug, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	playlist := models.NewPlaylist(userID, name)
	playlist.SetID(id)
	playlist.SetSequence(sequence)
	playlist.SetSlug(slug)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}
	return playlist, nil
}
