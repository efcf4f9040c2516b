package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/karaoke/internal/models"
)

// FavoriteRepository stores the favorite tracks of each user, at most once per track id.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new FavoriteRepository with the given database connection
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add marks track as a favorite of userID. Adding an existing favorite is a no-op.
func (r *FavoriteRepository) Add(userID string, track models.Track) error {
	raw, err := encodeTrack(track)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO favorites (user_id, track_id, track_json, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, userID, track.ID(), raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove unmarks a favorite
func (r *FavoriteRepository) Remove(userID, trackID string) error {
	result, err := r.db.Exec("DELETE FROM favorites WHERE user_id = ? AND track_id = ?", userID, trackID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return expectRow(result, "favorite", trackID)
}

// List returns the favorites of userID, most recent first
func (r *FavoriteRepository) List(userID string) ([]models.Favorite, error) {
	rows, err := r.db.Query(`
		SELECT track_json, created_at FROM favorites
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var (
			raw       string
			createdAt time.Time
		)
		if err := rows.Scan(&raw, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		track, err := decodeTrack(raw)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, models.Favorite{UserID: userID, Track: track, CreatedAt: createdAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return favorites, nil
}

// Has reports whether trackID is a favorite of userID
func (r *FavoriteRepository) Has(userID, trackID string) (bool, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM favorites WHERE user_id = ? AND track_id = ?", userID, trackID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return n > 0, nil
}
