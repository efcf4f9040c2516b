package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/karaoke/internal/models"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., user #42, playlist #15).
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// encodeTrack serializes a track in its wire shape for storage.
func encodeTrack(t models.Track) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(t.ToMusicTrack())
	if err != nil {
		return "", fmt.Errorf("failed to encode track: %w", err)
	}
	return string(b), nil
}

func decodeTrack(raw string) (models.Track, error) {
	var mt models.MusicTrack
	if err := json.Unmarshal([]byte(raw), &mt); err != nil {
		return models.Track{}, fmt.Errorf("failed to decode track: %w", err)
	}
	return mt.Track()
}
