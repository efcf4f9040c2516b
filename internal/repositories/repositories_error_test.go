package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

func TestUserRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewUserRepository(db)

			err := repo.Create(models.NewUser(0, "", "Test User"))
			if !errors.Is(err, shared.ErrValidation) {
				t.Fatalf("expected validation error for empty email, got %v", err)
			}

			err = repo.Create(models.NewUser(0, "not-an-email", "Test User"))
			if !errors.Is(err, shared.ErrValidation) {
				t.Fatalf("expected validation error for malformed email, got %v", err)
			}
		})

		t.Run("DuplicateEmail", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewUserRepository(db)
			createUser(t, db, "test@example.com", "User One")

			if err := repo.Create(models.NewUser(0, "test@example.com", "User Two")); err == nil {
				t.Fatal("expected error when creating user with duplicate email")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewUserRepository(db)

			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewUserRepository(db)

			user := models.NewUser(0, "ghost@example.com", "Ghost")
			user.SetID("nonexistent-id")
			if err := repo.Update(user); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewUserRepository(db)
			user := createUser(t, db, "test@example.com", "Test")

			broken := models.NewUser(0, "", "Test")
			broken.SetID(user.ID())
			if err := repo.Update(broken); !errors.Is(err, shared.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		db.Close()

		if _, err := repo.List(nil); err == nil {
			t.Error("expected error listing from a closed database")
		}
		if err := repo.Create(models.NewUser(0, "x@example.com", "X")); err == nil {
			t.Error("expected error creating in a closed database")
		}
	})
}

func TestPlaylistRepositoryErrors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if err := repo.Create(models.NewPlaylist("", "No Owner")); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected validation error without owner, got %v", err)
		}
		if err := repo.Create(models.NewPlaylist("owner", "!!!")); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected validation error for an unsluggable name, got %v", err)
		}
	})

	t.Run("UnknownOwner", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if err := repo.Create(models.NewPlaylist("missing-user", "Orphan")); err == nil {
			t.Error("expected foreign key violation for an unknown owner")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if _, err := repo.GetBySlug("someone", "nothing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestFavoriteRepositoryErrors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFavoriteRepository(db)

	if err := repo.Add("missing-user", testTrack(t, "a")); err == nil {
		t.Error("expected foreign key violation for an unknown user")
	}
	if err := repo.Add("missing-user", models.Track{}); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected validation error for an invalid track, got %v", err)
	}
}
