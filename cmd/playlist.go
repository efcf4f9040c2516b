package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/repositories"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/tasks"
)

// openDB opens the configured database and runs pending migrations.
func (r *Runner) openDB() (*sql.DB, func(), error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, func() { db.Close() }, nil
}

func userByEmail(db *sql.DB, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: --user is required", shared.ErrMissingArgument)
	}
	user, err := repositories.NewUserRepository(db).GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", email, err)
	}
	return user, nil
}

// PlaylistList lists a user's playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()
	return r.listPlaylists(db, cmd.String("user"), cmd.Bool("json"), cmd.Bool("pretty"))
}

func (r *Runner) listPlaylists(db *sql.DB, email string, useJSON, pretty bool) error {
	user, err := userByEmail(db, email)
	if err != nil {
		return err
	}

	playlists, err := repositories.NewPlaylistRepository(db).ListByUser(user.ID())
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if useJSON {
		return r.writeJSON(map[string]any{"playlists": playlists}, pretty)
	}

	entries := repositories.NewPlaylistTrackRepository(db)
	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		count, err := entries.Count(p.ID())
		if err != nil {
			return fmt.Errorf("failed to count tracks: %w", err)
		}
		r.writePlain("%d. %s (%d tracks)\n", i+1, p.Name(), count)
		r.writePlain("   Slug: %s\n", p.Slug())
	}
	return nil
}

// PlaylistExport writes a playlist to CSV, Markdown or plain text files.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()
	return r.exportPlaylist(db, cmd.String("user"), cmd.StringArg("slug"), cmd.String("format"), cmd.String("output"))
}

func (r *Runner) exportPlaylist(db *sql.DB, email, slug, format, output string) error {
	if slug == "" {
		return fmt.Errorf("%w: playlist slug is required", shared.ErrMissingArgument)
	}
	user, err := userByEmail(db, email)
	if err != nil {
		return err
	}

	playlist, err := repositories.NewPlaylistRepository(db).GetBySlug(user.ID(), slug)
	if err != nil {
		return fmt.Errorf("failed to find playlist %s: %w", slug, err)
	}
	tracks, err := repositories.NewPlaylistTrackRepository(db).List(playlist.ID())
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}
	playlist.SetTracks(tracks)

	r.logger.Info("exporting playlist", "slug", slug, "format", format, "tracks", len(tracks))

	switch strings.ToLower(format) {
	case "csv":
		result, err := formatter.WriteCSVExport(playlist, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Tracks written to %s\n", result.TracksFile)
		r.writePlain("✓ Metadata written to %s\n", result.MetadataFile)
	case "md", "markdown":
		result, err := formatter.WriteMarkdownExport(playlist, output, formatter.CoverURL(playlist))
		if err != nil {
			return err
		}
		for _, f := range result.Files {
			r.writePlain("✓ Wrote %s\n", f)
		}
	case "txt", "text":
		path, err := formatter.WriteTextExport(playlist, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q (csv, markdown, text)", shared.ErrValidation, format)
	}
	return nil
}

// repositorySource loads a user's playlists with their tracks for bulk exports.
type repositorySource struct {
	userID    string
	playlists *repositories.PlaylistRepository
	entries   *repositories.PlaylistTrackRepository
}

func (s repositorySource) Playlist(_ context.Context, slug string) (*models.Playlist, error) {
	p, err := s.playlists.GetBySlug(s.userID, slug)
	if err != nil {
		return nil, err
	}
	tracks, err := s.entries.List(p.ID())
	if err != nil {
		return nil, err
	}
	p.SetTracks(tracks)
	return p, nil
}

// PlaylistExportAll exports all of a user's playlists, printing progress as each one finishes.
func (r *Runner) PlaylistExportAll(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()
	return r.exportAllPlaylists(ctx, db, cmd.String("user"), tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
	})
}

func (r *Runner) exportAllPlaylists(ctx context.Context, db *sql.DB, email string, opts tasks.BulkExportOpts) error {
	user, err := userByEmail(db, email)
	if err != nil {
		return err
	}

	playlists := repositories.NewPlaylistRepository(db)
	all, err := playlists.ListByUser(user.ID())
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}
	if len(all) == 0 {
		return r.writePlain("No playlists to export.\n")
	}
	slugs := lo.Map(all, func(p *models.Playlist, _ int) string { return p.Slug() })

	source := repositorySource{userID: user.ID(), playlists: playlists, entries: repositories.NewPlaylistTrackRepository(db)}
	prog := make(chan tasks.ProgressUpdate, 2*len(slugs)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			if u.Phase != tasks.LoadPlaylist {
				r.writePlain("%s\n", u.Message)
			}
		}
	}()

	result, err := tasks.NewExporter(source, r.logger).BulkExport(ctx, prog, slugs, opts)
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Exported %d/%d playlists to %s\n", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		return fmt.Errorf("%d playlists failed to export", result.FailedExports)
	}
	return nil
}
