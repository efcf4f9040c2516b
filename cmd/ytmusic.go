package main

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/services"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/sources"
)

const ytMusicPageSize = 10

func (r *Runner) requireYouTube() error {
	if !r.youtube.Configured() {
		return shared.ErrMissingAPIKey
	}
	return nil
}

func (r *Runner) writeTracks(tracks []models.Track, nextPageToken string, useJSON, pretty bool) error {
	if useJSON {
		wire := lo.Map(tracks, func(t models.Track, _ int) models.MusicTrack { return t.ToMusicTrack() })
		body := map[string]any{"tracks": wire}
		if nextPageToken != "" {
			body["nextPageToken"] = nextPageToken
		}
		return r.writeJSON(body, pretty)
	}

	r.writePlain("Found %d tracks:\n\n", len(tracks))
	if err := formatter.WriteTrackList(r.output, tracks); err != nil {
		return err
	}
	if nextPageToken != "" {
		r.writePlainln("Next page: --page-token %s", nextPageToken)
	}
	return nil
}

// YTMusicSearch searches music videos.
func (r *Runner) YTMusicSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}
	if err := r.requireYouTube(); err != nil {
		return err
	}

	r.logger.Info("searching youtube music", "query", query)

	resp, err := r.youtube.Search(ctx, services.SearchParams{
		Query:      query,
		PageToken:  cmd.String("page-token"),
		MaxResults: ytMusicPageSize,
		MusicOnly:  true,
	})
	if err != nil {
		return fmt.Errorf("youtube music search failed: %w", err)
	}

	tracks := sources.FromYouTubeSearch(models.OriginYouTubeMusic, resp.Items)
	return r.writeTracks(tracks, resp.NextPageToken, cmd.Bool("json"), cmd.Bool("pretty"))
}

// YTMusicRecommend lists the most popular music videos.
func (r *Runner) YTMusicRecommend(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireYouTube(); err != nil {
		return err
	}

	resp, err := r.youtube.Popular(ctx, ytMusicPageSize)
	if err != nil {
		return fmt.Errorf("youtube music recommend failed: %w", err)
	}

	tracks := sources.FromYouTubeVideos(models.OriginYouTubeMusic, resp.Items)
	return r.writeTracks(tracks, "", cmd.Bool("json"), cmd.Bool("pretty"))
}

// YTMusicStream resolves a stream URL for a video id.
func (r *Runner) YTMusicStream(ctx context.Context, cmd *cli.Command) error {
	videoID := cmd.StringArg("video-id")

	streamURL, err := r.streams.Resolve(ctx, videoID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"streamUrl": streamURL}, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", streamURL)
}
