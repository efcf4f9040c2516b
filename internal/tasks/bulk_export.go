package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 20.0
	manifestFilename = "export_manifest.json"
)

// PlaylistSource loads a playlist, tracks included, by slug.
type PlaylistSource interface {
	Playlist(ctx context.Context, slug string) (*models.Playlist, error)
}

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: karaoke_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Playlist loads per second (default: 20)
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	Slug    string   `json:"slug"`
	Name    string   `json:"name"`
	Tracks  int      `json:"tracks"`
	Files   []string `json:"files,omitempty"`
	Success bool     `json:"success"`
	Error   error    `json:"-"`
	Message string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	Format            string                 `json:"format"`
	ExportedAt        time.Time              `json:"exportedAt"`
	TotalPlaylists    int                    `json:"totalPlaylists"`
	SuccessfulExports int                    `json:"successfulExports"`
	FailedExports     int                    `json:"failedExports"`
	OutputDirectory   string                 `json:"outputDirectory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

type exportJob struct {
	slug     string
	playlist *models.Playlist
}

// Exporter writes playlists from a [PlaylistSource] to disk.
type Exporter struct {
	source PlaylistSource
	logger *log.Logger
}

// NewExporter creates an [Exporter]. A nil logger discards output.
func NewExporter(source PlaylistSource, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{source: source, logger: logger}
}

// normalizeFormat maps format aliases onto the canonical names used in file layouts.
func normalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "json":
		return "json", nil
	case "csv":
		return "csv", nil
	case "md", "markdown":
		return "markdown", nil
	case "txt", "text":
		return "txt", nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", shared.ErrValidation, format)
	}
}

// BulkExport exports the playlists named by slugs concurrently with rate limiting and progress tracking.
//
// Loads are throttled and fan out to a bounded pool of workers. A playlist that fails to load or render
// is recorded as failed and the run continues. The manifest is written once every worker is done.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, slugs []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: playlist source not initialized", shared.ErrConfig)
	}

	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("karaoke_export_%d", time.Now().Unix())
	}
	opts.NumWorkers = min(max(opts.NumWorkers, 0), maxWorkers)
	if opts.NumWorkers == 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          format,
		ExportedAt:      time.Now().UTC(),
		TotalPlaylists:  len(slugs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(slugs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(slugs))
	results := make(chan PlaylistExportResult, len(slugs))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, format, opts.OutputDir)
	}

	go func() {
		defer close(jobs)
		for i, slug := range slugs {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, loadingUpdate(i+1, len(slugs), slug))

			p, err := e.source.Playlist(ctx, slug)
			if err != nil {
				results <- PlaylistExportResult{Slug: slug, Name: slug, Error: fmt.Errorf("failed to load playlist: %w", err)}
				continue
			}
			jobs <- exportJob{slug: slug, playlist: p}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Message = res.Error.Error()
			result.FailedExports++
			e.logger.Warn("playlist export failed", "slug", res.Slug, "error", res.Error)
			sendProgress(prog, exportFailedUpdate(completed, len(slugs), res.Name, res.Error))
		} else {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(slugs), res.Name, len(res.Files)))
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestFilename)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- PlaylistExportResult,
	format, outputDir string,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			results <- PlaylistExportResult{Slug: job.slug, Name: job.playlist.Name(), Error: ctx.Err()}
			continue
		}
		results <- exportSinglePlaylist(job, format, outputDir)
	}
}

func exportSinglePlaylist(j exportJob, format, outputDir string) PlaylistExportResult {
	p := j.playlist
	result := PlaylistExportResult{
		Slug:   j.slug,
		Name:   p.Name(),
		Tracks: len(p.Tracks()),
	}

	switch format {
	case "csv":
		res, err := formatter.WriteCSVExport(p, filepath.Join(outputDir, p.Slug()))
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{res.TracksFile, res.MetadataFile}

	case "markdown":
		res, err := formatter.WriteMarkdownExport(p, filepath.Join(outputDir, p.Slug()), formatter.CoverURL(p))
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = res.Files

	case "txt":
		path, err := formatter.WriteTextExport(p, filepath.Join(outputDir, p.Slug()+"_tracks.txt"))
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{path}

	default:
		path := filepath.Join(outputDir, p.Slug()+".json")
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
