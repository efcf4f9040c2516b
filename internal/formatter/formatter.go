// package formatter renders playlists and track lists as CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/karaoke/internal/models"
)

// ExportToCSV converts a playlist to CSV format with columns: ID, Title, Artist, Duration, Source, SourceURL
func ExportToCSV(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Duration", "Source", "SourceURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range p.Tracks() {
		mt := track.ToMusicTrack()
		record := []string{mt.ID, mt.Title, mt.Artist, mt.Duration, mt.Source.String(), mt.SourceURL}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown format with optional cover image
func ExportToMarkdown(p *models.Playlist, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", p.Name()))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(p.Tracks())))

	buf.WriteString("## Tracks\n\n")
	for i, track := range p.Tracks() {
		durationPart := ""
		if track.Duration() != "" {
			durationPart = fmt.Sprintf(" [%s]", track.Duration())
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s (%s)\n", i+1, track.Label(), durationPart, track.Origin()))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", p.Name()))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(p.Tracks())))

	if err := WriteTrackList(&buf, p.Tracks()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteTrackList writes one numbered line per track, with duration and origin when known.
func WriteTrackList(w io.Writer, tracks []models.Track) error {
	for i, track := range tracks {
		line := fmt.Sprintf("%d. %s", i+1, track.Label())
		if track.Duration() != "" {
			line += " (" + track.Duration() + ")"
		}
		if _, err := fmt.Fprintf(w, "%s\n   %s: %s\n", line, track.Origin(), track.ID()); err != nil {
			return fmt.Errorf("failed to write track list: %w", err)
		}
	}
	return nil
}

// CoverURL returns the first thumbnail among the playlist's tracks, or "".
func CoverURL(p *models.Playlist) string {
	for _, t := range p.Tracks() {
		if t.Thumbnail() != "" {
			return t.Thumbnail()
		}
	}
	return ""
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(p *models.Playlist) ([]byte, error) {
	return json.MarshalIndent(map[string]any{
		"id":         p.ID(),
		"name":       p.Name(),
		"slug":       p.Slug(),
		"trackCount": len(p.Tracks()),
		"createdAt":  p.CreatedAt(),
	}, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to the playlist slug as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(p *models.Playlist, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = p.Slug()
	}

	csvData, err := ExportToCSV(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist slug.
// The imageURL parameter is optional - if provided, attempts to download the cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(p *models.Playlist, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = p.Slug()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(p, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {slug}_tracks.txt as the filename.
func WriteTextExport(p *models.Playlist, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.txt", p.Slug())
	}

	textData, err := ExportToText(p)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
