package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("ID3"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", n, err)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	tc := []struct {
		name       string
		filename   string
		wantTitle  string
		wantArtist string
	}{
		{name: "dash separator", filename: "Adele - Hello.mp3", wantTitle: "Hello", wantArtist: "Adele"},
		{name: "download prefix", filename: "y2mate.com - Queen - Bohemian Rhapsody.mp3", wantTitle: "Bohemian Rhapsody", wantArtist: "Queen"},
		{name: "splits on first dash only", filename: "A - B - C.mp3", wantTitle: "B - C", wantArtist: "A"},
		{name: "double space", filename: "Beatles  Let It Be.MP3", wantTitle: "Let It Be", wantArtist: "Beatles"},
		{name: "no separator", filename: "Traditional Korean ARIRANG karaoke.mp3", wantTitle: "Traditional Korean ARIRANG karaoke"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			title, artist := CleanTitle(tt.filename)
			if title != tt.wantTitle || artist != tt.wantArtist {
				t.Errorf("CleanTitle(%q) = (%q, %q), want (%q, %q)", tt.filename, title, artist, tt.wantTitle, tt.wantArtist)
			}
		})
	}
}

func TestSongType(t *testing.T) {
	tc := map[string]string{
		"Disco Inferno":           "pop",
		"Heavy Metal Thunder":     "rock",
		"Summer EDM Remix":        "remix",
		"Korean ARIRANG karaoke":  "traditional",
		"Dân ca Quan họ":          "traditional",
		"My Way karaoke":          "karaoke",
		"Gokaiger Opening":        "sentai",
		"Moonlight Sonata":        "other",
		"Pop Rock Anthem":         "pop",
		"Punk Rock Karaoke Night": "rock",
	}

	for title, want := range tc {
		if got := SongType(title); got != want {
			t.Errorf("SongType(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestLocalCatalog(t *testing.T) {
	t.Run("lists only mp3 files sorted by path", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "b - Second.mp3", "a - First.MP3", "notes.txt", "cover.jpg")
		if err := os.Mkdir(filepath.Join(dir, "nested.mp3"), 0o755); err != nil {
			t.Fatal(err)
		}

		results, err := NewLocalCatalog(dir, nil).List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
		}
		if results[0].Path != "/Music/a - First.MP3" || results[1].Path != "/Music/b - Second.mp3" {
			t.Errorf("unexpected order: %+v", results)
		}
		if results[0].Artist != "a" || results[0].Title != "First" {
			t.Errorf("unexpected title/artist: %+v", results[0])
		}
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		results, err := NewLocalCatalog(filepath.Join(t.TempDir(), "missing"), nil).List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	})

	t.Run("filter matches arirang as traditional", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "y2mate.com - Traditional Korean ARIRANG karaoke.mp3", "Adele - Hello.mp3")

		results, err := NewLocalCatalog(dir, nil).Filter(context.Background(), "arirang")
		if err != nil {
			t.Fatalf("Filter() error = %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].Type != "traditional" {
			t.Errorf("expected type traditional, got %q", results[0].Type)
		}
		if results[0].Path != "/Music/y2mate.com - Traditional Korean ARIRANG karaoke.mp3" {
			t.Errorf("unexpected path %q", results[0].Path)
		}
	})

	t.Run("filter matches artist and type", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "Adele - Hello.mp3", "Metallica - One.mp3", "Moonlight Sonata.mp3")
		catalog := NewLocalCatalog(dir, nil)

		byArtist, _ := catalog.Filter(context.Background(), "ADELE")
		if len(byArtist) != 1 || byArtist[0].Title != "Hello" {
			t.Errorf("artist filter = %+v", byArtist)
		}

		byType, _ := catalog.Filter(context.Background(), "other")
		if len(byType) != 3 {
			t.Errorf("expected every untyped song to match \"other\", got %d", len(byType))
		}

		all, _ := catalog.Filter(context.Background(), "")
		if len(all) != 3 {
			t.Errorf("empty filter should return everything, got %d", len(all))
		}
	})

	t.Run("tracks are local", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "Adele - Hello.mp3")

		tracks, err := NewLocalCatalog(dir, nil).Tracks(context.Background())
		if err != nil {
			t.Fatalf("Tracks() error = %v", err)
		}
		if len(tracks) != 1 || tracks[0].MediaURL() != "/Music/Adele - Hello.mp3" {
			t.Errorf("unexpected tracks: %+v", tracks)
		}
	})
}

func TestDirOpener(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "song.mp3")
	opener := DirOpener{Dir: dir}

	t.Run("opens music path", func(t *testing.T) {
		rc, err := opener.Open(context.Background(), "/Music/song.mp3")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		rc.Close()
	})

	t.Run("rejects traversal", func(t *testing.T) {
		if _, err := opener.Open(context.Background(), "/Music/../secret.mp3"); err == nil {
			t.Error("expected traversal to be rejected")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := opener.Open(context.Background(), "/Music/nope.mp3"); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
