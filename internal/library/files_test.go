package library

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeSourceFile(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake video payload"), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	return path
}

func TestAddDownloadedFile_Movie(t *testing.T) {
	m, root := newTestManager(t)
	movie, err := m.GetOrCreateMovie(testMovieTitle())
	if err != nil {
		t.Fatalf("create movie: %v", err)
	}

	src := writeSourceFile(t, "Fight.Club.1999.1080p.BluRay.mkv")
	file, err := m.AddDownloadedFile(movie.ID, src, "Fight.Club.1999.1080p.BluRay.x264-GROUP", "")
	if err != nil {
		t.Fatalf("AddDownloadedFile: %v", err)
	}

	wantDest := filepath.Join(root, "tt0137523", "files", "Fight.Club.1999.1080p.BluRay.mkv")
	if file.FilePath != wantDest {
		t.Errorf("file path = %q, want %q", file.FilePath, wantDest)
	}
	if _, err := os.Stat(wantDest); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("source file still present after move")
	}
	if file.Quality != "1080p" {
		t.Errorf("quality = %q, want autodetected 1080p", file.Quality)
	}
	if file.FileSize == 0 {
		t.Error("file size not recorded")
	}
	if file.OwningEntityID != movie.ID {
		t.Errorf("owner = %q, want %q", file.OwningEntityID, movie.ID)
	}
}

func TestAddDownloadedFile_EpisodePath(t *testing.T) {
	m, root := newTestManager(t)
	_, _, episode := createTestEpisode(t, m)

	src := writeSourceFile(t, "Show.S02E05.720p.mkv")
	file, err := m.AddDownloadedFile(episode.ID, src, "Show.S02.720p", "")
	if err != nil {
		t.Fatalf("AddDownloadedFile: %v", err)
	}

	wantDest := filepath.Join(root, "tt0903747", "seasons", "S02", "episodes", "E05", "files", "Show.S02E05.720p.mkv")
	if file.FilePath != wantDest {
		t.Errorf("file path = %q, want %q", file.FilePath, wantDest)
	}
}

func TestAddDownloadedFile_UnknownEntity(t *testing.T) {
	m, _ := newTestManager(t)

	src := writeSourceFile(t, "whatever.mkv")
	if _, err := m.AddDownloadedFile("no-such-entity", src, "src", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source file must be untouched on failure: %v", err)
	}
}

func TestAddDownloadedFile_MoveFailureLeavesEntityUntouched(t *testing.T) {
	m, _ := newTestManager(t)
	movie, err := m.GetOrCreateMovie(testMovieTitle())
	if err != nil {
		t.Fatalf("create movie: %v", err)
	}

	if _, err := m.AddDownloadedFile(movie.ID, filepath.Join(t.TempDir(), "missing.mkv"), "src", ""); err == nil {
		t.Fatal("expected error for missing source file")
	}

	got, err := m.GetByID(movie.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Files) != 0 {
		t.Errorf("entity gained a file record despite failed move: %+v", got.Files)
	}
}

// The record-implies-file property must survive a restart: everything a
// rescan reports as downloaded has to exist on disk.
func TestDownloadedFile_RoundTrip(t *testing.T) {
	m, root := newTestManager(t)
	movie, err := m.GetOrCreateMovie(testMovieTitle())
	if err != nil {
		t.Fatalf("create movie: %v", err)
	}
	src := writeSourceFile(t, "Fight.Club.1999.2160p.mkv")
	if _, err := m.AddDownloadedFile(movie.ID, src, "source-torrent", ""); err != nil {
		t.Fatalf("AddDownloadedFile: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reloaded := NewManager(root, log)

	got, err := reloaded.GetByID(movie.ID)
	if err != nil {
		t.Fatalf("movie lost after rescan: %v", err)
	}
	if len(got.Files) != 1 {
		t.Fatalf("expected 1 downloaded file after rescan, got %d", len(got.Files))
	}
	f := got.Files[0]
	if f.Quality != "2160p" || f.Source != "source-torrent" {
		t.Errorf("file record fields lost: %+v", f)
	}
	if _, err := os.Stat(f.FilePath); err != nil {
		t.Errorf("record exists but file does not: %v", err)
	}
}
