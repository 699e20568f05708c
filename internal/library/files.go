package library

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/reeler/reeler/pkg/release"
)

// AddDownloadedFile moves filePath into the entity's files/ directory and
// appends the record to the entity's sidecar. Quality is detected from
// the filename when not supplied. A move failure leaves the entity
// untouched, so a DownloadedFile record always implies the file exists at
// its recorded path.
func (m *Manager) AddDownloadedFile(entityID, filePath, source, quality string) (*DownloadedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}

	e, ok := m.byID[entityID]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", entityID, ErrNotFound)
	}

	dir, err := m.entityDir(e)
	if err != nil {
		return nil, err
	}
	filesDir := filepath.Join(dir, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create files dir: %w", err)
	}

	dest := filepath.Join(filesDir, filepath.Base(filePath))
	if err := moveFile(filePath, dest); err != nil {
		return nil, fmt.Errorf("move %s into library: %w", filepath.Base(filePath), err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("stat moved file: %w", err)
	}

	if quality == "" {
		quality = release.DetectQuality(filepath.Base(dest))
	}

	now := time.Now().UTC()
	file := DownloadedFile{
		ID:             uuid.NewString(),
		OwningEntityID: e.ID,
		FilePath:       dest,
		Quality:        quality,
		FileSize:       info.Size(),
		Source:         source,
		AddedAt:        now,
	}

	e.Files = append(e.Files, file)
	e.UpdatedAt = now
	if err := m.persist(e); err != nil {
		// Keep the cache mirroring disk: the record never made it into
		// the sidecar, so drop it from memory too. The moved file stays
		// where it is.
		e.Files = e.Files[:len(e.Files)-1]
		return nil, err
	}

	m.log.Info("file added to library",
		"entity", e.Title,
		"file", filepath.Base(dest),
		"quality", quality,
		"size", info.Size(),
	)
	return &file, nil
}

// moveFile renames src to dst, falling back to copy+remove when rename
// fails (cross-device moves).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// writeJSONAtomic writes v to path via a temp file in the same directory
// followed by a rename, so readers never observe a torn sidecar.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".metadata-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
