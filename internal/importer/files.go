package importer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// locateFile resolves a matched file's torrent-relative path to an actual
// path on disk. Torrent clients differ in how they lay downloads out, so
// resolution tries, in order:
//
//  1. downloadPath joined with the torrent-relative path verbatim
//  2. downloadPath itself, when it is a single file with the right name
//  3. a recursive search under downloadPath for the matching basename
func locateFile(downloadPath, matchPath string) (string, error) {
	direct := filepath.Join(downloadPath, matchPath)
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, nil
	}

	base := filepath.Base(matchPath)
	if info, err := os.Stat(downloadPath); err == nil && !info.IsDir() {
		if filepath.Base(downloadPath) == base {
			return downloadPath, nil
		}
	}

	var found string
	err := filepath.WalkDir(downloadPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == base {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search %s: %w", downloadPath, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, matchPath)
	}
	return found, nil
}
