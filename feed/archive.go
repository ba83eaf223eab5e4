package feed

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var ErrArchiveEntryNotFound = errors.New("feed not found in archive")

// ReadArchive reads the named entry out of a zip archive. An empty name selects the first json
// entry.
func ReadArchive(archivePath, name string) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("unable to open archive %s, %w", archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if name != "" && f.Name != name && path.Base(f.Name) != name {
			continue
		}
		if name == "" && !strings.EqualFold(path.Ext(f.Name), ".json") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("unable to open %s, %w", f.Name, err)
		}
		defer rc.Close()

		body, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s, %w", f.Name, err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%s in %s, %w", name, archivePath, ErrArchiveEntryNotFound)
}
