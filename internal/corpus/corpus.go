// Package corpus reads documents from plain text, TEI XML and DKPro CSV
// files and lists the documents of a corpus directory.
package corpus

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

// Format names accepted by Read.
const (
	FormatText = "txt"
	FormatTEI  = "tei"
	FormatCSV  = "csv"
)

// ReadText returns the whole content of a UTF-8 text file.
func ReadText(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("reading text document %s: %w", path, err)
	}
	return string(data), nil
}

// DocumentList returns the files in dir ending in ext, sorted by name. An
// empty ext matches every file.
func DocumentList(fs afero.Fs, dir string, ext string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("listing corpus directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %q documents in %s: %w", ext, dir, apperrors.ErrNotFound)
	}
	return paths, nil
}

// Glob returns the files below dir whose path relative to dir matches the
// doublestar pattern (for example "**/*.xml"), sorted by path.
func Glob(fs afero.Fs, dir string, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("glob pattern %q: %w", pattern, apperrors.ErrInvalidInput)
	}
	fsys := afero.NewIOFS(afero.NewBasePathFs(fs, dir))
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("globbing %s in %s: %w", pattern, dir, err)
	}
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	slices.Sort(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no documents match %q in %s: %w", pattern, dir, apperrors.ErrNotFound)
	}
	return paths, nil
}

// Labels derives document labels from paths: the file name without its
// last extension.
func Labels(paths []string) []string {
	labels := make([]string, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		labels[i] = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return labels
}
