package export

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/bow"
)

// Writer places every artifact of one run under a single output directory.
type Writer struct {
	fs     afero.Fs
	outDir string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at outDir on fs.
func NewWriter(fs afero.Fs, outDir string) *Writer {
	return &Writer{
		fs:     fs,
		outDir: outDir,
		logger: slog.Default().With("component", "exporter"),
	}
}

// MatrixMarket saves t as <outDir>/<name>.mm and returns the written path.
func (w *Writer) MatrixMarket(name string, t *bow.Table) (string, error) {
	if name == "" {
		return "", fmt.Errorf("cannot write matrix without a name")
	}
	path, err := SaveMatrixMarket(w.fs, filepath.Join(w.outDir, name), t)
	if err != nil {
		return "", err
	}
	w.logger.Info("matrix market file written",
		"path", path,
		"documents", t.NumDocs(),
		"types", t.NumTypes(),
		"total", t.Total(),
	)
	return path, nil
}

// Mallet writes the MALLET import files into <outDir>/<sub> and returns that
// directory.
func (w *Writer) Mallet(sub string, labels []string, docs [][]string) (string, error) {
	dir := filepath.Join(w.outDir, sub)
	if err := WriteMalletImport(w.fs, dir, labels, docs); err != nil {
		return "", err
	}
	w.logger.Info("mallet import files written", "dir", dir, "files", len(labels))
	return dir, nil
}
