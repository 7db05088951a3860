// Package export writes sparse frequency tables and cleaned token lists in
// formats that external topic-modeling tools ingest.
package export

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/bow"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

const (
	// Banner is the first line of every Matrix Market file written here.
	Banner = "%%MatrixMarket matrix coordinate real general"
	// Ext is appended to the output path by SaveMatrixMarket.
	Ext = ".mm"
)

// WriteMatrixMarket writes t in Matrix Market coordinate format. The header
// line holds the largest document id, the largest token id and the sum of
// all counts. Sentinel rows are not written.
func WriteMatrixMarket(w io.Writer, t *bow.Table) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%d %d %d\n", Banner, t.NumDocs(), t.NumTypes(), t.Total()); err != nil {
		return fmt.Errorf("writing matrix market header: %w", err)
	}
	for _, r := range t.Rows() {
		if r.IsSentinel() {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", r.Doc, r.Token, r.Count); err != nil {
			return fmt.Errorf("writing matrix market row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing matrix market output: %w", err)
	}
	return nil
}

// SaveMatrixMarket writes t to path+".mm" on fs. The file is written to a
// temporary name first and renamed once complete. It returns the final path.
func SaveMatrixMarket(fs afero.Fs, path string, t *bow.Table) (string, error) {
	finalPath := path + Ext
	tmpPath := finalPath + ".tmp"

	if dir := filepath.Dir(finalPath); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := fs.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp matrix file: %w", err)
	}
	defer f.Close()

	if err := WriteMatrixMarket(f, t); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing matrix file: %w", err)
	}
	f.Close()
	if err := fs.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming matrix file: %w", err)
	}
	return finalPath, nil
}

// ReadMatrixMarket parses a file written by WriteMatrixMarket. Comment lines
// after the banner are ignored, and documents up to the header's document
// count that have no rows get their sentinel back.
func ReadMatrixMarket(r io.Reader) (*bow.Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading matrix market banner: %w", err)
		}
		return nil, fmt.Errorf("empty matrix market input: %w", apperrors.ErrInvalidInput)
	}
	if !strings.HasPrefix(sc.Text(), "%%MatrixMarket") {
		return nil, fmt.Errorf("invalid matrix market banner %q: %w", sc.Text(), apperrors.ErrInvalidInput)
	}

	var header []int
	var rows []bow.Row
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d: %w", line, len(fields), apperrors.ErrInvalidInput)
		}
		if header == nil {
			header = make([]int, 3)
			for i, f := range fields {
				n, err := strconv.Atoi(f)
				if err != nil {
					return nil, fmt.Errorf("line %d: parsing header: %w", line, err)
				}
				header[i] = n
			}
			continue
		}
		doc, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing document id: %w", line, err)
		}
		tok, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing token id: %w", line, err)
		}
		val, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing count: %w", line, err)
		}
		rows = append(rows, bow.Row{Doc: doc, Token: tok, Count: int(val)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading matrix market rows: %w", err)
	}
	if header == nil {
		return nil, fmt.Errorf("matrix market header missing: %w", apperrors.ErrInvalidInput)
	}

	present := make(map[int]bool, header[0])
	for _, r := range rows {
		present[r.Doc] = true
	}
	for doc := 1; doc <= header[0]; doc++ {
		if !present[doc] {
			rows = append(rows, bow.Row{Doc: doc})
		}
	}
	return bow.NewTable(rows), nil
}
