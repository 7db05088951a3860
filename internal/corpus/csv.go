package corpus

import (
	"bufio"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"

	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

// DefaultColumns are the DKPro wrapper columns kept by ReadCSV.
var DefaultColumns = []string{"ParagraphId", "TokenId", "Lemma", "CPOS", "NamedEntity"}

// DefaultPOSTags select adjectives, verbs and nouns.
var DefaultPOSTags = []string{"ADJ", "V", "NN"}

// Frame is a column projection of a tab-separated file.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// Column returns every value of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	idx := slices.Index(f.Columns, name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q: %w", name, apperrors.ErrMissingColumn)
	}
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// ReadCSV reads a DKPro wrapper output file: tab separated, a header line,
// and no quoting, so quote characters are ordinary token text. Only the
// requested columns are kept, in the requested order. A nil columns list
// selects DefaultColumns.
func ReadCSV(fs afero.Fs, path string, columns []string) (*Frame, error) {
	if columns == nil {
		columns = DefaultColumns
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv document %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading csv header %s: %w", path, err)
		}
		return nil, fmt.Errorf("csv document %s has no header: %w", path, apperrors.ErrInvalidInput)
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")

	positions := make([]int, len(columns))
	for i, col := range columns {
		idx := slices.Index(header, col)
		if idx < 0 {
			return nil, fmt.Errorf("csv document %s, column %q: %w", path, col, apperrors.ErrMissingColumn)
		}
		positions[i] = idx
	}

	frame := &Frame{Columns: slices.Clone(columns)}
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) > len(header) {
			return nil, fmt.Errorf("csv document %s line %d: %d fields for %d columns: %w",
				path, line, len(fields), len(header), apperrors.ErrInvalidInput)
		}
		row := make([]string, len(positions))
		for i, p := range positions {
			if p < len(fields) {
				row[i] = fields[p]
			}
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading csv document %s: %w", path, err)
	}
	return frame, nil
}

// FilterPOS returns the lemmas whose CPOS tag is one of tags, in file
// order. A nil tags list selects DefaultPOSTags.
func FilterPOS(frame *Frame, tags []string) ([]string, error) {
	if tags == nil {
		tags = DefaultPOSTags
	}
	lemmas, err := frame.Column("Lemma")
	if err != nil {
		return nil, err
	}
	pos, err := frame.Column("CPOS")
	if err != nil {
		return nil, err
	}
	var out []string
	for i, tag := range pos {
		if slices.Contains(tags, tag) {
			out = append(out, lemmas[i])
		}
	}
	return out, nil
}
