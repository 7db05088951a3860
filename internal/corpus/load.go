package corpus

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

// Document is one corpus file. Text is set for txt and tei input; Lemmas
// holds the POS-filtered lemmas of csv input, which needs no tokenizing.
type Document struct {
	Label  string
	Path   string
	Text   string
	Lemmas []string
}

// Pretokenized reports whether the document came from csv input.
func (d Document) Pretokenized() bool {
	return d.Lemmas != nil
}

// LoadOptions selects the reader for Load.
type LoadOptions struct {
	Format  string
	Columns []string
	POSTags []string
}

// Load reads every path with the reader selected by opts.Format. Labels are
// derived from the file names.
func Load(fs afero.Fs, paths []string, opts LoadOptions) ([]Document, error) {
	logger := slog.Default().With("component", "corpus")
	labels := Labels(paths)
	docs := make([]Document, 0, len(paths))
	for i, p := range paths {
		doc := Document{Label: labels[i], Path: p}
		switch opts.Format {
		case FormatText, "":
			text, err := ReadText(fs, p)
			if err != nil {
				return nil, err
			}
			doc.Text = text
		case FormatTEI:
			text, err := ReadTEI(fs, p)
			if err != nil {
				return nil, err
			}
			doc.Text = text
		case FormatCSV:
			frame, err := ReadCSV(fs, p, opts.Columns)
			if err != nil {
				return nil, err
			}
			lemmas, err := FilterPOS(frame, opts.POSTags)
			if err != nil {
				return nil, fmt.Errorf("filtering %s: %w", p, err)
			}
			if lemmas == nil {
				lemmas = []string{}
			}
			doc.Lemmas = lemmas
		default:
			return nil, fmt.Errorf("unknown input format %q: %w", opts.Format, apperrors.ErrInvalidInput)
		}
		logger.Debug("document read", "label", doc.Label, "path", p, "format", opts.Format)
		docs = append(docs, doc)
	}
	logger.Info("corpus read", "documents", len(docs), "format", opts.Format)
	return docs, nil
}
