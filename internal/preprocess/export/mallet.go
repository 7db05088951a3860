package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"

	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

// WriteMalletImport writes one <label>.txt file per document into dir,
// creating dir when needed. Each file holds the document's tokens as a
// Python list literal, e.g. ['short', 'example', 'text'].
func WriteMalletImport(fs afero.Fs, dir string, labels []string, docs [][]string) error {
	if len(labels) != len(docs) {
		return fmt.Errorf("writing %d labels for %d documents: %w", len(labels), len(docs), apperrors.ErrInvalidInput)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating mallet directory: %w", err)
	}
	for i, label := range labels {
		name := filepath.Join(dir, label+".txt")
		if err := afero.WriteFile(fs, name, []byte(ListLiteral(docs[i])), 0o644); err != nil {
			return fmt.Errorf("writing mallet file %s: %w", name, err)
		}
	}
	return nil
}

// ListLiteral renders tokens the way Python prints a list of strings.
func ListLiteral(tokens []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, tok := range tokens {
		if i > 0 {
			b.WriteString(", ")
		}
		writeQuoted(&b, tok)
	}
	b.WriteByte(']')
	return b.String()
}

func writeQuoted(b *strings.Builder, s string) {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(b, `\u%04x`, r)
		default:
			fmt.Fprintf(b, `\U%08x`, r)
		}
	}
	b.WriteRune(quote)
}
