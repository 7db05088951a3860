package corpus

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

// TEINamespace is the namespace of the <text> element ReadTEI looks for.
const TEINamespace = "http://www.tei-c.org/ns/1.0"

// ReadTEI returns the concatenated character data below the first TEI
// <text> element of an XML file. Headers and other metadata outside <text>
// are ignored.
func ReadTEI(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening TEI document %s: %w", path, err)
	}
	defer f.Close()

	text, err := extractTEIText(f)
	if err != nil {
		return "", fmt.Errorf("reading TEI document %s: %w", path, err)
	}
	return text, nil
}

func extractTEIText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
			} else if t.Name.Space == TEINamespace && t.Name.Local == "text" {
				depth = 1
			}
		case xml.EndElement:
			if depth > 0 {
				depth--
				if depth == 0 {
					return b.String(), nil
				}
			}
		case xml.CharData:
			if depth > 0 {
				b.Write(t)
			}
		}
	}
	return "", apperrors.ErrNoTEIText
}
