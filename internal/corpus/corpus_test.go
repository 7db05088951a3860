package corpus

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

const teiDoc = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader><fileDesc><titleStmt><title>Amerika</title></titleStmt></fileDesc></teiHeader>
  <text><body><p>Arthur <hi>Schnitzler</hi></p><!-- note --><p>Amerika</p></body></text>
</TEI>`

const csvDoc = "ParagraphId\tTokenId\tLemma\tCPOS\tNamedEntity\tExtra\n" +
	"0\t0\ta\tART\t_\tx\n" +
	"0\t1\tscandal\tNN\t_\tx\n" +
	"0\t2\t\"\tPUNC\t_\tx\n" +
	"0\t3\tbohemian\tADJ\t_\tx\n" +
	"0\t4\tread\tV\t_\tx\n"

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestReadText(t *testing.T) {
	fs := memFS(t, map[string]string{"corpus/doyle.txt": "A SCANDAL IN BOHEMIA"})
	text, err := ReadText(fs, "corpus/doyle.txt")
	require.NoError(t, err)
	assert.Equal(t, "A SCANDAL IN BOHEMIA", text)

	_, err = ReadText(fs, "corpus/missing.txt")
	assert.Error(t, err)
}

func TestReadTEI(t *testing.T) {
	fs := memFS(t, map[string]string{
		"a.xml":     teiDoc,
		"none.xml":  `<TEI xmlns="http://www.tei-c.org/ns/1.0"><teiHeader/></TEI>`,
		"wrong.xml": `<TEI><text>no namespace</text></TEI>`,
	})

	text, err := ReadTEI(fs, "a.xml")
	require.NoError(t, err)
	assert.Equal(t, "Arthur SchnitzlerAmerika", text)

	for _, name := range []string{"none.xml", "wrong.xml"} {
		_, err = ReadTEI(fs, name)
		assert.True(t, errors.Is(err, apperrors.ErrNoTEIText), name)
	}
}

func TestReadCSV(t *testing.T) {
	fs := memFS(t, map[string]string{"doc.csv": csvDoc})

	frame, err := ReadCSV(fs, "doc.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultColumns, frame.Columns)
	require.Len(t, frame.Rows, 5)
	assert.Equal(t, []string{"0", "2", `"`, "PUNC", "_"}, frame.Rows[2], "quotes are plain text")

	frame, err = ReadCSV(fs, "doc.csv", []string{"CPOS", "Lemma"})
	require.NoError(t, err)
	assert.Equal(t, []string{"NN", "scandal"}, frame.Rows[1])

	_, err = ReadCSV(fs, "doc.csv", []string{"Lemma", "Morphology"})
	assert.True(t, errors.Is(err, apperrors.ErrMissingColumn))
}

func TestFilterPOS(t *testing.T) {
	frame := &Frame{
		Columns: []string{"CPOS", "Lemma"},
		Rows:    [][]string{{"CARD", "one"}, {"ADJ", "more"}, {"NN", "example"}, {"NN", "text"}},
	}
	got, err := FilterPOS(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"more", "example", "text"}, got)

	got, err = FilterPOS(frame, []string{"CARD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, got)

	_, err = FilterPOS(&Frame{Columns: []string{"Lemma"}}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrMissingColumn))
}

func TestDocumentListAndLabels(t *testing.T) {
	fs := memFS(t, map[string]string{
		"corpus/b.txt":     "b",
		"corpus/a.txt":     "a",
		"corpus/notes.md":  "skip",
		"corpus/sub/c.txt": "nested",
	})
	paths, err := DocumentList(fs, "corpus", ".txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"corpus/a.txt", "corpus/b.txt"}, paths)
	assert.Equal(t, []string{"a", "b"}, Labels(paths))
	assert.Equal(t, []string{"Doyle.txt"}, Labels([]string{"x/Doyle.txt.csv"}))

	_, err = DocumentList(fs, "corpus", ".xml")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGlob(t *testing.T) {
	fs := memFS(t, map[string]string{
		"corpus/b.txt":       "b",
		"corpus/a.txt":       "a",
		"corpus/notes.md":    "skip",
		"corpus/sub/c.txt":   "nested",
		"corpus/sub/d/e.txt": "deeper",
	})
	paths, err := Glob(fs, "corpus", "**/*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"corpus/a.txt", "corpus/b.txt", "corpus/sub/c.txt", "corpus/sub/d/e.txt"}, paths)

	paths, err = Glob(fs, "corpus", "sub/*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"corpus/sub/c.txt"}, paths)

	_, err = Glob(fs, "corpus", "**/*.xml")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = Glob(fs, "corpus", "[")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestLoad(t *testing.T) {
	fs := memFS(t, map[string]string{"in/doc.csv": csvDoc, "in/doc.xml": teiDoc})

	docs, err := Load(fs, []string{"in/doc.csv"}, LoadOptions{Format: FormatCSV})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, docs[0].Pretokenized())
	assert.Equal(t, []string{"scandal", "bohemian", "read"}, docs[0].Lemmas)

	docs, err = Load(fs, []string{"in/doc.xml"}, LoadOptions{Format: FormatTEI})
	require.NoError(t, err)
	assert.Equal(t, "doc", docs[0].Label)
	assert.False(t, docs[0].Pretokenized())

	_, err = Load(fs, []string{"in/doc.xml"}, LoadOptions{Format: "pdf"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
