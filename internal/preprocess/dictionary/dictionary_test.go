package dictionary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSortedIDs(t *testing.T) {
	d := Build(strings.Fields("this is an example this is another example"))

	require.Equal(t, 5, d.Len())
	assert.Equal(t, []string{"an", "another", "example", "is", "this"}, d.Tokens())
	id, ok := d.ID("an")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	id, _ = d.ID("this")
	assert.Equal(t, 5, id)

	_, ok = d.ID("missing")
	assert.False(t, ok)
}

func TestBuildIsDeterministic(t *testing.T) {
	a := Build([]string{"zeta", "alpha", "mu", "alpha"})
	b := Build([]string{"mu", "zeta", "alpha"})
	assert.Equal(t, a.Inverse(), b.Inverse())
}

func TestBuildNested(t *testing.T) {
	d := BuildNested([][]string{{"this", "is", "the", "first", "document"}, {"this", "is", "the", "second", "document"}})
	assert.Equal(t, []string{"document", "first", "is", "second", "the", "this"}, d.Tokens())
}

func TestBuildDocumentsFollowsCorpusOrder(t *testing.T) {
	d := BuildDocuments([]string{"doc_b", "doc_a", "doc_b", "doc_c"})
	assert.Equal(t, []string{"doc_b", "doc_a", "doc_c"}, d.Tokens())
	id, ok := d.ID("doc_a")
	require.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestIDsArePermutation(t *testing.T) {
	inputs := [][]string{
		nil,
		{"a"},
		strings.Fields("the quick brown fox jumps over the lazy dog the end"),
		{"b", "a", "c", "a", "b"},
	}
	for _, in := range inputs {
		for _, d := range []*Dictionary{Build(in), BuildDocuments(in)} {
			seen := make(map[int]string)
			for _, s := range in {
				id, ok := d.ID(s)
				require.True(t, ok)
				assert.GreaterOrEqual(t, id, 1)
				assert.LessOrEqual(t, id, d.Len())
				got, ok := d.Token(id)
				require.True(t, ok)
				assert.Equal(t, s, got)
				if prev, dup := seen[id]; dup {
					assert.Equal(t, prev, s, "id %d maps two strings", id)
				}
				seen[id] = s
			}
			assert.Len(t, seen, d.Len())
		}
	}
}

func TestTokenOutOfRange(t *testing.T) {
	d := Build([]string{"x"})
	_, ok := d.Token(0)
	assert.False(t, ok)
	_, ok = d.Token(2)
	assert.False(t, ok)
}

func TestEmpty(t *testing.T) {
	d := Build(nil)
	assert.Equal(t, 0, d.Len())
	assert.Empty(t, d.Inverse())
}
