package tokenizer

import (
	"errors"
	"regexp/syntax"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeDefault(t *testing.T) {
	got := slices.Collect(Tokenize("This is one example text."))
	assert.Equal(t, []string{"this", "is", "one", "example", "text"}, got)
}

func TestTokenizeRules(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		in   string
		want []string
	}{
		{
			name: "single letters are dropped",
			in:   "A cat and I",
			want: []string{"cat", "and"},
		},
		{
			name: "inner punctuation joins letters",
			in:   "Don't re-read",
			want: []string{"don't", "re-read"},
		},
		{
			name: "periods are stripped before matching",
			in:   "e.g. U.S.A.",
			want: []string{"eg", "usa"},
		},
		{
			name: "dashes split words",
			in:   "line‒break en–dash em—dash bar―dash",
			want: []string{"line", "break", "en", "dash", "em", "dash", "bar", "dash"},
		},
		{
			name: "lowercasing can be disabled",
			opts: []Option{WithLower(false)},
			in:   "Holmes said",
			want: []string{"Holmes", "said"},
		},
		{
			name: "unicode letters",
			in:   "Über Straße ΘΕΑ",
			want: []string{"über", "straße", "θεα"},
		},
		{
			name: "simple mode keeps digits and single letters",
			opts: []Option{WithSimple(true)},
			in:   "A 221b Baker",
			want: []string{"a", "221b", "baker"},
		},
		{
			name: "simple mode ignores the caller pattern",
			opts: []Option{WithSimple(true), WithPattern(`x+`)},
			in:   "ab cd",
			want: []string{"ab", "cd"},
		},
		{
			name: "custom pattern",
			opts: []Option{WithPattern(`\p{L}{4,}`)},
			in:   "the quick brown fox",
			want: []string{"quick", "brown"},
		},
		{
			name: "empty text",
			in:   "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := New(tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok.Collect(tt.in))
		})
	}
}

func TestNewMalformedPattern(t *testing.T) {
	_, err := New(WithPattern(`(\p{L}`))
	require.Error(t, err)
	var syntaxErr *syntax.Error
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew(WithPattern(`[`)) })
}

func TestTokensIsLazyAndRestartable(t *testing.T) {
	seq := Tokenize("first second third")

	var firstTwo []string
	for tok := range seq {
		firstTwo = append(firstTwo, tok)
		if len(firstTwo) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"first", "second"}, firstTwo)
	assert.Equal(t, []string{"first", "second", "third"}, slices.Collect(seq))
}

func TestFingerprint(t *testing.T) {
	a := MustNew()
	b := MustNew(WithLower(false))
	c := MustNew(WithSimple(true))
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Equal(t, DefaultPattern, a.Pattern())
}
