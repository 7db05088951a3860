// Package tokenizer turns document text into a lazy stream of normalised word
// tokens. Text is optionally lower-cased, periods are stripped, dash
// characters become spaces, and the remaining text is matched against a
// token pattern.
package tokenizer

import (
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultPattern matches one or more letters, optionally joined to more
	// letters by a single punctuation character. One-letter words never match.
	DefaultPattern = `\p{L}+\p{P}?\p{L}+`
	// SimplePattern is used in simple mode and overrides any caller pattern.
	SimplePattern = `[\p{L}\p{N}_]+`
)

var (
	defaultRegexp = regexp.MustCompile(DefaultPattern)
	simpleRegexp  = regexp.MustCompile(SimplePattern)
)

// cleaner removes periods and splits on the dashes that join words across
// line breaks.
var cleaner = strings.NewReplacer(
	".", "",
	"‒", " ",
	"–", " ",
	"—", " ",
	"―", " ",
)

type options struct {
	pattern string
	lower   bool
	simple  bool
}

// Option configures a Tokenizer.
type Option func(*options)

// WithPattern replaces the default token pattern. Ignored in simple mode.
func WithPattern(expr string) Option {
	return func(o *options) { o.pattern = expr }
}

// WithLower toggles lower-casing of the whole text before matching.
func WithLower(lower bool) Option {
	return func(o *options) { o.lower = lower }
}

// WithSimple switches to the word-character pattern.
func WithSimple(simple bool) Option {
	return func(o *options) { o.simple = simple }
}

// Tokenizer holds a compiled pattern and the lower-casing flag. It is safe
// for concurrent use.
type Tokenizer struct {
	re    *regexp.Regexp
	lower bool
}

// New compiles the configured pattern. A malformed pattern is reported as a
// regexp syntax error.
func New(opts ...Option) (*Tokenizer, error) {
	o := options{lower: true}
	for _, opt := range opts {
		opt(&o)
	}
	t := &Tokenizer{lower: o.lower}
	switch {
	case o.simple:
		t.re = simpleRegexp
	case o.pattern == "" || o.pattern == DefaultPattern:
		t.re = defaultRegexp
	default:
		re, err := regexp.Compile(o.pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling token pattern %q: %w", o.pattern, err)
		}
		t.re = re
	}
	return t, nil
}

// MustNew is like New but panics on a bad pattern.
func MustNew(opts ...Option) *Tokenizer {
	t, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Tokens returns a lazy sequence over the tokens of text. Ranging over it a
// second time re-tokenizes the text from the start.
func (t *Tokenizer) Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		prepared := t.prepare(text)
		for _, loc := range t.re.FindAllStringIndex(prepared, -1) {
			if !yield(prepared[loc[0]:loc[1]]) {
				return
			}
		}
	}
}

// Collect materialises every token of text.
func (t *Tokenizer) Collect(text string) []string {
	return slices.Collect(t.Tokens(text))
}

// Pattern returns the source of the compiled token pattern.
func (t *Tokenizer) Pattern() string {
	return t.re.String()
}

// Fingerprint identifies the tokenizer settings, for use in cache keys.
func (t *Tokenizer) Fingerprint() string {
	return t.re.String() + "|lower=" + strconv.FormatBool(t.lower)
}

func (t *Tokenizer) prepare(text string) string {
	if t.lower {
		text = cases.Lower(language.Und).String(text)
	}
	return cleaner.Replace(text)
}

var defaultTokenizer = &Tokenizer{re: defaultRegexp, lower: true}

// Tokenize streams the tokens of text using the default settings.
func Tokenize(text string) iter.Seq[string] {
	return defaultTokenizer.Tokens(text)
}
