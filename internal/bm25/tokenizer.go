// Package bm25 implements the offline-built, process-lifetime-loaded
// inverted index described in spec.md §4.1.
//
// No third-party search or segmentation library in the reference corpus
// exposes the exact term/document accounting this package's testable
// properties require (bit-for-bit reproducible scores, a round-trip
// invariant between the in-memory index and a saved-then-loaded one), so
// tokenization and scoring are hand-rolled against the standard library,
// as the formula in spec.md §4.1 is itself the contract under test.
package bm25

import (
	"strings"
	"unicode"
)

// Tokenizer turns raw review text into the token stream the index is
// built and queried with. It must behave identically at build time and
// query time (spec.md §4.1).
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer builds a Tokenizer from a configurable stopword file plus
// the built-in English stoplist.
func NewTokenizer(extraStopwords []string) *Tokenizer {
	stop := make(map[string]struct{}, len(englishStoplist)+len(extraStopwords))
	for _, w := range englishStoplist {
		stop[w] = struct{}{}
	}
	for _, w := range extraStopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stop[w] = struct{}{}
		}
	}
	return &Tokenizer{stopwords: stop}
}

// Tokenize removes whitespace, segments CJK+Latin runs into word tokens,
// lowercases, drops tokens containing characters outside CJK unified
// ideographs and the Latin alphabet, and drops stopwords. An empty
// result is valid and never an error.
func (t *Tokenizer) Tokenize(text string) []string {
	stripped := stripWhitespace(text)
	if stripped == "" {
		return nil
	}

	raw := segment(stripped)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.ToLower(tok)
		if tok == "" || !isCJKOrLatinOnly(tok) {
			continue
		}
		if _, stop := t.stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// segment splits a whitespace-free string into maximal runs of Latin-script
// word characters, and single runes for each CJK ideograph (a simple but
// deterministic stand-in for full CJK word segmentation: every Han
// character becomes its own token, consistent with the character-level
// n-gram treatment BM25 over Chinese text typically uses).
func segment(s string) []string {
	var tokens []string
	var latinRun strings.Builder

	flushLatin := func() {
		if latinRun.Len() > 0 {
			tokens = append(tokens, latinRun.String())
			latinRun.Reset()
		}
	}

	for _, r := range s {
		switch {
		case isHan(r):
			flushLatin()
			tokens = append(tokens, string(r))
		case isLatinWordRune(r):
			latinRun.WriteRune(r)
		default:
			// Punctuation and other symbols act as separators but are
			// themselves dropped by the CJK/Latin filter below.
			flushLatin()
			tokens = append(tokens, string(r))
		}
	}
	flushLatin()
	return tokens
}

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isLatinWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// isCJKOrLatinOnly reports whether every rune in tok is either a Han
// ideograph or a Latin letter/digit. Tokens containing anything else
// (punctuation, other scripts) are dropped.
func isCJKOrLatinOnly(tok string) bool {
	for _, r := range tok {
		if !isHan(r) && !isLatinWordRune(r) {
			return false
		}
	}
	return true
}

var englishStoplist = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "if",
	"in", "into", "is", "it", "no", "not", "of", "on", "or", "such",
	"that", "the", "their", "then", "there", "these", "they", "this",
	"to", "was", "will", "with", "i", "you", "we", "my", "your", "our",
}
