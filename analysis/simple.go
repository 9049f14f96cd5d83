package analysis

import (
	"strings"
	"unicode"

	"github.com/doublemo/esmy"
)

// Simple is a minimal word-boundary analyzer: it splits on runs of
// non-letter, non-digit characters and lowercases what remains. It is
// not a full UAX#29 segmenter (spec.md §4.6 names uax29 only as an
// example tag for the positional-postings scenarios) but it satisfies
// the same contract and is sufficient to validate phrase matching: "a b"
// tokenizes to ["a", "b"] at positions 0 and 1.
type Simple struct{}

func (Simple) Tag() string { return "simple" }

func (Simple) Analyze(value string) esmy.TokenStream {
	return &simpleTokenStream{runes: []rune(value)}
}

type simpleTokenStream struct {
	runes []rune
	pos   int
	next  uint64
}

func (s *simpleTokenStream) Next() (esmy.Token, bool) {
	for s.pos < len(s.runes) && !isWordRune(s.runes[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.runes) {
		return esmy.Token{}, false
	}
	start := s.pos
	for s.pos < len(s.runes) && isWordRune(s.runes[s.pos]) {
		s.pos++
	}
	text := strings.ToLower(string(s.runes[start:s.pos]))
	tok := esmy.Token{Text: text, Pos: s.next}
	s.next++
	return tok, true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
