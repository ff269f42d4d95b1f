package rules

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips diacritics and collapses whitespace.
// "Manifestação  Necessária" folds to "manifestacao necessaria".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// containsPhrase reports whether folded text contains the folded phrase.
// Phrases match as substrings so "manif" matches "manifestação".
func containsPhrase(folded, phrase string) bool {
	p := Fold(phrase)
	return p != "" && strings.Contains(folded, p)
}

// containsTerm reports whether folded text contains the term as whole words.
func containsTerm(folded, term string) bool {
	t := Fold(term)
	if t == "" {
		return false
	}
	padded := " " + punctToSpace(folded) + " "
	return strings.Contains(padded, " "+punctToSpace(t)+" ")
}

// containsMarker reports whether folded text contains a guard marker.
// "vara" matches the word "vara" only; "intima*" matches any word starting with "intima".
func containsMarker(folded, marker string) bool {
	stem, ok := strings.CutSuffix(marker, "*")
	if !ok {
		return containsTerm(folded, marker)
	}
	s := punctToSpace(Fold(stem))
	if s == "" {
		return false
	}
	return strings.Contains(" "+punctToSpace(folded), " "+s)
}

func punctToSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

// WordCount counts whitespace-separated tokens holding at least one letter or digit.
// Bullets and stray punctuation do not count.
func WordCount(s string) int {
	n := 0
	for _, tok := range strings.Fields(s) {
		for _, r := range tok {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				n++
				break
			}
		}
	}
	return n
}
