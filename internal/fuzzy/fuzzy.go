// Package fuzzy scores string similarity to catch misspelled model and
// command names.
package fuzzy

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Threshold is the lowest score treated as a likely misspelling.
const Threshold = 80.0

// Ratio returns the normalized Indel similarity of a and b in [0, 100]:
// 100 * (1 - dist / (len(a)+len(b))), where dist counts the insertions and
// deletions needed to turn a into b. Lengths are in runes.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	dist := total - 2*edlib.LCS(a, b)
	return 100 * (1 - float64(dist)/float64(total))
}

// BestMatch returns the candidate most similar to word and its score. The
// first candidate wins ties. ok is false when there are no candidates.
func BestMatch(word string, candidates []string) (match string, score float64, ok bool) {
	for _, c := range candidates {
		s := Ratio(word, c)
		if !ok || s > score {
			match, score, ok = c, s, true
		}
	}
	return match, score, ok
}

// IsMisspelled reports whether score is close enough to suggest the match
// without being an exact hit.
func IsMisspelled(score float64) bool {
	return score >= Threshold && score != 100
}

// Suggest returns the candidate word was probably meant to be, if any.
func Suggest(word string, candidates []string) (string, bool) {
	match, score, ok := BestMatch(word, candidates)
	if !ok || !IsMisspelled(score) {
		return "", false
	}
	return match, true
}
