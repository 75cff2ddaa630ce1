// Package title normalizes video titles and matches search queries
// against them.
package title

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchThreshold is the minimum per-word Jaro-Winkler similarity for a
// query word to count as present in a title.
const MatchThreshold = 0.85

// Clean lowercases s, strips accents and punctuation and collapses
// whitespace. "Beyoncé - Halo (Official Video)" becomes
// "beyonce halo official video".
func Clean(s string) string {
	s = strings.ToLower(removeAccents(s))
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'", "")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Score rates how well query matches t, from 0 to 1. Each query word is
// compared against its most similar title word, so typos and word order
// are tolerated. The result is the mean over query words.
func Score(query, t string) float64 {
	qWords := strings.Fields(Clean(query))
	tWords := strings.Fields(Clean(t))
	if len(qWords) == 0 {
		return 1
	}
	if len(tWords) == 0 {
		return 0
	}

	var total float64
	for _, q := range qWords {
		best := 0.0
		for _, w := range tWords {
			if strings.HasPrefix(w, q) {
				best = 1
				break
			}
			if s := float64(edlib.JaroWinklerSimilarity(q, w)); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(qWords))
}

// Matches reports whether every word of query is found in t, exactly, as
// a prefix, or within MatchThreshold similarity. An empty query matches
// everything.
func Matches(query, t string) bool {
	qWords := strings.Fields(Clean(query))
	tWords := strings.Fields(Clean(t))

	for _, q := range qWords {
		found := false
		for _, w := range tWords {
			if strings.HasPrefix(w, q) || float64(edlib.JaroWinklerSimilarity(q, w)) >= MatchThreshold {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
