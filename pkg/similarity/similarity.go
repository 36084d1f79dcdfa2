// Package similarity scores how alike two free-text attribute values are.
//
// TokenSortRatio ignores case, punctuation and word order: both values are
// reduced to lowercase tokens of letters, digits and underscores in any
// script, the tokens are sorted, and the sorted strings are compared with an
// indel ratio 100 * 2*LCS / (len(a)+len(b)) counted in runes. Scores are
// integers in [0, 100] rounded half to even. Latin-1 supplement characters
// (U+0080 to U+00FF, e.g. é) are removed before tokenizing.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Process removes Latin-1 supplement characters from s, lowercases it,
// replaces every rune that is not a letter, digit or underscore with a space
// and trims the result.
func Process(s string) string {
	s = strings.Map(func(r rune) rune {
		if r >= 0x80 && r <= 0xFF {
			return -1
		}
		return r
	}, s)
	// a Caser holds state, so each call gets its own
	s = cases.Lower(language.Und).String(s)
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) {
			return r
		}
		return ' '
	}, s))
}

// SortTokens processes s and returns its tokens sorted and joined by a
// single space.
func SortTokens(s string) string {
	tokens := strings.Fields(Process(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// TokenSortRatio returns the order-insensitive similarity of a and b.
// Either value being empty after processing yields 0.
func TokenSortRatio(a, b string) int {
	sa, sb := SortTokens(a), SortTokens(b)
	if sa == "" || sb == "" {
		return 0
	}
	return Ratio(sa, sb)
}

// Ratio returns the indel similarity of two strings without any processing.
// Lengths are counted in runes.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	lcs := longestCommonSubsequence(ra, rb)
	return int(math.RoundToEven(100 * float64(2*lcs) / float64(total)))
}

// IsMoreDetailed reports whether candidate's whitespace-separated token set
// contains every token of base.
func IsMoreDetailed(base, candidate string) bool {
	have := make(map[string]struct{})
	for _, tok := range strings.Fields(candidate) {
		have[tok] = struct{}{}
	}
	for _, tok := range strings.Fields(base) {
		if _, ok := have[tok]; !ok {
			return false
		}
	}
	return true
}

func longestCommonSubsequence(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
