// Package fuzzy implements the two similarity scores used by station
// resolution: an order-insensitive token-overlap score and a
// substring-containment score. Both are pure functions returning 0-100.
// Callers are expected to pass text through the name normalizer first.
package fuzzy

import (
	"regexp"
	"sort"
	"strings"
)

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

// tokens lower-cases s and splits it on any non-alphanumeric run.
func tokens(s string) []string {
	fields := tokenSplitRe.Split(strings.ToLower(s), -1)
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// lcsLen is the longest-common-subsequence length of a and b.
func lcsLen(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// charRatio scores two strings as twice their common subsequence length
// over their combined length, scaled to 0-100.
func charRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return 200 * float64(lcsLen(a, b)) / float64(len(a)+len(b))
}

// TokenRatio is the order-insensitive score: matched tokens, counted
// regardless of position, normalized by the total token count of both
// strings. A character-level comparison of the sorted token strings acts as
// a floor so near-miss spellings still earn partial credit. "42 st times
// sq" and "times sq 42 st" score 100 against each other.
func TokenRatio(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 100
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	counts := make(map[string]int, len(tb))
	for _, t := range tb {
		counts[t]++
	}
	matched := 0
	for _, t := range ta {
		if counts[t] > 0 {
			counts[t]--
			matched++
		}
	}
	overlap := 200 * float64(matched) / float64(len(ta)+len(tb))

	if chars := charRatio(sortedTokenString(ta), sortedTokenString(tb)); chars > overlap {
		return chars
	}
	return overlap
}

func sortedTokenString(ts []string) string {
	sorted := make([]string, len(ts))
	copy(sorted, ts)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// PartialRatio rewards one string being largely contained in the other: the
// shorter string is compared against every window of its own length in the
// longer and the best window score wins. "42 st" against "times sq 42 st"
// scores 100.
func PartialRatio(a, b string) float64 {
	short, long := strings.ToLower(a), strings.ToLower(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := charRatio(short, long[i:i+len(short)]); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}
