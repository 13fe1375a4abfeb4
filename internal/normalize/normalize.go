// Package normalize canonicalizes station name text so that the many ways
// riders write the same station ("Times Sq-42 St", "times square 42nd
// street") collapse toward a single comparable form.
package normalize

import (
	"regexp"
	"strings"
)

// abbreviations folds common transit vocabulary to the fixed short forms
// used by the station catalog. Applied as whole-word replacements.
var abbreviations = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"parkway":   "pkwy",
	"square":    "sq",
	"station":   "st",
	"center":    "ctr",
	"centre":    "ctr",
	"saint":     "st",
	"fort":      "ft",
	"mount":     "mt",
	"plaza":     "plz",
	"and":       "&",
}

var (
	abbrevRe   = regexp.MustCompile(`\b(street|avenue|boulevard|parkway|square|station|center|centre|saint|fort|mount|plaza|and)\b`)
	ordinalRe  = regexp.MustCompile(`\b(\d+)(st|nd|rd|th)\b`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]`)
)

// stopWords are filler tokens dropped when deriving keywords.
var stopWords = map[string]bool{
	"the": true, "at": true, "of": true, "and": true, "or": true,
	"in": true, "on": true, "to": true, "a": true, "an": true,
}

// Normalize maps arbitrary station text to its canonical token form. It is
// total and idempotent: empty input yields the empty string.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	s := strings.ToLower(name)

	// Riders write ordinals ("59th st") where the catalog uses bare
	// numbers ("59 St"), so fold them before anything else.
	s = ordinalRe.ReplaceAllString(s, "$1")

	s = abbrevRe.ReplaceAllStringFunc(s, func(w string) string {
		return abbreviations[w]
	})

	// Hyphens and slashes are word breaks, so "Times Sq-42 St" and
	// "Times Sq/42 St" normalize identically.
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "/", " ")

	s = nonAlnumRe.ReplaceAllString(s, " ")

	return strings.Join(strings.Fields(s), " ")
}

// Keywords returns the normalized form's tokens minus stop words and
// single-character tokens. Used by the keyword index.
func Keywords(name string) []string {
	var keywords []string
	for _, w := range strings.Fields(Normalize(name)) {
		if stopWords[w] || len(w) <= 1 {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}
