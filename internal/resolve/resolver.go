// Package resolve turns free-text station references into catalog records.
//
// Resolution runs an ordered cascade of strategies and returns at the first
// hit: alias rewriting, exact normalized match, keyword shortlist with fuzzy
// re-rank, global fuzzy match, and a partial match reserved for very short
// queries. Failing every strategy is a normal outcome, not a fault.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jusunglee/mta-query/internal/catalog"
	"github.com/jusunglee/mta-query/internal/fuzzy"
	"github.com/jusunglee/mta-query/internal/models"
	"github.com/jusunglee/mta-query/internal/normalize"
)

// Default acceptance cutoffs for the fuzzy strategies. Hand-picked against
// real queries; tune with data, not taste.
const (
	DefaultKeywordCutoff = 60.0
	DefaultFuzzyCutoff   = 70.0
	DefaultPartialCutoff = 80.0
)

// Options carries the per-strategy score cutoffs.
type Options struct {
	KeywordCutoff float64
	FuzzyCutoff   float64
	PartialCutoff float64
}

// DefaultOptions returns the standard cutoffs.
func DefaultOptions() Options {
	return Options{
		KeywordCutoff: DefaultKeywordCutoff,
		FuzzyCutoff:   DefaultFuzzyCutoff,
		PartialCutoff: DefaultPartialCutoff,
	}
}

// aliasRule rewrites a colloquial name fragment to its canonical form.
// Both sides are already normalized. Longer aliases apply first so that
// e.g. "penn sta" is not clipped by a shorter overlapping rule.
type aliasRule struct {
	from string
	to   string
}

var stationAliases = buildAliases(map[string]string{
	"times sq":        "Times Sq",
	"times square":    "Times Sq",
	"time square":     "Times Sq",
	"penn station":    "Penn Station",
	"penn sta":        "Penn Station",
	"grand central":   "Grand Central",
	"port authority":  "Port Authority",
	"columbus circle": "Columbus Circle",
	"union sq":        "Union Sq",
	"union square":    "Union Sq",
	"herald sq":       "Herald Sq",
	"herald square":   "Herald Sq",
	"world trade":     "World Trade",
	"wtc":             "World Trade",
	"barclays":        "Barclays",
	"atlantic":        "Atlantic",
	"jay st":          "Jay St",
	"brooklyn bridge": "Brooklyn Bridge",
	"city hall":       "City Hall",
})

func buildAliases(raw map[string]string) []aliasRule {
	var rules []aliasRule
	for from, to := range raw {
		nf, nt := normalize.Normalize(from), normalize.Normalize(to)
		if nf == nt {
			continue // the normalizer already folds these
		}
		rules = append(rules, aliasRule{from: nf, to: nt})
	}
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i].from) != len(rules[j].from) {
			return len(rules[i].from) > len(rules[j].from)
		}
		return rules[i].from < rules[j].from
	})
	return rules
}

// Resolver resolves station queries against an immutable catalog. Safe for
// concurrent use.
type Resolver struct {
	catalog *catalog.Catalog
	opts    Options
}

// New creates a resolver over the catalog with the given options.
func New(c *catalog.Catalog, opts Options) *Resolver {
	return &Resolver{catalog: c, opts: opts}
}

// Resolve maps a free-text query to a single station. It returns
// models.ErrStationNotFound when no strategy accepts a candidate.
func (r *Resolver) Resolve(query string) (*models.Station, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query: %w", models.ErrStationNotFound)
	}

	normalized := applyAliases(normalize.Normalize(query))

	// Exact normalized match.
	if s, ok := r.catalog.ByNormalizedName(normalized); ok {
		return s, nil
	}

	// Keyword shortlist, fuzzy re-ranked.
	if s := r.keywordMatch(normalized, query); s != nil {
		return s, nil
	}

	// Global fuzzy match over all display names.
	if s, score := bestByScore(r.catalog.Stations(), func(s *models.Station) float64 {
		return fuzzy.TokenRatio(normalized, normalize.Normalize(s.DisplayName))
	}); s != nil && score >= r.opts.FuzzyCutoff {
		return s, nil
	}

	// Short queries like "42 st" score poorly on whole-name comparison but
	// are reliable substrings of canonical names; the higher cutoff bounds
	// the false-positive rate.
	if len(strings.Fields(query)) <= 2 {
		if s, score := bestByScore(r.catalog.Stations(), func(s *models.Station) float64 {
			return fuzzy.PartialRatio(normalized, normalize.Normalize(s.DisplayName))
		}); s != nil && score >= r.opts.PartialCutoff {
			return s, nil
		}
	}

	return nil, fmt.Errorf("no station matches %q: %w", query, models.ErrStationNotFound)
}

func (r *Resolver) keywordMatch(normalized, query string) *models.Station {
	keywords := normalize.Keywords(query)
	shortlist := r.catalog.MatchKeywords(keywords)
	if len(shortlist) == 0 {
		return nil
	}

	s, score := bestByScore(shortlist, func(s *models.Station) float64 {
		return fuzzy.TokenRatio(normalized, normalize.Normalize(s.DisplayName))
	})
	if s == nil || score < r.opts.KeywordCutoff {
		return nil
	}
	return s
}

// bestByScore returns the highest-scoring station; ties keep the earliest
// candidate so the result is deterministic for a fixed catalog.
func bestByScore(stations []*models.Station, score func(*models.Station) float64) (*models.Station, float64) {
	var best *models.Station
	bestScore := 0.0
	for _, s := range stations {
		if sc := score(s); best == nil || sc > bestScore {
			best = s
			bestScore = sc
		}
	}
	return best, bestScore
}

func applyAliases(normalized string) string {
	for _, rule := range stationAliases {
		if strings.Contains(normalized, rule.from) {
			normalized = strings.ReplaceAll(normalized, rule.from, rule.to)
		}
	}
	return normalized
}

// Suggestion pairs a station with its similarity score against a query.
type Suggestion struct {
	Station *models.Station
	Score   float64
}

// Suggest returns the top limit stations ranked by order-insensitive
// similarity to the query. Useful when resolution fails and the caller
// wants to offer alternatives.
func (r *Resolver) Suggest(query string, limit int) []Suggestion {
	if limit <= 0 {
		return nil
	}

	normalized := applyAliases(normalize.Normalize(query))
	stations := r.catalog.Stations()
	suggestions := make([]Suggestion, 0, len(stations))
	for _, s := range stations {
		suggestions = append(suggestions, Suggestion{
			Station: s,
			Score:   fuzzy.TokenRatio(normalized, normalize.Normalize(s.DisplayName)),
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if limit > len(suggestions) {
		limit = len(suggestions)
	}
	return suggestions[:limit]
}
