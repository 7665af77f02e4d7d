package scripts

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// maxQueryLength bounds the raw query. Longer input is almost always an
// accidental paste and is answered with no results instead of a fuzzy scan.
const maxQueryLength = 20

// scoreCutoff discards matches whose combined score is this or worse.
const scoreCutoff = 0.4

// fieldCutoff discards a single field match whose normalized score is worse.
const fieldCutoff = 0.5

// proximityDistance is the offset at which a match's distance from the start
// of a field costs a full point.
const proximityDistance = 100

var categoryFilter = regexp.MustCompile(`(?i)\b(?:cat|category):([\w,-]+)`)

// Query is a parsed search string.
type Query struct {
	Raw        string
	Text       string   // Free-text part used for fuzzy matching
	Categories []string // Required categories, lowercase
}

// ParseQuery extracts an optional "cat:a,b" / "category:a,b" filter from raw.
// Every filter token is removed from the free text; the categories come from
// the first one.
func ParseQuery(raw string) Query {
	q := Query{Raw: raw, Text: strings.TrimSpace(raw)}

	m := categoryFilter.FindStringSubmatch(raw)
	if m == nil {
		return q
	}
	for _, c := range strings.FieldsFunc(m[1], func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	}) {
		q.Categories = append(q.Categories, strings.ToLower(c))
	}
	q.Text = strings.TrimSpace(categoryFilter.ReplaceAllString(raw, ""))
	return q
}

// weightedField is one searchable property of a script.
type weightedField struct {
	value  string
	weight float64
}

func searchFields(s Script) []weightedField {
	return []weightedField{
		{s.Name, 0.9},
		{s.Tags, 0.6},
		{strings.Join(s.Categories, " "), 0.4},
		{s.Description, 0.2},
	}
}

// Search returns the scripts matching query, best first. The result is never
// nil.
//
// An empty query or "*" lists every script by name. Otherwise each script is
// scored over its name, tags, categories and description (lower is better),
// poor matches are dropped and the rest are ordered by score minus bias. A
// category filter in the query keeps only scripts carrying every requested
// category.
func (c *Catalog) Search(query string) []Script {
	if utf8.RuneCountInString(query) > maxQueryLength {
		return []Script{}
	}
	q := ParseQuery(query)

	if q.Text == "" || q.Text == "*" {
		all := c.All()
		sort.SliceStable(all, func(i, j int) bool { return all[i].Name < all[j].Name })
		return filterCategories(all, q.Categories)
	}

	type scored struct {
		script Script
		rank   float64
	}
	var hits []scored
	for _, s := range c.scripts {
		score, ok := Score(q.Text, s)
		if !ok || score >= scoreCutoff {
			continue
		}
		hits = append(hits, scored{script: s, rank: score - s.Bias})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].script.Name < hits[j].script.Name
	})

	out := make([]Script, len(hits))
	for i, h := range hits {
		out[i] = h.script
	}
	return filterCategories(out, q.Categories)
}

// Score computes the weighted fuzzy score of pattern against s. It returns
// false when no field matches. 0 is a perfect match.
func Score(pattern string, s Script) (float64, bool) {
	var total float64
	var matched int
	for _, f := range searchFields(s) {
		fs, ok := fieldScore(pattern, f.value)
		if !ok {
			continue
		}
		total += fs * (1 - f.weight)
		matched++
	}
	if matched == 0 {
		return 0, false
	}
	return total / float64(matched), true
}

// fieldScore normalizes a sahilm/fuzzy match into [0, 1]: the share of
// unmatched characters inside the matched span plus a proximity penalty for
// matches starting far from the beginning of the field.
func fieldScore(pattern, value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	matches := fuzzy.Find(pattern, []string{value})
	if len(matches) == 0 || len(matches[0].MatchedIndexes) == 0 {
		return 0, false
	}
	idx := matches[0].MatchedIndexes
	first, last := idx[0], idx[len(idx)-1]
	span := last - first + 1
	gaps := span - len(idx)

	score := float64(gaps)/float64(span) + float64(first)/proximityDistance
	if score > 1 {
		score = 1
	}
	if score > fieldCutoff {
		return 0, false
	}
	return score, true
}

// filterCategories keeps scripts that carry every category in want.
func filterCategories(list []Script, want []string) []Script {
	if len(want) == 0 {
		return list
	}
	out := make([]Script, 0, len(list))
	for _, s := range list {
		keep := true
		for _, c := range want {
			if !s.HasCategory(c) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, s)
		}
	}
	return out
}
