package catalog

import (
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"
)

// CategorySynonyms maps informal activity words to canonical categories.
var CategorySynonyms = map[string]string{
	"park":          "nature",
	"walk":          "nature",
	"hiking":        "nature",
	"museum":        "culture",
	"art":           "culture",
	"food":          "restaurant",
	"eat":           "restaurant",
	"dining":        "restaurant",
	"stay":          "hotel",
	"accommodation": "hotel",
}

// NormalizeActivity lowercases the word and maps it through CategorySynonyms.
func NormalizeActivity(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if canonical, ok := CategorySynonyms[w]; ok {
		return canonical
	}
	return w
}

// ActivityMatcher finds a known activity inside a free-text phrase such as
// "somewhere to go hiking".
type ActivityMatcher struct {
	ac      a.AhoCorasick
	allowed map[string]struct{}
}

// NewActivityMatcher indexes the allowed words together with every synonym.
func NewActivityMatcher(allowed map[string]struct{}) *ActivityMatcher {
	seen := make(map[string]struct{}, len(allowed)+len(CategorySynonyms))
	patterns := make([]string, 0, len(allowed)+len(CategorySynonyms))
	add := func(w string) {
		if _, ok := seen[w]; ok || w == "" {
			return
		}
		seen[w] = struct{}{}
		patterns = append(patterns, w)
	}
	for w := range allowed {
		add(w)
	}
	for w := range CategorySynonyms {
		add(w)
	}

	builder := a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
	})
	return &ActivityMatcher{
		ac:      builder.Build(patterns),
		allowed: allowed,
	}
}

// Resolve returns the first allowed activity mentioned in the phrase, after
// synonym normalization.
func (m *ActivityMatcher) Resolve(phrase string) (string, bool) {
	lower := strings.ToLower(phrase)
	for _, match := range m.ac.FindAll(lower) {
		activity := NormalizeActivity(lower[match.Start():match.End()])
		if _, ok := m.allowed[activity]; ok {
			return activity, true
		}
	}
	return "", false
}
