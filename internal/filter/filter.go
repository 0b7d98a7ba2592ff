// Package filter holds the pure content predicate applied to every
// candidate item before dedup and persistence.
package filter

import (
	"strings"
	"unicode/utf8"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
)

// Filter rejects candidates with out-of-range titles, candidates carrying
// no domain-relevance keyword, and candidates carrying any deny keyword.
type Filter struct {
	minTitleLength int
	maxTitleLength int
	keywords       []string
	denyKeywords   []string
}

func New(cfg config.FilterConfig) *Filter {
	return &Filter{
		minTitleLength: cfg.MinTitleLength,
		maxTitleLength: cfg.MaxTitleLength,
		keywords:       lowerAll(cfg.Keywords),
		denyKeywords:   lowerAll(cfg.ExcludeKeywords),
	}
}

// Keep reports whether the item survives filtering. Deny keywords win over
// allow keywords.
func (f *Filter) Keep(item domain.CandidateItem) bool {
	titleLen := utf8.RuneCountInString(item.Title)
	if titleLen < f.minTitleLength || titleLen > f.maxTitleLength {
		return false
	}

	text := strings.ToLower(item.Title + " " + item.Description)

	for _, kw := range f.denyKeywords {
		if strings.Contains(text, kw) {
			return false
		}
	}

	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
