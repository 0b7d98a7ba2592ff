package domain

import (
	"regexp"
	"sort"
	"strings"
)

const (
	// MinPriority..MaxPriority bound the per-item priority heuristic.
	MinPriority = 1
	MaxPriority = 10

	// MaxTags caps how many derived tags a candidate carries.
	MaxTags = 5

	summaryRuneLimit = 100
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// Summarize derives the short summary shown in list views: title plus
// description, truncated to 100 runes with an ellipsis marker.
func Summarize(title, description string) string {
	text := CleanText(strings.TrimSpace(title + " " + description))
	runes := []rune(text)
	if len(runes) <= summaryRuneLimit {
		return text
	}
	return string(runes[:summaryRuneLimit]) + "..."
}

// ClampPriority forces a heuristic priority into [MinPriority, MaxPriority].
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// TagFamilies maps lowercase match keywords to their canonical tag. Several
// keywords may belong to one family; a family contributes at most one tag.
type TagFamilies map[string]string

// DefaultTagFamilies covers the domain's topical vocabulary.
func DefaultTagFamilies() TagFamilies {
	return TagFamilies{
		"ai":     "AI",
		"人工智能":   "AI",
		"机器学习":   "机器学习",
		"深度学习":   "深度学习",
		"算法":     "算法",
		"python": "Python",
		"大模型":    "大模型",
		"gpt":    "GPT",
		"编程":     "编程",
		"开发":     "开发",
		"技术":     "技术",
		"教程":     "教程",
	}
}

// ExtractTags matches title+description against the families and returns up
// to MaxTags canonical tags, deduplicated by family.
func (f TagFamilies) ExtractTags(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	keywords := make([]string, 0, len(f))
	for keyword := range f {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)

	var tags []string
	seen := make(map[string]bool)
	for _, keyword := range keywords {
		tag := f[keyword]
		if !strings.Contains(text, keyword) || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) >= MaxTags {
			break
		}
	}
	return tags
}
