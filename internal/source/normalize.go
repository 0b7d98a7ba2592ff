package source

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	htmlTagRE  = regexp.MustCompile(`<[^>]*>`)
	numberRE   = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	relativeRE = regexp.MustCompile(`(\d+)\s*(分钟|小时|天)前`)
)

// StripHTML removes markup from microblog/search snippets.
func StripHTML(s string) string {
	return htmlTagRE.ReplaceAllString(s, "")
}

// ParseCount reads a view/follower count such as "1234", "1.2万" or "3亿".
func ParseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	m := numberRE.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}

	switch {
	case strings.Contains(s, "亿"):
		n *= 1e8
	case strings.Contains(s, "万"):
		n *= 1e4
	}
	return int64(n)
}

// ParseDurationMinutes reads a "MM:SS" or "HH:MM:SS" clip length and
// rounds up to whole minutes.
func ParseDurationMinutes(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	seconds := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		seconds = seconds*60 + n
	}
	return (seconds + 59) / 60
}

// ParseTime resolves a source timestamp against now. Relative forms
// ("5分钟前", "2小时前", "3天前", "刚刚") are supported because microblog and
// search-index pages rarely carry absolute times; anything unparseable
// falls back to the ingestion time, per the data-model contract.
func ParseTime(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}

	if s == "刚刚" {
		return now
	}
	if m := relativeRE.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "分钟":
			return now.Add(-time.Duration(n) * time.Minute)
		case "小时":
			return now.Add(-time.Duration(n) * time.Hour)
		case "天":
			return now.AddDate(0, 0, -n)
		}
	}

	for _, layout := range []string{
		time.RFC3339,
		time.RFC1123Z,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() == 0 {
				t = t.AddDate(now.Year(), 0, 0)
			}
			return t
		}
	}
	return now
}
