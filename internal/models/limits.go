package models

import "strings"

// Field caps applied to analyzer output before it is stored in a response.
const (
	MaxTitleLength       = 200
	MaxSubcategoryLength = 100
	MaxSummaryLength     = 2000
	MaxExpandedLength    = 10000
	MaxShortFieldLength  = 50
	MaxReadmeLength      = 20000
	MaxOverviewLength    = 5000

	MaxActions      = 50
	MaxActionLength = 500

	MaxTechStack       = 20
	MaxTechStackLength = 50

	MaxFeatures      = 50
	MaxFeatureLength = 200
)

// Truncate trims s and cuts it to at most n characters.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

// CapList keeps at most n non-empty entries, each truncated to itemLen.
// It never returns nil so JSON renders an empty array.
func CapList(in []string, n, itemLen int) []string {
	out := make([]string, 0, min(len(in), n))
	for _, s := range in {
		if len(out) == n {
			break
		}
		s = Truncate(s, itemLen)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
