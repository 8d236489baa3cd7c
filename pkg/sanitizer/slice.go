package sanitizer

import (
	"slices"
	"strings"
)

func NormalizeStringSlice(items []string, normalizer func(string) string) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)

		if normalized == "" {
			continue
		}

		if seen[normalized] {
			continue
		}

		seen[normalized] = true
		result = append(result, normalized)
	}

	return result
}

// NormalizeDates trims, de-duplicates and sorts YYYY-MM-DD dates. Lexical order
// is chronological for that layout.
func NormalizeDates(dates []string) []string {
	out := NormalizeStringSlice(dates, strings.TrimSpace)
	slices.Sort(out)
	return out
}

// NormalizeWeekdays de-duplicates and sorts weekday numbers. Out-of-range
// values are kept for the validator to reject.
func NormalizeWeekdays(days []int) []int {
	if len(days) == 0 {
		return []int{}
	}
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}
