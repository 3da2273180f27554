package domain

import "regexp"

// Extract matches pattern against text and returns the capture groups.
// A non-match is format drift; partial results are never returned.
func Extract(pattern *regexp.Regexp, text, what string) ([]string, error) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil, FormatDrift("%s: pattern %q did not match", what, pattern.String())
	}
	groups := m[1:]
	for i, g := range groups {
		if g == "" {
			return nil, FormatDrift("%s: group %d of %q is empty", what, i+1, pattern.String())
		}
	}
	return groups, nil
}

// ExtractCounts is Extract followed by CleanCount on every group.
func ExtractCounts(pattern *regexp.Regexp, text, what string) ([]int64, error) {
	groups, err := Extract(pattern, text, what)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(groups))
	for i, g := range groups {
		n, err := CleanCount(g)
		if err != nil {
			return nil, FormatDrift("%s: group %d: %v", what, i+1, err)
		}
		out[i] = n
	}
	return out, nil
}
