package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// CleanCount parses a localized integer such as "1.234.567" or "1,234,567"
// by dropping every non-digit.
func CleanCount(s string) (int64, error) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, FormatDrift("no digits in count %q", s)
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, FormatDrift("count %q: %v", s, err)
	}
	return n, nil
}

// CleanDate parses s with a Go time layout and returns the UTC midnight of
// that calendar day.
func CleanDate(s, layout string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, FormatDrift("date %q does not match layout %q", s, layout)
	}
	return truncateDay(t), nil
}

// NormalizeVaccines canonicalizes a comma-joined vaccine list: names are
// trimmed, de-duplicated and sorted.
func NormalizeVaccines(s string) string {
	return strings.Join(splitVaccines(s), ", ")
}

// SameVaccines reports whether two vaccine lists name the same set.
func SameVaccines(a, b string) bool {
	return slices.Equal(splitVaccines(a), splitVaccines(b))
}

func splitVaccines(s string) []string {
	var out []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimFunc(name, unicode.IsSpace)
		if name != "" {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
