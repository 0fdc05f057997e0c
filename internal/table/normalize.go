package table

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeName converts an arbitrary sheet/table name into a binding-safe
// identifier: lowercase, spaces and dashes to underscores, "&" to "and",
// any other disallowed rune to underscore, and a leading digit prefixed.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s = b.String()

	// Collapse runs of underscores left by symbol replacement.
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")

	if s == "" {
		s = "table"
	}
	if unicode.IsDigit(rune(s[0])) {
		s = "t_" + s
	}
	return s
}

// uniqueNames assigns normalized names to each source name in order,
// disambiguating collisions deterministically with a numeric suffix.
func uniqueNames(sourceNames []string) []string {
	seen := make(map[string]int, len(sourceNames))
	out := make([]string, len(sourceNames))
	for i, src := range sourceNames {
		name := NormalizeName(src)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		out[i] = name
	}
	return out
}
