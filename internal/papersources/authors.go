package papersources

import (
	"regexp"
	"strings"
)

var authorSeparator = regexp.MustCompile(`[;,]`)

// SplitAuthors splits a delimited author string on commas and semicolons,
// trimming each name and dropping blanks.
func SplitAuthors(s string) []string {
	parts := authorSeparator.Split(s, -1)
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// CollapseWhitespace replaces every run of whitespace with a single space and
// trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// YearPrefix returns the first four characters of a date string when they
// are all digits, otherwise "".
func YearPrefix(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date[:4]
}
