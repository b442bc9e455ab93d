package catalog

import (
	"regexp"
	"strings"
)

var spaceRun = regexp.MustCompile(` +`)

// NormalizeLineEndings turns CRLF and lone CR into LF.
func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CleanText is applied on forced regeneration: tabs become spaces, space
// runs collapse, every line is trimmed and blank lines are dropped.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = spaceRun.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
