// Package textnorm folds free text into the form used for catalog matching.
package textnorm

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies compatibility decomposition (NFKD) and lowercases the
// result, so "Caffè" and "caffe" share the prefix "caffe". Input that is not
// valid UTF-8 is only lowercased.
func Normalize(s string) string {
	if !utf8.ValidString(s) {
		return strings.ToLower(s)
	}
	return strings.ToLower(norm.NFKD.String(s))
}
