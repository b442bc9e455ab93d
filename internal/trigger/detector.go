// Package trigger spots configured keywords that ask for a human follow-up.
package trigger

import "strings"

// DefaultKeywords request a contact notification.
var DefaultKeywords = []string{"preventivo", "contatto", "contati", "persona", "contattami"}

// Detect returns the first keyword, in configured order, that appears
// anywhere in message, ignoring case.
func Detect(message string, keywords []string) (string, bool) {
	lower := strings.ToLower(message)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(k)) {
			return k, true
		}
	}
	return "", false
}
