package catalog

import (
	"regexp"
	"strings"

	"pooly/internal/textnorm"
)

// SnippetLimit is the maximum length, in runes, of a returned snippet.
const SnippetLimit = 240

// minTokenLen drops short words ("di", "a", "il") from queries.
const minTokenLen = 3

var nonToken = regexp.MustCompile(`[^a-z0-9\s]`)

// Snippet is a single catalog line returned by Search.
type Snippet struct {
	Text string `json:"snippet"`
	Line int    `json:"line"`
}

// Search returns up to maxResults catalog lines matching query, in document
// order. A line matches when its normalized form contains every query token;
// only if no line does are lines containing any token returned instead. A
// query without usable tokens yields the first lines of the catalog.
func Search(query, text string, maxResults int) []Snippet {
	if maxResults <= 0 || strings.TrimSpace(text) == "" {
		return []Snippet{}
	}

	lines := splitLines(text)
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return sample(lines, maxResults)
	}

	normalized := make([]string, len(lines))
	for i, l := range lines {
		normalized[i] = textnorm.Normalize(l.text)
	}

	out := collect(lines, normalized, maxResults, func(nline string) bool {
		for _, tok := range tokens {
			if !strings.Contains(nline, tok) {
				return false
			}
		}
		return true
	})
	if len(out) > 0 {
		return out
	}

	return collect(lines, normalized, maxResults, func(nline string) bool {
		for _, tok := range tokens {
			if strings.Contains(nline, tok) {
				return true
			}
		}
		return false
	})
}

// Tokenize extracts the match tokens of a query: ASCII letters and digits of
// the normalized query, split on whitespace, at least three characters long.
func Tokenize(query string) []string {
	cleaned := nonToken.ReplaceAllString(textnorm.Normalize(query), " ")
	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

type line struct {
	text string
	num  int
}

func splitLines(text string) []line {
	raw := strings.Split(text, "\n")
	out := make([]line, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		out = append(out, line{text: l, num: i + 1})
	}
	return out
}

func sample(lines []line, n int) []Snippet {
	if n > len(lines) {
		n = len(lines)
	}
	out := make([]Snippet, 0, n)
	for _, l := range lines[:n] {
		out = append(out, Snippet{Text: truncate(l.text), Line: l.num})
	}
	return out
}

func collect(lines []line, normalized []string, max int, match func(string) bool) []Snippet {
	out := make([]Snippet, 0, max)
	for i, l := range lines {
		if !match(normalized[i]) {
			continue
		}
		out = append(out, Snippet{Text: truncate(collapseSpaces(l.text)), Line: l.num})
		if len(out) >= max {
			break
		}
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= SnippetLimit {
		return s
	}
	return string(r[:SnippetLimit])
}
