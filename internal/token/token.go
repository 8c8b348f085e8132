// Package token normalizes and splits document and query text into the
// terms the index and ranker operate on.
package token

import (
	"regexp"
	"strings"
)

// splitRegex matches runs of whitespace or any separator punctuation. It is
// compiled once at package init and reused for every call, rather than
// recompiled per document.
//
// The class is a known rough heuristic: it treats any of
// . , ; : ? ! " ' - _ / ( ) [ ] < > % $ € as a word boundary in addition to
// whitespace. Changing it changes segment routing for every existing term,
// so any change to this pattern must be accompanied by a full index rebuild.
var splitRegex = regexp.MustCompile(`[\s.,;:?!"'\-_/()\[\]<>%$€]+`)

// Tokenize lowercases text with a locale-insensitive case fold and splits it
// on splitRegex, discarding any empty tokens produced by adjacent
// separators. The returned slice preserves token order; duplicate terms are
// kept because their positions matter to callers.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	parts := splitRegex.Split(lower, -1)

	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
