// Package tokenizer provides text tokenisation for the discovery engine.
// It lower-cases input, splits on non-alphanumeric boundaries, and discards
// tokens of length two or shorter. Output is deterministic for a given
// input string.
package tokenizer

import (
	"strings"
	"unicode"
)

// minTokenLen is exclusive: tokens of this length or shorter are discarded.
const minTokenLen = 2

// Tokenize breaks text into lowercased index terms.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= minTokenLen {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
