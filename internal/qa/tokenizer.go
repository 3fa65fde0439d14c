package qa

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxTokens bounds the fan-out of the token-union search.
	MaxTokens      = 6
	minTokenLength = 2

	dormitoryToken = "ktx"
)

var dormitoryWords = []string{"ký", "túc", "xá"}

// Tokenize normalizes a question into at most MaxTokens unique lowercase
// tokens of two or more characters, in first-seen order.
func Tokenize(question string) []string {
	cleaned := Normalize(question)
	if cleaned == "" {
		return []string{}
	}
	words := strings.Fields(cleaned)

	padded := " " + cleaned + " "
	if strings.Contains(padded, " ký túc xá ") || strings.Contains(padded, " kí túc xá ") {
		words = append(words, dormitoryToken)
	}
	for _, w := range words {
		if w == dormitoryToken {
			words = append(words, dormitoryWords...)
			break
		}
	}

	seen := make(map[string]struct{}, len(words))
	tokens := make([]string, 0, MaxTokens)
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		if utf8.RuneCountInString(w) < minTokenLength {
			continue
		}
		tokens = append(tokens, w)
		if len(tokens) == MaxTokens {
			break
		}
	}
	return tokens
}

// Normalize lower-cases s, replaces every run of characters that are neither
// letters nor digits with a single space and trims the result.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}
