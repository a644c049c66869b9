// Package words holds the lexical rule for secret words.
package words

import "unicode"

// Valid reports whether s is a non-empty word made only of lowercase letters.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) || !unicode.IsLower(r) {
			return false
		}
	}
	return true
}
