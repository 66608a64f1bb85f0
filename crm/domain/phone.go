package domain

import (
	"strings"
	"unicode"
)

// MinPhoneDigits is the shortest accepted phone number.
const MinPhoneDigits = 7

// NormalizePhone keeps the digits of s.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether s carries at least MinPhoneDigits digits.
func ValidPhone(s string) bool {
	return len(NormalizePhone(s)) >= MinPhoneDigits
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// FirstName returns the capitalized first word of a full name.
func FirstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	r := []rune(fields[0])
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
