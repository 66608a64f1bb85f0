// Package locale holds the bot texts in Russian and Uzbek.
package locale

import (
	"fmt"
	"strings"
)

// Supported languages.
const (
	RU = "ru"
	UZ = "uz"
)

// Language picker labels, shown before a language is known.
const (
	LabelRussian = "Русский"
	LabelUzbek   = "O'zbekcha"
	ChooseLang   = "Выберите язык / Tilni tanlang"
)

// Invisible separator used when only the keyboard has to change.
const Blank = "\u2063"

// FromLabel maps a language picker label to a language.
func FromLabel(text string) (string, bool) {
	switch strings.TrimSpace(text) {
	case LabelRussian:
		return RU, true
	case LabelUzbek:
		return UZ, true
	}
	return "", false
}

// Normalize returns lang when supported and fallback otherwise.
func Normalize(lang, fallback string) string {
	switch lang {
	case RU, UZ:
		return lang
	}
	if fallback == UZ {
		return UZ
	}
	return RU
}

// T returns the text for key, falling back to Russian and then to the key.
func T(lang, key string) string {
	if s, ok := catalog[lang][key]; ok {
		return s
	}
	if s, ok := catalog[RU][key]; ok {
		return s
	}
	return key
}

// F formats the text for key with args.
func F(lang, key string, args ...any) string {
	return fmt.Sprintf(T(lang, key), args...)
}
