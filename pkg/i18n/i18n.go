// Package i18n localizes the merchant-facing strings of a risk assessment.
// Translations are compiled into the binary. Unknown languages fall back to English.
package i18n

import (
	"fmt"
	"strings"
)

// DefaultLang is used when a key or language is not found.
const DefaultLang = "en"

// SupportedLanguages lists the languages with a full translation set
var SupportedLanguages = []string{"en", "bn"}

// Translate returns a localized string for key in lang.
// Extra args are passed to fmt.Sprintf if the translation contains format verbs.
// Falls back to English if lang is unsupported, and to the key itself if the key is unknown.
func Translate(key, lang string, args ...interface{}) string {
	tmpl, ok := lookup(key, lang)
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// TranslateOr is Translate with an explicit fallback for unknown keys
func TranslateOr(key, lang, fallback string) string {
	if tmpl, ok := lookup(key, lang); ok {
		return tmpl
	}
	return fallback
}

// NormalizeLang maps a query or Accept-Language value to a supported language code
func NormalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_,;"); i > 0 {
		lang = lang[:i]
	}
	for _, supported := range SupportedLanguages {
		if lang == supported {
			return lang
		}
	}
	return DefaultLang
}

func lookup(key, lang string) (string, bool) {
	if lang == "" {
		lang = DefaultLang
	}
	langMap, ok := translations[key]
	if !ok {
		return "", false
	}
	if tmpl, ok := langMap[lang]; ok {
		return tmpl, true
	}
	tmpl, ok := langMap[DefaultLang]
	return tmpl, ok
}
