// Package security cleans free text entered by operators before it is stored.
package security

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlTagPattern     = regexp.MustCompile(`(?s)</?[a-zA-Z][^>]*>`)
)

// SanitizeString trims the input and removes control characters other than newline and tab
func SanitizeString(input string) string {
	return strings.TrimSpace(removeControlCharacters(input))
}

// StripHTMLTags removes HTML tags and comments, keeping their text content
func StripHTMLTags(input string) string {
	out := htmlCommentPattern.ReplaceAllString(input, "")
	return htmlTagPattern.ReplaceAllString(out, "")
}

// TruncateString cuts input to at most maxLength runes
func TruncateString(input string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= maxLength {
		return input
	}
	return string([]rune(input)[:maxLength])
}

// NormalizeWhitespace collapses every run of whitespace into one space
func NormalizeWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// SanitizeNotes prepares operator notes for storage. Line breaks are kept.
func SanitizeNotes(input string, maxLength int) string {
	out := StripHTMLTags(SanitizeString(input))
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = NormalizeWhitespace(line)
	}
	return TruncateString(strings.TrimSpace(strings.Join(lines, "\n")), maxLength)
}

func removeControlCharacters(input string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}
