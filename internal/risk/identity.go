package risk

import (
	"fmt"
	"regexp"
	"strings"
)

var nameNoisePattern = regexp.MustCompile(`[^a-z\s]`)

// CheckNameMismatch compares the shipping name with the profile name.
// A single shared word is enough to consider the names matching.
func CheckNameMismatch(shippingName, profileName string) NameMismatchResult {
	if strings.TrimSpace(shippingName) == "" || strings.TrimSpace(profileName) == "" {
		return NameMismatchResult{}
	}

	shippingWords := nameWords(shippingName)
	profileWords := nameWords(profileName)
	if len(shippingWords) == 0 || len(profileWords) == 0 {
		return NameMismatchResult{}
	}

	known := make(map[string]struct{}, len(profileWords))
	for _, w := range profileWords {
		known[w] = struct{}{}
	}
	for _, w := range shippingWords {
		if _, ok := known[w]; ok {
			return NameMismatchResult{}
		}
	}

	return NameMismatchResult{
		IsMismatch: true,
		Reason:     fmt.Sprintf("Shipping name %q does not match profile name %q", shippingName, profileName),
	}
}

func nameWords(name string) []string {
	normalized := nameNoisePattern.ReplaceAllString(strings.ToLower(name), "")
	return strings.Fields(strings.TrimSpace(normalized))
}
