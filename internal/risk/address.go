package risk

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var phoneLikePattern = regexp.MustCompile(`^[\d+\-\s()]{7,15}$`)

const (
	// Only the segments right after the name are searched for a phone number.
	maxPhoneSegment     = 2
	maxShortPartLength  = 2
	minShortPartsToFlag = 2
)

// ParseShippingAddress splits "name, phone, address..." into its parts.
// The parse is a heuristic and never fails; a nil or blank address yields empty fields.
func ParseShippingAddress(address *string) ParsedAddress {
	parsed := ParsedAddress{AddressParts: []string{}}
	if address == nil || strings.TrimSpace(*address) == "" {
		return parsed
	}

	segments := strings.Split(*address, ",")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	parsed.Name = segments[0]

	for i := 1; i <= maxPhoneSegment && i < len(segments); i++ {
		if phoneLikePattern.MatchString(segments[i]) {
			parsed.Phone = segments[i]
			parsed.AddressParts = append(parsed.AddressParts, segments[i+1:]...)
			return parsed
		}
	}

	parsed.AddressParts = append(parsed.AddressParts, segments[1:]...)
	return parsed
}

// CheckShortAddressParts flags addresses made of several one or two character fragments
func CheckShortAddressParts(parts []string) ShortPartsResult {
	short := make([]string, 0)
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if n := utf8.RuneCountInString(trimmed); n > 0 && n <= maxShortPartLength {
			short = append(short, trimmed)
		}
	}

	if len(short) < minShortPartsToFlag {
		return ShortPartsResult{}
	}

	quoted := make([]string, len(short))
	for i, s := range short {
		quoted[i] = fmt.Sprintf("%q", s)
	}

	return ShortPartsResult{
		IsSuspicious: true,
		Parts:        short,
		Reason:       fmt.Sprintf("%d very short address segments: %s", len(short), strings.Join(quoted, ", ")),
	}
}
