package risk

import (
	"fmt"
	"regexp"
)

var (
	phoneNoisePattern = regexp.MustCompile(`[\s\-+()]`)
	// Optional 880 or 0 prefix, then an operator code 13-19 and eight subscriber digits.
	bdMobilePattern = regexp.MustCompile(`^(?:880|0)?1[3-9]\d{8}$`)
)

// IsValidBDPhone validates a Bangladesh mobile number in local or international form
func IsValidBDPhone(phone string) PhoneResult {
	cleaned := phoneNoisePattern.ReplaceAllString(phone, "")
	if cleaned == "" {
		return PhoneResult{Reason: "No phone number provided"}
	}

	if !bdMobilePattern.MatchString(cleaned) {
		return PhoneResult{Reason: fmt.Sprintf("Invalid Bangladesh mobile number format: %q", phone)}
	}

	return PhoneResult{IsValid: true}
}
