package risk

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonLetterPattern        = regexp.MustCompile(`[^a-z]`)
	consonantClusterPattern = regexp.MustCompile(`[bcdfghjklmnpqrstvwxyz]{4,}`)
)

const (
	minLettersForGibberish = 3
	minRepeatRun           = 3
	minConsonantClusters   = 2
	minLettersForVowelTest = 5
	minVowelRatio          = 0.15
)

// IsGibberishText flags keyboard-mashed or repeated-character text.
// Short input is always treated as plausible.
func IsGibberishText(text string) GibberishResult {
	if len(text) < minLettersForGibberish {
		return GibberishResult{}
	}

	letters := nonLetterPattern.ReplaceAllString(strings.ToLower(text), "")
	if len(letters) < minLettersForGibberish {
		return GibberishResult{}
	}

	if run := firstRepeatRun(letters, minRepeatRun); run != "" {
		return GibberishResult{
			IsGibberish: true,
			Reason:      fmt.Sprintf("Repeated characters detected: %q", run),
		}
	}

	if clusters := consonantClusterPattern.FindAllString(letters, -1); len(clusters) >= minConsonantClusters {
		return GibberishResult{
			IsGibberish: true,
			Reason:      fmt.Sprintf("Unpronounceable consonant clusters: %s", strings.Join(clusters, ", ")),
		}
	}

	vowels := 0
	for _, r := range letters {
		if isVowel(r) {
			vowels++
		}
	}
	ratio := float64(vowels) / float64(len(letters))
	if len(letters) > minLettersForVowelTest && ratio < minVowelRatio {
		return GibberishResult{
			IsGibberish: true,
			Reason:      fmt.Sprintf("Very low vowel ratio (%.0f%%)", ratio*100),
		}
	}

	return GibberishResult{}
}

// firstRepeatRun returns the first maximal run of identical bytes at least min long.
// RE2 has no backreferences, so the run is found by scanning.
func firstRepeatRun(s string, min int) string {
	start := 0
	for i := 1; i <= len(s); i++ {
		if i < len(s) && s[i] == s[start] {
			continue
		}
		if i-start >= min {
			return s[start:i]
		}
		start = i
	}
	return ""
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
