package accounts

import "strings"

// NormalizePhone strips whitespace, hyphens and parentheses so numbers that
// arrive in inconsistent formats ("+1 (415) 555-0199" vs "14155550199")
// compare equal. A leading "+" survives normalization.
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '-', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PhoneSuffix returns the last n digits of a normalized number, used as the
// fallback match when country-code prefixes differ. Returns "" when the
// number has fewer than n digits, so short numbers never suffix-match.
func PhoneSuffix(normalized string, n int) string {
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < n {
		return ""
	}
	return digits[len(digits)-n:]
}
