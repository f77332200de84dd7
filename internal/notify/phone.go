package notify

import "strings"

// NormalizePhone converts user-entered numbers to E.164. Ten-digit numbers
// get defaultCountryCode; anything else keeps its digits with a leading "+".
func NormalizePhone(raw, defaultCountryCode string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}

	if len(d) == 10 {
		cc := strings.TrimPrefix(defaultCountryCode, "+")
		return "+" + cc + d
	}
	return "+" + d
}
