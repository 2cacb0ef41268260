package pii

import "strings"

// NormalizePhone reduces a free-form phone field to digits with a light
// leading-country-code heuristic (E.164-ish, not validated):
//   - a US 11-digit number with a leading 1 is reduced to its 10 digits
//   - 10 digits are assumed US and prefixed +1
//   - international 00 / 011 dialing prefixes are stripped
//   - 11+ digits keep their country code as-is
//
// Best-effort only: anything shorter than a plausible number yields nil,
// as does an absent phone. Never fails on malformed input.
func NormalizePhone(phone string) *string {
	if strings.TrimSpace(phone) == "" {
		return nil
	}

	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}

	var normalized string
	switch {
	case len(digits) == 10:
		normalized = "+1" + digits
	case len(digits) >= 11 && strings.HasPrefix(digits, "00"):
		normalized = "+" + digits[2:]
	case len(digits) >= 11 && strings.HasPrefix(digits, "011"):
		normalized = "+" + digits[3:]
	case len(digits) >= 11:
		normalized = "+" + digits
	default:
		return nil
	}
	return &normalized
}
