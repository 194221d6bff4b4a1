package extract

import (
	"regexp"
	"strings"
)

// billNumberPattern accepts loose forms such as "s.00256", "A-12b" or "K 7".
var billNumberPattern = regexp.MustCompile(`^([A-Za-z])[.\-\s]*(\d+)([A-Za-z]?)$`)

// Normalize canonicalizes a legislative identifier: uppercase prefix letter,
// digits without leading zeros (at least one digit kept) and an optional
// uppercase suffix letter. Input that does not look like an identifier is
// returned uppercased.
func Normalize(raw string) string {
	m := billNumberPattern.FindStringSubmatch(raw)
	if m == nil {
		return strings.ToUpper(raw)
	}

	digits := strings.TrimLeft(m[2], "0")
	if digits == "" {
		digits = "0"
	}

	return strings.ToUpper(m[1]) + digits + strings.ToUpper(m[3])
}
