package utils

import "strings"

// CanonicalDNSName trims surrounding whitespace and every trailing dot.
// Case is preserved; NormalizeDomain lowercases.
func CanonicalDNSName(name string) string {
	name = strings.TrimSpace(name)
	return strings.TrimRight(name, ".")
}
