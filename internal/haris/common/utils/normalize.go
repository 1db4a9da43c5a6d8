package utils

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"github.com/alharis/haris/internal/haris/domain"
)

const (
	maxDomainLength = 253
	maxLabelLength  = 63
)

// NormalizeDomain converts a raw list entry, URL or query string into the
// canonical domain form:
//   - lowercased, surrounding whitespace and a leading BOM removed
//   - scheme, userinfo, path, query, fragment and port stripped
//   - trailing dots removed
//   - internationalized names converted to their ASCII (punycode) form
//
// A leading "www." is kept, it names a distinct domain. Input that does not
// form a valid hostname is rejected with domain.ErrMalformedDomain.
func NormalizeDomain(raw string) (string, error) {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	if s == "" {
		return "", malformed(raw, "empty")
	}
	if strings.ContainsAny(s, " \t\r\n\v\f") {
		return "", malformed(raw, "contains whitespace")
	}

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	} else {
		s = strings.TrimPrefix(s, "//")
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if strings.HasPrefix(s, "[") {
		return "", malformed(raw, "ip literal")
	}
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		if !isDigits(s[i+1:]) {
			return "", malformed(raw, "bad port")
		}
		s = s[:i]
	}

	s = strings.ToLower(CanonicalDNSName(s))
	if !isASCII(s) {
		ascii, err := idna.Lookup.ToASCII(s)
		if err != nil {
			return "", malformed(raw, err.Error())
		}
		s = ascii
	}
	if reason := hostnameProblem(s); reason != "" {
		return "", malformed(raw, reason)
	}
	return s, nil
}

// Covers reports whether parent equals child or child is a subdomain of
// parent on a label boundary. Both names must already be normalized.
func Covers(parent, child string) bool {
	if parent == "" || child == "" {
		return false
	}
	if child == parent {
		return true
	}
	return len(child) > len(parent) &&
		strings.HasSuffix(child, parent) &&
		child[len(child)-len(parent)-1] == '.'
}

// Ancestors returns name followed by each parent domain obtained by stripping
// leading labels, most specific first: "a.b.c" yields a.b.c, b.c, c.
func Ancestors(name string) []string {
	if name == "" {
		return nil
	}
	out := make([]string, 0, strings.Count(name, ".")+1)
	for {
		out = append(out, name)
		i := strings.IndexByte(name, '.')
		if i < 0 || i == len(name)-1 {
			return out
		}
		name = name[i+1:]
	}
}

// IsPublicSuffix reports whether name is itself an ICANN public suffix such
// as "com" or "co.uk". Blocking such a name would cover unrelated registrants.
func IsPublicSuffix(name string) bool {
	ps, icann := publicsuffix.PublicSuffix(name)
	return icann && ps == name
}

func hostnameProblem(s string) string {
	if s == "" {
		return "empty"
	}
	if len(s) > maxDomainLength {
		return "too long"
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" {
			return "empty label"
		}
		if len(label) > maxLabelLength {
			return "label too long"
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return "label starts or ends with hyphen"
		}
		for i := 0; i < len(label); i++ {
			if !isHostByte(label[i]) {
				return fmt.Sprintf("invalid character %q", label[i])
			}
		}
	}
	return ""
}

func isHostByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func malformed(raw, reason string) error {
	return fmt.Errorf("%w: %q: %s", domain.ErrMalformedDomain, raw, reason)
}
