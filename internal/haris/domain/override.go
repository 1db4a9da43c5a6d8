package domain

import (
	"fmt"
	"strings"
)

// Verdict is the outcome an override forces.
type Verdict uint8

const (
	// VerdictBlock always blocks the target and its subdomains.
	VerdictBlock Verdict = iota
	// VerdictAllow lets the target and its subdomains through, bypassing
	// category data but never a block override.
	VerdictAllow
)

// String returns a stable string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictBlock:
		return "block"
	case VerdictAllow:
		return "allow"
	default:
		return fmt.Sprintf("Verdict(%d)", v)
	}
}

// ParseVerdict converts "block" or "allow" (case-insensitive).
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block":
		return VerdictBlock, nil
	case "allow":
		return VerdictAllow, nil
	default:
		return 0, fmt.Errorf("unsupported verdict: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, err := ParseVerdict(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Override is an account specific block or allow entry. Target may be a bare
// domain or a URL; only its host takes part in matching.
type Override struct {
	Target  string  `json:"target"`
	Verdict Verdict `json:"verdict"`
}

// BlockOverride is shorthand for a block override of target.
func BlockOverride(target string) Override { return Override{Target: target, Verdict: VerdictBlock} }

// AllowOverride is shorthand for an allow override of target.
func AllowOverride(target string) Override { return Override{Target: target, Verdict: VerdictAllow} }
