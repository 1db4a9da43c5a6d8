package parsers

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"github.com/alharis/haris/internal/haris/common/utils"
	"github.com/alharis/haris/internal/haris/domain"
)

// maxLineSize bounds a single line; longer lines abort the parse.
const maxLineSize = 1 << 20

// Stats counts what a parser did with its input.
type Stats struct {
	Lines      int // non-empty, non-comment lines seen
	Accepted   int // unique domains emitted
	Duplicates int // valid domains already emitted
	Malformed  int // entries rejected by normalization
	Ignored    int // syntactically valid rules that carry no domain block
}

// Result is the outcome of parsing one source body.
type Result struct {
	Domains []string
	Stats   Stats
}

// collector de-duplicates normalized domains while preserving first-seen order.
type collector struct {
	seen  map[string]struct{}
	out   []string
	stats Stats
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{}, 256), out: make([]string, 0, 256)}
}

func (c *collector) add(name string) bool {
	if _, ok := c.seen[name]; ok {
		c.stats.Duplicates++
		return false
	}
	c.seen[name] = struct{}{}
	c.out = append(c.out, name)
	c.stats.Accepted++
	return true
}

func (c *collector) result() Result {
	return Result{Domains: c.out, Stats: c.stats}
}

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return s
}

// normalizeEntry turns one list token into a blockable domain. A leading
// "*." or "." marker is dropped: every entry already covers its subdomains.
// Entries with a single label, IP addresses and public suffixes are rejected
// with domain.ErrMalformedEntry.
func normalizeEntry(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "*.")
	s = strings.TrimPrefix(s, ".")

	name, err := utils.NormalizeDomain(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedEntry, err)
	}
	if !strings.Contains(name, ".") {
		return "", fmt.Errorf("%w: %q: single label", domain.ErrMalformedEntry, raw)
	}
	if _, err := netip.ParseAddr(name); err == nil {
		return "", fmt.Errorf("%w: %q: ip address", domain.ErrMalformedEntry, raw)
	}
	if utils.IsPublicSuffix(name) {
		return "", fmt.Errorf("%w: %q: public suffix", domain.ErrMalformedEntry, raw)
	}
	return name, nil
}

// classifyLine reports whether the line is empty or a whole-line comment
// for any of the given comment prefixes.
func classifyLine(line string, prefixes ...string) (isEmpty, isComment bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true, false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return false, true
		}
	}
	return false, false
}

// stripInlineComment removes everything after the first '#'.
func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

func stripLineBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
