package parsers

import (
	"io"
	"strings"
	"unicode"

	"github.com/alharis/haris/internal/haris/common/log"
)

// ParsePlainList parses a newline-delimited list of domains.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Counts lines holding more than one token as malformed
// - Accepts optional "*." or "." markers, which are dropped
// - Counts entries that do not normalize as malformed and keeps going
// - De-duplicates by normalized name while preserving first-seen order
func ParsePlainList(r io.Reader, source string, logger log.Logger) (Result, error) {
	scanner := newScanner(r)
	c := newCollector()

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		if isEmpty, isComment := classifyLine(line, "#"); isEmpty || isComment {
			continue
		}
		c.stats.Lines++

		s := strings.TrimSpace(stripInlineComment(line))
		if s == "" {
			continue
		}
		// One domain per line; anything with inner whitespace is not a plain entry.
		if strings.ContainsFunc(s, unicode.IsSpace) {
			c.stats.Malformed++
			logger.Debug(map[string]any{"source": source, "line": lineNum}, "plain_skip_whitespace")
			continue
		}

		name, err := normalizeEntry(s)
		if err != nil {
			c.stats.Malformed++
			logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err}, "plain_skip_malformed")
			continue
		}
		c.add(name)
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err}, "plain_scan_error")
		return Result{}, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(c.out), "malformed": c.stats.Malformed}, "plain_parse_done")
	return c.result(), nil
}
