package parsers

import (
	"io"
	"strings"

	"github.com/alharis/haris/internal/haris/common/log"
)

// ParseAdblockList parses adblock-style filter lists, keeping only plain
// network rules of the form "||domain^". Exception rules, cosmetic rules,
// rules with modifiers and path rules are counted as ignored.
func ParseAdblockList(r io.Reader, source string, logger log.Logger) (Result, error) {
	scanner := newScanner(r)
	c := newCollector()

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(stripLineBOM(scanner.Text()))

		if isEmpty, isComment := classifyLine(line, "!", "#", "["); isEmpty || isComment {
			continue
		}
		c.stats.Lines++

		host, ok := adblockHost(line)
		if !ok {
			c.stats.Ignored++
			continue
		}
		name, err := normalizeEntry(host)
		if err != nil {
			c.stats.Malformed++
			logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err}, "adblock_skip_malformed")
			continue
		}
		c.add(name)
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err}, "adblock_scan_error")
		return Result{}, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(c.out), "ignored": c.stats.Ignored}, "adblock_parse_done")
	return c.result(), nil
}

// adblockHost extracts the host of a "||host^" rule. A trailing "|" after
// the separator is tolerated; anything else makes the rule unsupported.
func adblockHost(rule string) (string, bool) {
	if !strings.HasPrefix(rule, "||") {
		return "", false
	}
	rest := strings.TrimSuffix(rule[2:], "|")
	host, ok := strings.CutSuffix(rest, "^")
	if !ok || host == "" || strings.ContainsAny(host, "/^$*|") {
		return "", false
	}
	return host, true
}
