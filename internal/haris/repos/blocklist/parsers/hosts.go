package parsers

import (
	"io"
	"strings"

	"github.com/alharis/haris/internal/haris/common/log"
)

// ParseHostsFile parses /etc/hosts-style files.
//
// Rules:
// - Ignore the IP field; extract one or more hostnames following it
// - Skip comments (whole-line or inline after '#') and blank lines
// - Reject wildcard tokens; hosts syntax has no suffix markers
// - Count tokens that do not normalize (e.g. "localhost") as malformed
func ParseHostsFile(r io.Reader, source string, logger log.Logger) (Result, error) {
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

		fields := strings.Fields(stripInlineComment(line))
		if len(fields) < 2 {
			c.stats.Malformed++
			logger.Debug(map[string]any{"source": source, "line": lineNum}, "hosts_no_hostnames")
			continue
		}

		// fields[0] is the address
		for _, raw := range fields[1:] {
			if strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
				c.stats.Malformed++
				logger.Debug(map[string]any{"source": source, "line": lineNum, "raw": raw}, "hosts_skip_invalid_token")
				continue
			}
			name, err := normalizeEntry(raw)
			if err != nil {
				c.stats.Malformed++
				logger.Debug(map[string]any{"source": source, "line": lineNum, "error": err}, "hosts_skip_malformed")
				continue
			}
			c.add(name)
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err}, "hosts_scan_error")
		return Result{}, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(c.out), "malformed": c.stats.Malformed}, "hosts_parse_done")
	return c.result(), nil
}
