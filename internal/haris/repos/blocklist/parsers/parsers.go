// Package parsers turns raw source bodies into normalized domain lists.
package parsers

import (
	"bytes"
	"fmt"
	"io"

	"github.com/alharis/haris/internal/haris/common/log"
	"github.com/alharis/haris/internal/haris/domain"
)

// Parse dispatches body to the parser for format.
func Parse(format domain.SourceFormat, body []byte, source string, logger log.Logger) (Result, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	var r io.Reader = bytes.NewReader(body)
	switch format {
	case domain.SourceFormatPlain:
		return ParsePlainList(r, source, logger)
	case domain.SourceFormatHosts:
		return ParseHostsFile(r, source, logger)
	case domain.SourceFormatAdblock:
		return ParseAdblockList(r, source, logger)
	default:
		return Result{}, fmt.Errorf("parsers: unsupported format %v", format)
	}
}
