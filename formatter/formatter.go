// Package formatter renders search results.
package formatter

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/esgrep/esgrep/grep"
)

// Output formats.
const (
	Pretty  = "pretty"
	Oneline = "oneline"
	JSONL   = "jsonl"
	Count   = "count"
)

var (
	boxStyle      = color.New(color.FgBlue)
	keywordStyle  = color.New(color.FgMagenta)
	stringStyle   = color.New(color.FgGreen)
	numberStyle   = color.New(color.FgYellow)
	commentStyle  = color.New(color.FgHiBlack)
	typeStyle     = color.New(color.FgCyan)
	constantStyle = color.New(color.FgYellow, color.Bold)
)

// ResultFormatter writes the matches of one searched input.
type ResultFormatter interface {
	Format(w io.Writer, res grep.FileResult) error
}

// New is a factory function that returns the ResultFormatter for format.
func New(format string) (ResultFormatter, error) {
	switch format {
	case Pretty:
		return &PrettyFormatter{}, nil
	case Oneline:
		return &OnelineFormatter{}, nil
	case JSONL:
		return &JSONLFormatter{}, nil
	case Count:
		return &CountFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
