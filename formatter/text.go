package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/coregx/coregex"

	"github.com/esgrep/esgrep/grep"
	"github.com/esgrep/esgrep/syntax"
)

var whitespace = coregex.MustCompile(`\s+`)

// OnelineFormatter writes path:line:column:text per match, with every run of
// whitespace in the text replaced by one space.
type OnelineFormatter struct{}

func (f *OnelineFormatter) Format(w io.Writer, res grep.FileResult) error {
	for _, m := range res.Matches {
		text := whitespace.ReplaceAllString(string(res.Source[m.Range.Start:m.Range.End]), " ")
		if _, err := fmt.Fprintf(w, "%s:%d:%d:%s\n", res.Path, m.Loc.Start.Line, m.Loc.Start.Column, text); err != nil {
			return err
		}
	}
	return nil
}

type jsonMatch struct {
	Path  string       `json:"path"`
	Match *syntax.Node `json:"match"`
}

// JSONLFormatter writes one {"path", "match"} object per line.
type JSONLFormatter struct{}

func (f *JSONLFormatter) Format(w io.Writer, res grep.FileResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, m := range res.Matches {
		if err := enc.Encode(jsonMatch{Path: res.Path, Match: m}); err != nil {
			return err
		}
	}
	return nil
}

// CountFormatter writes path:count, including inputs without matches.
type CountFormatter struct{}

func (f *CountFormatter) Format(w io.Writer, res grep.FileResult) error {
	_, err := fmt.Fprintf(w, "%s:%d\n", res.Path, len(res.Matches))
	return err
}
