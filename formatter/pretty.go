package formatter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/esgrep/esgrep/grep"
	"github.com/esgrep/esgrep/syntax"
)

// PrettyFormatter writes each match under a boxed path:line:column header,
// followed by the highlighted source lines it spans.
type PrettyFormatter struct{}

func (f *PrettyFormatter) Format(w io.Writer, res grep.FileResult) error {
	if len(res.Matches) == 0 {
		return nil
	}
	lines := highlightLines(res.Dialect, res.Source)

	var b strings.Builder
	for _, m := range res.Matches {
		b.Reset()
		writeMatch(&b, res.Path, m, lines)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeMatch(b *strings.Builder, path string, m *syntax.Node, lines []string) {
	start, end := m.Loc.Start, m.Loc.End
	location := fmt.Sprintf("%s:%d:%d", path, start.Line, start.Column)
	width := calculateMaxLineNumWidth(end.Line)
	locationWidth := utf8.RuneCountInString(location)

	// 1. Header box
	b.WriteString(boxStyle.Sprint(strings.Repeat("─", locationWidth+1) + "┐"))
	b.WriteByte('\n')
	b.WriteString(boxStyle.Sprint(location + " │"))
	b.WriteByte('\n')
	b.WriteString(boxStyle.Sprint(strings.Repeat(" ", width+1) + "┌" + strings.Repeat("─", max(locationWidth-width-1, 0)) + "┘"))
	b.WriteByte('\n')

	// 2. Matched lines
	for n := start.Line; n <= end.Line && n <= len(lines); n++ {
		b.WriteString(boxStyle.Sprintf("%*d │", width, n))
		b.WriteByte(' ')
		b.WriteString(lines[n-1])
		b.WriteByte('\n')
	}
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

// highlightLines colors src and splits it into lines. Tokens spanning lines
// are colored line by line so that every line stands on its own.
func highlightLines(d syntax.Dialect, src []byte) []string {
	tokens, err := syntax.Highlight(context.Background(), d, src)
	if err != nil {
		tokens = nil
	}

	var b strings.Builder
	at := 0
	for _, tok := range tokens {
		b.Write(src[at:tok.Range.Start])
		text := string(src[tok.Range.Start:tok.Range.End])
		style := classStyle(tok.Class)
		for i, part := range strings.Split(text, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if part != "" {
				b.WriteString(style.Sprint(part))
			}
		}
		at = tok.Range.End
	}
	b.Write(src[at:])
	return strings.Split(b.String(), "\n")
}

func classStyle(c syntax.Class) *color.Color {
	switch c {
	case syntax.ClassKeyword:
		return keywordStyle
	case syntax.ClassString:
		return stringStyle
	case syntax.ClassNumber:
		return numberStyle
	case syntax.ClassComment:
		return commentStyle
	case syntax.ClassType:
		return typeStyle
	case syntax.ClassConstant:
		return constantStyle
	default:
		return color.New(color.Reset)
	}
}
