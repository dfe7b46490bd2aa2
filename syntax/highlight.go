package syntax

import (
	"context"
	"fmt"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

// Class is the highlighting class of a source token.
type Class int

const (
	ClassPlain Class = iota
	ClassKeyword
	ClassString
	ClassNumber
	ClassComment
	ClassType
	ClassConstant
)

// Token is a highlighted span of source text.
type Token struct {
	Range Range
	Class Class
}

var constantKinds = map[string]bool{
	"true":      true,
	"false":     true,
	"null":      true,
	"undefined": true,
	"this":      true,
	"super":     true,
}

// Highlight classifies the tokens of src for display. Unlike Parse it
// tolerates syntax errors, since callers only use it to color output.
// Plain tokens are omitted; the result is ordered and non-overlapping.
func Highlight(ctx context.Context, d Dialect, src []byte) ([]Token, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(d.language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("highlight %s: %w", d, err)
	}
	defer tree.Close()

	var tokens []Token
	emit := func(start, end uint32, class Class) {
		if start < end {
			tokens = append(tokens, Token{Range: Range{Start: int(start), End: int(end)}, Class: class})
		}
	}

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch kind := n.Type(); {
		case kind == KindComment:
			emit(n.StartByte(), n.EndByte(), ClassComment)
			return
		case kind == KindString || kind == "regex":
			emit(n.StartByte(), n.EndByte(), ClassString)
			return
		case kind == KindNumber:
			emit(n.StartByte(), n.EndByte(), ClassNumber)
			return
		case kind == "type_identifier" || kind == "predefined_type":
			emit(n.StartByte(), n.EndByte(), ClassType)
			return
		case constantKinds[kind] && n.IsNamed():
			emit(n.StartByte(), n.EndByte(), ClassConstant)
			return
		case kind == KindTemplateString:
			// the literal parts are strings, substitutions are code
			start := n.StartByte()
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() != KindTemplateSubst {
					continue
				}
				emit(start, child.StartByte(), ClassString)
				visit(child)
				start = child.EndByte()
			}
			emit(start, n.EndByte(), ClassString)
			return
		}

		if n.ChildCount() == 0 {
			if !n.IsNamed() && isWord(n.Type()) {
				emit(n.StartByte(), n.EndByte(), ClassKeyword)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(tree.RootNode())
	return tokens, nil
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
