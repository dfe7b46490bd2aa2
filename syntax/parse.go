package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Field names produced by the converter in addition to the grammar's own.
const (
	FieldText        = "text"
	FieldChildren    = "children"
	FieldTokens      = "tokens"
	FieldValue       = "value"
	FieldRaw         = "raw"
	FieldCooked      = "cooked"
	FieldQuasis      = "quasis"
	FieldExpressions = "expressions"
)

// Node kinds the rest of the module needs to recognize.
const (
	KindProgram             = "program"
	KindExpressionStatement = "expression_statement"
	KindCallExpression      = "call_expression"
	KindString              = "string"
	KindNumber              = "number"
	KindTemplateString      = "template_string"
	KindTemplateElement     = "template_element"
	KindTemplateSubst       = "template_substitution"
	KindComment             = "comment"
	KindHashBang            = "hash_bang_line"
	KindError               = "ERROR"
)

// Dialect selects the grammar used to parse source text.
type Dialect int

const (
	// TypeScript parses TypeScript and plain JavaScript.
	TypeScript Dialect = iota
	// TSX parses TypeScript and JavaScript with JSX elements.
	TSX
)

func (d Dialect) String() string {
	switch d {
	case TypeScript:
		return "typescript"
	case TSX:
		return "tsx"
	default:
		return "unknown"
	}
}

func (d Dialect) language() *sitter.Language {
	if d == TSX {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

// DialectForPath picks the dialect for a file name by its extension.
func DialectForPath(path string) Dialect {
	if strings.HasSuffix(path, ".tsx") || strings.HasSuffix(path, ".jsx") {
		return TSX
	}
	return TypeScript
}

// Error is a syntax error reported by the parser.
type Error struct {
	Pos     Position
	Missing string // set when the parser had to insert a token
}

func (e *Error) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("%d:%d: missing %q", e.Pos.Line, e.Pos.Column, e.Missing)
	}
	return fmt.Sprintf("%d:%d: unexpected input", e.Pos.Line, e.Pos.Column)
}

// Parse parses src into a Program. When withPositions is false the resulting
// nodes carry no range or location. Any syntax error fails the whole parse.
func Parse(ctx context.Context, d Dialect, src []byte, withPositions bool) (*Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(d.language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", d, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root)
	}

	c := converter{src: src, positions: withPositions}
	prog := &Program{Source: src}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.IsExtra() || child.Type() == KindHashBang {
			continue
		}
		prog.Body = append(prog.Body, c.convert(child))
	}
	return prog, nil
}

func firstError(n *sitter.Node) error {
	if n.IsMissing() {
		return &Error{Pos: startOf(n), Missing: n.Type()}
	}
	if n.Type() == KindError {
		return &Error{Pos: startOf(n)}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstError(child)
		}
	}
	return &Error{Pos: startOf(n)}
}

func startOf(n *sitter.Node) Position {
	p := n.StartPoint()
	return Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}

func endOf(n *sitter.Node) Position {
	p := n.EndPoint()
	return Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}

// delimiters are anonymous tokens that carry no meaning once the tree is built.
var delimiters = map[string]bool{
	";": true, ",": true, "(": true, ")": true, "[": true, "]": true,
	"{": true, "}": true, ".": true, ":": true, "=": true, "=>": true,
	`"`: true, "'": true, "`": true, "${": true,
}

type converter struct {
	src       []byte
	positions bool
}

func (c *converter) convert(n *sitter.Node) *Node {
	node := &Node{Kind: n.Type()}
	if c.positions {
		node.positioned = true
		node.Range = Range{Start: int(n.StartByte()), End: int(n.EndByte())}
		node.Loc = Location{Start: startOf(n), End: endOf(n)}
	}

	switch node.Kind {
	case KindString:
		raw := n.Content(c.src)
		node.Fields = []Field{
			{Name: FieldValue, Value: String(Unquote(raw))},
			{Name: FieldRaw, Value: String(raw)},
		}
		return node
	case KindNumber:
		raw := n.Content(c.src)
		node.Fields = []Field{
			{Name: FieldValue, Value: ParseNumber(raw)},
			{Name: FieldRaw, Value: String(raw)},
		}
		return node
	case KindTemplateString:
		c.convertTemplate(n, node)
		return node
	}

	if n.ChildCount() == 0 {
		node.Fields = []Field{{Name: FieldText, Value: String(n.Content(c.src))}}
		return node
	}

	var fields fieldSet
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.IsExtra() {
			continue
		}
		name := n.FieldNameForChild(i)
		switch {
		case child.IsNamed() && name != "":
			fields.add(name, c.convert(child))
		case child.IsNamed():
			fields.addList(FieldChildren, c.convert(child))
		case name != "":
			fields.add(name, String(child.Content(c.src)))
		default:
			tok := child.Content(c.src)
			if !delimiters[tok] {
				fields.addList(FieldTokens, String(tok))
			}
		}
	}
	node.Fields = fields.build()
	return node
}

// convertTemplate splits a template literal into its literal segments and
// substitution expressions.
func (c *converter) convertTemplate(n *sitter.Node, node *Node) {
	var (
		quasis List
		exprs  = List{}
		start  = int(n.StartByte()) + 1
		end    = int(n.EndByte()) - 1
	)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != KindTemplateSubst {
			continue
		}
		quasis = append(quasis, c.templateElement(start, int(child.StartByte())))
		for j := 0; j < int(child.NamedChildCount()); j++ {
			expr := child.NamedChild(j)
			if !expr.IsExtra() {
				exprs = append(exprs, c.convert(expr))
			}
		}
		start = int(child.EndByte())
	}
	if end < start {
		end = start
	}
	quasis = append(quasis, c.templateElement(start, end))

	node.Fields = []Field{
		{Name: FieldQuasis, Value: quasis},
		{Name: FieldExpressions, Value: exprs},
		{Name: FieldRaw, Value: String(n.Content(c.src))},
	}
}

func (c *converter) templateElement(start, end int) *Node {
	segment := strings.ReplaceAll(string(c.src[start:end]), "\r\n", "\n")
	node := &Node{
		Kind: KindTemplateElement,
		Fields: []Field{
			{Name: FieldCooked, Value: String(decodeEscapes(segment))},
			{Name: FieldRaw, Value: String(segment)},
		},
	}
	if c.positions {
		node.positioned = true
		node.Range = Range{Start: start, End: end}
		node.Loc = Location{Start: c.positionAt(start), End: c.positionAt(end)}
	}
	return node
}

// positionAt computes the line/column of a byte offset. The grammar has no
// node for template segments, so their positions are derived from the source.
func (c *converter) positionAt(offset int) Position {
	pos := Position{Line: 1}
	for i := 0; i < offset; i++ {
		if c.src[i] == '\n' {
			pos.Line++
			pos.Column = 0
			continue
		}
		pos.Column++
	}
	return pos
}

// fieldSet accumulates field values in order of first appearance.
type fieldSet struct {
	names  []string
	values map[string][]Value
	lists  map[string]bool
}

func (s *fieldSet) add(name string, v Value) {
	if s.values == nil {
		s.values = make(map[string][]Value)
		s.lists = make(map[string]bool)
	}
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = append(s.values[name], v)
}

func (s *fieldSet) addList(name string, v Value) {
	s.add(name, v)
	s.lists[name] = true
}

func (s *fieldSet) build() []Field {
	fields := make([]Field, 0, len(s.names))
	for _, name := range s.names {
		vals := s.values[name]
		if len(vals) == 1 && !s.lists[name] {
			fields = append(fields, Field{Name: name, Value: vals[0]})
			continue
		}
		fields = append(fields, Field{Name: name, Value: List(vals)})
	}
	return fields
}
