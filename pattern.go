package esgrep

import (
	"context"
	"fmt"
	"iter"

	"github.com/esgrep/esgrep/syntax"
)

// Reserved wildcard names.
const (
	WildcardAny   = "ES_ANY"
	WildcardEvery = "ES_EVERY"
	WildcardSome  = "ES_SOME"
	WildcardNot   = "ES_NOT"
)

// identifierKinds are the node kinds that spell a name in source.
var identifierKinds = map[string]bool{
	"identifier":                            true,
	"property_identifier":                   true,
	"type_identifier":                       true,
	"shorthand_property_identifier":         true,
	"shorthand_property_identifier_pattern": true,
}

// Pattern is a compiled search pattern. It is immutable and safe for
// concurrent use.
type Pattern struct {
	root      matcher
	dialect   syntax.Dialect
	opts      Options
	prefilter *prefilter
}

// Compile parses a pattern. The pattern text must hold exactly one statement;
// unless opts.Statement is set, an expression statement is matched by the
// expression it wraps.
func Compile(ctx context.Context, d syntax.Dialect, pattern string, opts Options) (*Pattern, error) {
	prog, err := syntax.Parse(ctx, d, []byte(pattern), false)
	if err != nil {
		return nil, malformed(ErrMalformedPattern, err)
	}
	if len(prog.Body) != 1 {
		return nil, fmt.Errorf("%w: want exactly one statement, got %d", ErrMalformedPattern, len(prog.Body))
	}

	root := prog.Body[0]
	if !opts.Statement && root.Kind == syntax.KindExpressionStatement {
		if children := root.Children(); len(children) == 1 {
			if expr, ok := children[0].(*syntax.Node); ok {
				root = expr
			}
		}
	}

	c := &compiler{norm: normalizer{opts: opts}}
	p := &Pattern{
		root:    c.compileNode(root),
		dialect: d,
		opts:    opts,
	}
	p.prefilter = newPrefilter(c.literals)
	return p, nil
}

// Options returns the options the pattern was compiled with.
func (p *Pattern) Options() Options { return p.opts }

// Dialect returns the grammar the pattern was parsed with.
func (p *Pattern) Dialect() syntax.Dialect { return p.dialect }

// Matches reports whether n has the shape of the pattern.
func (p *Pattern) Matches(n *syntax.Node) bool {
	return p.root.match(n)
}

// Find parses haystack and returns its matching nodes in source order.
// A haystack that does not parse yields ErrMalformedHaystack and no matches.
func (p *Pattern) Find(ctx context.Context, haystack []byte) (iter.Seq[*syntax.Node], error) {
	prog, err := syntax.Parse(ctx, p.dialect, haystack, true)
	if err != nil {
		return nil, malformed(ErrMalformedHaystack, err)
	}
	return func(yield func(*syntax.Node) bool) {
		for n := range Walk(prog.Body) {
			if p.root.match(n) && !yield(n) {
				return
			}
		}
	}, nil
}

// MayMatch reports whether haystack contains every name the pattern needs.
// When it returns false, Find would produce no match.
func (p *Pattern) MayMatch(haystack []byte) bool {
	return p.prefilter.admits(haystack)
}

type compiler struct {
	norm normalizer

	// literals are names every match must spell; optional > 0 while
	// compiling arguments of ES_SOME and ES_NOT.
	literals []string
	optional int
}

func (c *compiler) compile(v syntax.Value) matcher {
	switch v := v.(type) {
	case *syntax.Node:
		return c.compileNode(v)
	case syntax.List:
		m := make(listMatcher, len(v))
		for i, elem := range v {
			m[i] = c.compile(elem)
		}
		return m
	default:
		return scalarMatcher{value: v}
	}
}

func (c *compiler) compileNode(n *syntax.Node) matcher {
	n = c.norm.collapse(n)
	if w := c.wildcard(n); w != nil {
		return w
	}

	m := &nodeMatcher{kind: n.Kind, norm: c.norm}
	for _, f := range n.Fields {
		if c.norm.excluded(f) {
			continue
		}
		m.fields = append(m.fields, fieldMatcher{name: f.Name, m: c.compile(f.Value)})
	}

	if text := n.Text(); text != "" && c.optional == 0 {
		c.literals = append(c.literals, text)
	}
	return m
}

// wildcard returns the matcher for a wildcard node, or nil for any other node.
func (c *compiler) wildcard(n *syntax.Node) matcher {
	if m := c.wildcardOf(n); m != nil {
		return wildcardMatcher{inner: m}
	}
	return nil
}

func (c *compiler) wildcardOf(n *syntax.Node) matcher {
	if identifierKinds[n.Kind] && n.Text() == WildcardAny {
		return anyMatcher{}
	}
	if n.Kind != syntax.KindCallExpression {
		return nil
	}
	callee, ok := n.Get("function").(*syntax.Node)
	if !ok || callee.Kind != "identifier" {
		return nil
	}

	var args syntax.List
	if list, ok := n.Get("arguments").(*syntax.Node); ok {
		args = list.Children()
	}

	switch callee.Text() {
	case WildcardEvery:
		return everyMatcher(c.compileArgs(args))
	case WildcardSome:
		c.optional++
		defer func() { c.optional-- }()
		return someMatcher(c.compileArgs(args))
	case WildcardNot:
		c.optional++
		defer func() { c.optional-- }()
		if len(args) == 0 {
			return notMatcher{inner: absentMatcher{}}
		}
		return notMatcher{inner: c.compile(args[0])}
	}
	return nil
}

func (c *compiler) compileArgs(args syntax.List) []matcher {
	ms := make([]matcher, len(args))
	for i, arg := range args {
		ms[i] = c.compile(arg)
	}
	return ms
}
