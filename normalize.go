package esgrep

import "github.com/esgrep/esgrep/syntax"

var typeAnnotationKinds = map[string]bool{
	"type_annotation":           true,
	"opting_type_annotation":    true,
	"omitting_type_annotation":  true,
	"adding_type_annotation":    true,
	"asserts_annotation":        true,
	"type_predicate_annotation": true,
}

// normalizer decides which parts of a node take part in a comparison.
// Positions are not fields, so they never do.
type normalizer struct {
	opts Options
}

// collapse presents a template literal without substitutions as the plain
// string literal it is equivalent to, unless quoting is significant.
func (z normalizer) collapse(n *syntax.Node) *syntax.Node {
	if z.opts.Raw || n.Kind != syntax.KindTemplateString {
		return n
	}
	quasis, _ := n.Get(syntax.FieldQuasis).(syntax.List)
	if len(quasis) != 1 {
		return n
	}
	elem, ok := quasis[0].(*syntax.Node)
	if !ok {
		return n
	}
	return &syntax.Node{
		Kind:   syntax.KindString,
		Fields: []syntax.Field{{Name: syntax.FieldValue, Value: elem.Get(syntax.FieldCooked)}},
		Range:  n.Range,
		Loc:    n.Loc,
	}
}

// excluded reports whether f is left out of the comparison.
func (z normalizer) excluded(f syntax.Field) bool {
	if f.Name == syntax.FieldRaw && !z.opts.Raw {
		return true
	}
	if !z.opts.TS {
		if n, ok := f.Value.(*syntax.Node); ok && typeAnnotationKinds[n.Kind] {
			return true
		}
	}
	return false
}

// get returns the value of a compared field of n, or nil if the field is
// absent or excluded.
func (z normalizer) get(n *syntax.Node, name string) syntax.Value {
	for _, f := range n.Fields {
		if f.Name == name {
			if z.excluded(f) {
				return nil
			}
			return f.Value
		}
	}
	return nil
}
