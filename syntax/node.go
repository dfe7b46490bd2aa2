package syntax

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a field value of a syntax node: a *Node, a List, or a scalar
// (String or Number). An absent field is the nil Value.
type Value interface {
	isValue()
}

// List is an ordered sequence of values.
type List []Value

// String is a scalar string value.
type String string

// Number is a scalar numeric value.
type Number float64

func (*Node) isValue()  {}
func (List) isValue()   {}
func (String) isValue() {}
func (Number) isValue() {}

// Position is a line/column pair. Lines are 1-based, columns are 0-based
// byte offsets into the line.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location is the start and end position of a node.
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Range is a half-open byte range [Start, End) into the parsed source.
type Range struct {
	Start int
	End   int
}

// Field is a named value of a node.
type Field struct {
	Name  string
	Value Value
}

// Node is a syntax node: a kind tag plus an ordered set of fields.
// Range and Loc are set only for nodes parsed with positions and are
// never part of a node's fields.
type Node struct {
	Kind   string
	Fields []Field
	Range  Range
	Loc    Location

	positioned bool
}

// Get returns the value of the named field, or nil if the node has no such field.
func (n *Node) Get(name string) Value {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			return n.Fields[i].Value
		}
	}
	return nil
}

// Text returns the text field of a leaf node.
func (n *Node) Text() string {
	s, _ := n.Get(FieldText).(String)
	return string(s)
}

// Children returns the unnamed named-children of the node.
func (n *Node) Children() List {
	l, _ := n.Get(FieldChildren).(List)
	return l
}

// HasPosition reports whether the node carries a source range and location.
func (n *Node) HasPosition() bool { return n.positioned }

func (n *Node) String() string {
	if n.positioned {
		return fmt.Sprintf("%s@%d:%d", n.Kind, n.Loc.Start.Line, n.Loc.Start.Column)
	}
	return n.Kind
}

// MarshalJSON renders the node as {"type": kind, fields..., "range", "loc"}.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	kind, err := json.Marshal(n.Kind)
	if err != nil {
		return nil, err
	}
	buf.Write(kind)

	for _, f := range n.Fields {
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}

	if n.positioned {
		loc, err := json.Marshal(n.Loc)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `,"range":[%d,%d],"loc":`, n.Range.Start, n.Range.End)
		buf.Write(loc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Program is a parsed source file.
type Program struct {
	// Body holds the top-level statements in source order.
	Body   []*Node
	Source []byte
}

// Slice returns the source text covered by r.
func (p *Program) Slice(r Range) string {
	return string(p.Source[r.Start:r.End])
}
