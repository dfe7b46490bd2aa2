package esgrep

import (
	"iter"

	"github.com/esgrep/esgrep/syntax"
)

// Walk yields every node reachable from nodes in pre-order: a node comes
// before the nodes of its fields, and fields are visited in order. Lists are
// traversed but not yielded; scalars end the descent.
func Walk(nodes []*syntax.Node) iter.Seq[*syntax.Node] {
	return func(yield func(*syntax.Node) bool) {
		for _, n := range nodes {
			if !walk(n, yield) {
				return
			}
		}
	}
}

func walk(v syntax.Value, yield func(*syntax.Node) bool) bool {
	switch v := v.(type) {
	case *syntax.Node:
		if !yield(v) {
			return false
		}
		for _, f := range v.Fields {
			if !walk(f.Value, yield) {
				return false
			}
		}
	case syntax.List:
		for _, elem := range v {
			if !walk(elem, yield) {
				return false
			}
		}
	}
	return true
}
