package esgrep

import "github.com/esgrep/esgrep/syntax"

// matcher reports whether a haystack value has the shape of the pattern
// value it was compiled from. The target is nil when the haystack has no
// value where the pattern has one.
type matcher interface {
	match(target syntax.Value) bool
}

var (
	_ matcher = scalarMatcher{}
	_ matcher = listMatcher{}
	_ matcher = (*nodeMatcher)(nil)
	_ matcher = anyMatcher{}
	_ matcher = everyMatcher{}
	_ matcher = someMatcher{}
	_ matcher = notMatcher{}
	_ matcher = absentMatcher{}
	_ matcher = wildcardMatcher{}
)

// scalarMatcher compares type and value.
type scalarMatcher struct {
	value syntax.Value
}

func (m scalarMatcher) match(target syntax.Value) bool {
	// both sides are scalars or the dynamic types differ, so == cannot panic
	return m.value == target
}

// listMatcher requires a list of the same length, matched position by position.
type listMatcher []matcher

func (m listMatcher) match(target syntax.Value) bool {
	list, ok := target.(syntax.List)
	if !ok || len(list) != len(m) {
		return false
	}
	for i, elem := range m {
		if !elem.match(list[i]) {
			return false
		}
	}
	return true
}

type fieldMatcher struct {
	name string
	m    matcher
}

// nodeMatcher compares a node field by field. Every compared field of the
// target must be present in the pattern and the other way around.
type nodeMatcher struct {
	kind   string
	fields []fieldMatcher
	norm   normalizer
}

func (m *nodeMatcher) match(target syntax.Value) bool {
	n, ok := target.(*syntax.Node)
	if !ok || n == nil {
		return false
	}
	n = m.norm.collapse(n)
	if n.Kind != m.kind {
		return false
	}

	for _, f := range m.fields {
		if !f.m.match(m.norm.get(n, f.name)) {
			return false
		}
	}
	for _, f := range n.Fields {
		if !m.norm.excluded(f) && !m.has(f.Name) {
			return false
		}
	}
	return true
}

func (m *nodeMatcher) has(name string) bool {
	for _, f := range m.fields {
		if f.name == name {
			return true
		}
	}
	return false
}

// wildcardMatcher applies a wildcard to nodes only. An absent value, a list
// or a scalar never matches a wildcard, whatever the wildcard.
type wildcardMatcher struct {
	inner matcher
}

func (m wildcardMatcher) match(target syntax.Value) bool {
	if n, ok := target.(*syntax.Node); !ok || n == nil {
		return false
	}
	return m.inner.match(target)
}

// anyMatcher is ES_ANY.
type anyMatcher struct{}

func (anyMatcher) match(syntax.Value) bool { return true }

// everyMatcher is ES_EVERY(...).
type everyMatcher []matcher

func (m everyMatcher) match(target syntax.Value) bool {
	for _, arg := range m {
		if !arg.match(target) {
			return false
		}
	}
	return true
}

// someMatcher is ES_SOME(...).
type someMatcher []matcher

func (m someMatcher) match(target syntax.Value) bool {
	for _, arg := range m {
		if arg.match(target) {
			return true
		}
	}
	return false
}

// notMatcher is ES_NOT(...).
type notMatcher struct {
	inner matcher
}

func (m notMatcher) match(target syntax.Value) bool {
	return !m.inner.match(target)
}

// absentMatcher stands for a missing pattern value, as in ES_NOT().
type absentMatcher struct{}

func (absentMatcher) match(target syntax.Value) bool { return target == nil }
