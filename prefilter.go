package esgrep

import (
	"bytes"
	"slices"

	"github.com/coregx/ahocorasick"
)

// prefilter rejects haystacks that lack one of the names every match of a
// pattern spells. A nil prefilter admits everything.
type prefilter struct {
	literals [][]byte
	auto     *ahocorasick.Automaton
}

func newPrefilter(names []string) *prefilter {
	slices.Sort(names)
	names = slices.Compact(names)
	if len(names) == 0 {
		return nil
	}

	builder := ahocorasick.NewBuilder()
	literals := make([][]byte, len(names))
	for i, name := range names {
		literals[i] = []byte(name)
		builder.AddPattern(literals[i])
	}
	auto, err := builder.Build()
	if err != nil {
		// without an automaton every haystack has to be parsed
		return nil
	}
	return &prefilter{literals: literals, auto: auto}
}

func (p *prefilter) admits(haystack []byte) bool {
	if p == nil {
		return true
	}

	seen := make([]bool, len(p.literals))
	missing := len(p.literals)
	for at := 0; at < len(haystack); {
		m := p.auto.Find(haystack, at)
		if m == nil {
			return false
		}
		// the automaton reports one literal per position; overlapping
		// literals starting at the same offset are checked directly
		rest := haystack[m.Start:]
		for i, lit := range p.literals {
			if !seen[i] && bytes.HasPrefix(rest, lit) {
				seen[i] = true
				missing--
			}
		}
		if missing == 0 {
			return true
		}
		at = m.Start + 1
	}
	return false
}
