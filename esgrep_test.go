package esgrep

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esgrep/esgrep/syntax"
)

var statements = []string{
	`import foo from './bar';`,
	`const x: number = 10;`,
	`const y: string = "hello";`,
	`const z = () => { };`,
	`throw new Error('oooh');`,
}

func findStrings(t *testing.T, pattern, haystack string, opts Options) []string {
	t.Helper()
	seq, err := FindStrings(pattern, haystack, opts)
	require.NoError(t, err)
	return slices.Collect(seq)
}

func TestFindExactMatch(t *testing.T) {
	t.Parallel()
	haystack := strings.Join(statements, "\n")
	for _, stmt := range statements {
		assert.Equal(t, []string{stmt}, findStrings(t, stmt, haystack, Options{}), stmt)
	}
}

func TestFindIgnoresWhitespaceAndComments(t *testing.T) {
	t.Parallel()
	haystack := strings.Join(statements, "\n")
	for _, stmt := range statements {
		for _, sep := range []string{" ", "\t", "   ", "/* */"} {
			pattern := strings.ReplaceAll(stmt, " ", sep)
			assert.Equal(t, []string{stmt}, findStrings(t, pattern, haystack, Options{}), pattern)
		}
	}
}

func TestFindInsideBlocks(t *testing.T) {
	t.Parallel()
	wrappers := []func(string) string{
		func(s string) string { return "{" + s + "}" },
		func(s string) string { return "() => {" + s + "}" },
		func(s string) string { return "const fn = () => {" + s + "}" },
		func(s string) string { return "class A { b() { something; " + s + "; const somethingElse = 20; }}" },
	}
	// import declarations are only valid at the top level
	for _, stmt := range statements[1:] {
		for _, wrap := range wrappers {
			haystack := wrap(stmt)
			assert.Equal(t, []string{stmt}, findStrings(t, stmt, haystack, Options{}), haystack)
		}
	}
}

func TestFindStatementOption(t *testing.T) {
	t.Parallel()
	haystack := "const x = 10"

	assert.Equal(t, []string{"10"}, findStrings(t, "10", haystack, Options{}))
	assert.Empty(t, findStrings(t, "10", haystack, Options{Statement: true}))
	assert.Equal(t, []string{haystack}, findStrings(t, haystack, haystack, Options{Statement: true}))

	assert.Equal(t, []string{"foo()"}, findStrings(t, "foo();", "foo();", Options{}))
	assert.Equal(t, []string{"foo();"}, findStrings(t, "foo();", "foo();", Options{Statement: true}))
}

func TestFindTSOption(t *testing.T) {
	t.Parallel()
	typed := "const x: number = 10;"
	untyped := "const x = 10;"

	tests := []struct {
		name     string
		pattern  string
		haystack string
	}{
		{"typed pattern", typed, untyped},
		{"typed haystack", untyped, typed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, []string{tt.haystack}, findStrings(t, tt.pattern, tt.haystack, Options{}))
			assert.Empty(t, findStrings(t, tt.pattern, tt.haystack, Options{TS: true}))
		})
	}

	assert.Equal(t, []string{typed}, findStrings(t, typed, typed, Options{TS: true}))
	assert.Empty(t, findStrings(t, "const x: string = 10;", typed, Options{TS: true}))
}

func TestFindTSOptionReturnType(t *testing.T) {
	t.Parallel()
	haystack := "function f(a: number): string { return a; }"
	pattern := "function f(a) { return a; }"

	assert.Equal(t, []string{haystack}, findStrings(t, pattern, haystack, Options{}))
	assert.Empty(t, findStrings(t, pattern, haystack, Options{TS: true}))
}

func TestFindRawOption(t *testing.T) {
	t.Parallel()
	spellings := []string{
		`"foo\"bar'baz"`,
		`'foo"bar\'baz'`,
		"`foo\"bar'baz`",
	}
	for _, pattern := range spellings {
		for _, haystack := range spellings {
			assert.Equal(t, []string{haystack}, findStrings(t, pattern, haystack, Options{}),
				"%s vs %s", pattern, haystack)

			got := findStrings(t, pattern, haystack, Options{Raw: true})
			if pattern == haystack {
				assert.Equal(t, []string{haystack}, got)
			} else {
				assert.Empty(t, got, "%s vs %s", pattern, haystack)
			}
		}
	}
}

func TestFindRawNumbers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"0x10"}, findStrings(t, "16", "f(0x10)", Options{}))
	assert.Empty(t, findStrings(t, "16", "f(0x10)", Options{Raw: true}))
}

func TestFindTemplateWithSubstitutions(t *testing.T) {
	t.Parallel()
	haystack := "log(`a ${b} c`); log(`a ${d} c`); log('a b c')"
	assert.Equal(t, []string{"`a ${b} c`", "`a ${d} c`"}, findStrings(t, "`a ${ES_ANY} c`", haystack, Options{}))
	assert.Equal(t, []string{"`a ${b} c`"}, findStrings(t, "`a ${b} c`", haystack, Options{}))
}

func TestFindAny(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"fetch('url')"}, findStrings(t, "fetch(ES_ANY)", "fetch('url')", Options{}))
	assert.Equal(t,
		[]string{"const x = 10;", "const x = 20;"},
		findStrings(t, "const x = ES_ANY", "const x = 10; const x = 20;", Options{}))

	// an argument count mismatch is a shape mismatch
	assert.Empty(t, findStrings(t, "fetch(ES_ANY)", "fetch(); fetch(a, b)", Options{}))

	// ES_ANY in property position
	assert.Equal(t, []string{"a.b", "c.d"}, findStrings(t, "ES_ANY.ES_ANY", "a.b; c.d", Options{}))
}

func TestFindAnyMatchesEveryNode(t *testing.T) {
	t.Parallel()
	haystack := "const z = () => { return [1, 'a', `b`, x.y, new Foo()]; };"
	prog, err := syntax.Parse(context.Background(), syntax.TypeScript, []byte(haystack), true)
	require.NoError(t, err)
	total := 0
	for range Walk(prog.Body) {
		total++
	}

	count := func(pattern string) int {
		seq, err := Find(pattern, haystack, Options{})
		require.NoError(t, err)
		n := 0
		for range seq {
			n++
		}
		return n
	}

	assert.Equal(t, total, count("ES_ANY"))
	assert.Equal(t, total, count("ES_EVERY()"))
	assert.Equal(t, total, count("ES_NOT()"))
	assert.Zero(t, count("ES_SOME()"))
}

func TestFindCombinators(t *testing.T) {
	t.Parallel()
	haystack := "foo(1); foo(2); bar(1); baz(3);"

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"every", "ES_EVERY(foo(ES_ANY), ES_ANY(1))", []string{"foo(1)"}},
		{"every single", "ES_EVERY(bar(1))", []string{"bar(1)"}},
		{"some", "ES_SOME(foo(2), bar(ES_ANY))", []string{"foo(2)", "bar(1)"}},
		{"not", "foo(ES_NOT(1))", []string{"foo(2)"}},
		{"not ignores extra arguments", "foo(ES_NOT(1, 2))", []string{"foo(2)"}},
		{"nested", "ES_SOME(foo(ES_NOT(1)), baz(ES_ANY))", []string{"foo(2)", "baz(3)"}},
		{"callee", "ES_NOT(foo)(ES_ANY)", []string{"bar(1)", "baz(3)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, findStrings(t, tt.pattern, haystack, Options{}))
		})
	}
}

func TestFindWildcardsNeedANode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pattern  string
		haystack string
	}{
		{"let x = ES_ANY", "let x;"},
		{"let x = ES_NOT(10)", "let x;"},
		{"let x = ES_EVERY()", "let x;"},
		{"let x = ES_NOT()", "let x;"},
		{"function f(a = ES_ANY) {}", "function f(a) {}"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			assert.Empty(t, findStrings(t, tt.pattern, tt.haystack, Options{}))
		})
	}

	assert.Equal(t, []string{"let x = 1;"}, findStrings(t, "let x = ES_ANY", "let x; let x = 1;", Options{}))
	assert.Equal(t, []string{"function f(a = 2) {}"},
		findStrings(t, "function f(a = ES_ANY) {}", "function f(a) {} function f(a = 2) {}", Options{}))
}

func TestFindWildcardNamesInHaystackAreOrdinary(t *testing.T) {
	t.Parallel()
	assert.Empty(t, findStrings(t, "foo(bar)", "foo(ES_ANY)", Options{}))
	assert.Equal(t, []string{"foo(ES_SOME())"}, findStrings(t, "foo(ES_ANY)", "foo(ES_SOME())", Options{}))
}

func TestFindLocations(t *testing.T) {
	t.Parallel()
	haystack := "const a = 1;\nfunction f() {\n  return fetch( \"/users\" );\n}"
	seq, err := Find("fetch(ES_ANY)", haystack, Options{})
	require.NoError(t, err)
	matches := slices.Collect(seq)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "call_expression", m.Kind)
	assert.Equal(t, syntax.Position{Line: 3, Column: 9}, m.Loc.Start)
	assert.Equal(t, syntax.Position{Line: 3, Column: 26}, m.Loc.End)
	assert.Equal(t, `fetch( "/users" )`, haystack[m.Range.Start:m.Range.End])
}

func TestFindStopsEarly(t *testing.T) {
	t.Parallel()
	seq, err := FindStrings("x", "x; x; x;", Options{})
	require.NoError(t, err)
	var got []string
	for s := range seq {
		got = append(got, s)
		break
	}
	assert.Equal(t, []string{"x"}, got)
}

func TestFindMalformedPattern(t *testing.T) {
	t.Parallel()
	for _, pattern := range []string{"", "// only a comment", "a; b", "const x = 1; const y = 2;", "const x = ;", "foo("} {
		_, err := Find(pattern, "a; b", Options{})
		assert.ErrorIs(t, err, ErrMalformedPattern, pattern)
		assert.NotErrorIs(t, err, ErrMalformedHaystack, pattern)
	}

	_, err := Find("const x = ;", "x", Options{})
	var syntaxErr *syntax.Error
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 1, syntaxErr.Pos.Line)
}

func TestFindMalformedHaystack(t *testing.T) {
	t.Parallel()
	seq, err := Find("x", "const x = ;", Options{})
	assert.ErrorIs(t, err, ErrMalformedHaystack)
	assert.Nil(t, seq)

	_, err = FindStrings("x", "}", Options{})
	assert.ErrorIs(t, err, ErrMalformedHaystack)
}

func TestFindCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindContext(ctx, syntax.TypeScript, "x", "x", Options{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedPattern) || errors.Is(err, ErrMalformedHaystack))
}

func TestFindTSX(t *testing.T) {
	t.Parallel()
	seq, err := FindStringsContext(context.Background(), syntax.TSX,
		"<Button onClick={ES_ANY} />", `const a = <div><Button onClick={go} /></div>;`, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"<Button onClick={go} />"}, slices.Collect(seq))
}
