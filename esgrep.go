// Package esgrep finds syntax sub-trees of JavaScript and TypeScript source
// that have the same shape as a code pattern.
//
// A pattern is a single statement or expression. Matching ignores whitespace
// and comments, and by default also type annotations and the quoting style of
// string literals. Four reserved names act as wildcards inside a pattern:
//
//	ES_ANY          matches any node
//	ES_EVERY(a, b)  matches a node matched by every argument
//	ES_SOME(a, b)   matches a node matched by at least one argument
//	ES_NOT(a)       matches a node not matched by a
//
// Usage:
//
//	matches, err := esgrep.FindStrings("fetch(ES_ANY)", src, esgrep.Options{})
//	if err != nil {
//		return err
//	}
//	for m := range matches {
//		fmt.Println(m)
//	}
package esgrep

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/esgrep/esgrep/syntax"
)

// Options selects the normalization applied when comparing nodes.
// The zero value is the default: match the expression of an expression
// statement, ignore type annotations and string quoting.
type Options struct {
	// Statement matches an expression-statement pattern as a statement
	// instead of the expression it wraps.
	Statement bool `yaml:"statement" json:"statement"`
	// TS includes type annotations in the comparison.
	TS bool `yaml:"ts" json:"ts"`
	// Raw distinguishes single quotes, double quotes and template literals.
	Raw bool `yaml:"raw" json:"raw"`
}

var (
	// ErrMalformedPattern is returned when the pattern is not exactly one
	// well-formed statement.
	ErrMalformedPattern = errors.New("malformed pattern")
	// ErrMalformedHaystack is returned when the searched source does not parse.
	ErrMalformedHaystack = errors.New("malformed haystack")
)

// malformed tags syntax errors with kind and passes other failures through.
func malformed(kind, err error) error {
	var syntaxErr *syntax.Error
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}

// Find returns the nodes of haystack that match pattern, in source order.
// Both texts are parsed as TypeScript, which also covers plain JavaScript.
func Find(pattern, haystack string, opts Options) (iter.Seq[*syntax.Node], error) {
	return FindContext(context.Background(), syntax.TypeScript, pattern, haystack, opts)
}

// FindStrings is like Find but yields the source text of each match.
func FindStrings(pattern, haystack string, opts Options) (iter.Seq[string], error) {
	return FindStringsContext(context.Background(), syntax.TypeScript, pattern, haystack, opts)
}

// FindContext is like Find with an explicit context and dialect.
func FindContext(ctx context.Context, d syntax.Dialect, pattern, haystack string, opts Options) (iter.Seq[*syntax.Node], error) {
	p, err := Compile(ctx, d, pattern, opts)
	if err != nil {
		return nil, err
	}
	return p.Find(ctx, []byte(haystack))
}

// FindStringsContext is like FindStrings with an explicit context and dialect.
func FindStringsContext(ctx context.Context, d syntax.Dialect, pattern, haystack string, opts Options) (iter.Seq[string], error) {
	matches, err := FindContext(ctx, d, pattern, haystack, opts)
	if err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		for m := range matches {
			if !yield(haystack[m.Range.Start:m.Range.End]) {
				return
			}
		}
	}, nil
}
