// Package grep searches files for a pattern and hands the results, file by
// file, to a caller-supplied sink.
package grep

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/coregx/coregex"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/esgrep/esgrep"
	"github.com/esgrep/esgrep/scanner"
	"github.com/esgrep/esgrep/syntax"
)

// StdinPath labels results read from standard input.
const StdinPath = "stdin"

// FileResult is the outcome of searching one input.
type FileResult struct {
	Path    string
	Source  []byte
	Dialect syntax.Dialect
	Matches []*syntax.Node
	// Skipped is set when the prefilter ruled the file out without parsing it.
	Skipped bool
	Err     error
}

// Searcher runs one pattern over many inputs.
type Searcher struct {
	logger   *zap.Logger
	config   Config
	exclude  *coregex.Regex
	progress io.Writer
	patterns [2]compiled
}

type compiled struct {
	pattern *esgrep.Pattern
	err     error
}

// New compiles pattern for both grammars. It fails only when neither accepts
// the pattern, so a pattern using JSX, or a type assertion that JSX forbids,
// still searches the files of the grammar it is valid in.
func New(ctx context.Context, logger *zap.Logger, pattern string, config Config) (*Searcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	exclude, err := config.excludeRegex()
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		logger:  logger,
		config:  config,
		exclude: exclude,
	}
	for _, d := range []syntax.Dialect{syntax.TypeScript, syntax.TSX} {
		p, err := esgrep.Compile(ctx, d, pattern, config.Options)
		s.patterns[d] = compiled{pattern: p, err: err}
	}
	if ts := s.patterns[syntax.TypeScript]; ts.err != nil && s.patterns[syntax.TSX].err != nil {
		return nil, ts.err
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// ShowProgress draws a progress bar on w while Run is searching.
func (s *Searcher) ShowProgress(w io.Writer) {
	s.progress = w
}

func (c Config) excludeRegex() (*coregex.Regex, error) {
	if c.Exclude == "" {
		return nil, nil
	}
	re, err := coregex.Compile(c.Exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern %q: %w", c.Exclude, err)
	}
	return re, nil
}

func (s *Searcher) scanner(root string) *scanner.Scanner {
	return scanner.New(root, s.config.Extensions...).Exclude(s.exclude)
}

// Files expands paths into the files to search. Directories are walked;
// files named explicitly are kept whatever their extension.
func (s *Searcher) Files(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		found, err := s.scanner(path).Scan()
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		for _, f := range found {
			files = append(files, f.Path)
		}
	}
	return files, nil
}

func (s *Searcher) pattern(d syntax.Dialect) (*esgrep.Pattern, error) {
	c := s.patterns[d]
	if c.err != nil {
		return nil, fmt.Errorf("pattern does not parse as %s: %w", d, c.err)
	}
	return c.pattern, nil
}

// SearchSource searches src, choosing the grammar from the extension of path.
func (s *Searcher) SearchSource(ctx context.Context, path string, src []byte) FileResult {
	res := FileResult{Path: path, Source: src, Dialect: syntax.DialectForPath(path)}

	p, err := s.pattern(res.Dialect)
	if err != nil {
		res.Err = err
		return res
	}

	if s.config.Prefilter && !p.MayMatch(src) {
		s.logger.Debug("Skipped by prefilter", zap.String("path", path))
		res.Skipped = true
		return res
	}

	matches, err := p.Find(ctx, src)
	if err != nil {
		res.Err = err
		return res
	}
	for m := range matches {
		res.Matches = append(res.Matches, m)
	}
	s.logger.Debug("Searched file", zap.String("path", path), zap.Int("matches", len(res.Matches)))
	return res
}

// SearchFile reads and searches the file at path.
func (s *Searcher) SearchFile(ctx context.Context, path string) FileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Dialect: syntax.DialectForPath(path), Err: err}
	}
	return s.SearchSource(ctx, path, src)
}

// Run searches files with up to Config.Jobs workers and calls emit with each
// result in the order of files. A failing file is logged and reported in its
// result; Run itself stops only when ctx is done or emit returns an error.
func (s *Searcher) Run(ctx context.Context, files []string, emit func(FileResult) error) error {
	ctx, cancel := context.WithCancel(ctx)

	jobs := s.config.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	bar := s.progressBar(len(files))

	results := make([]chan FileResult, len(files))
	for i := range results {
		results[i] = make(chan FileResult, 1)
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	produced := make(chan struct{})
	go func() {
		defer close(produced)
		for i, path := range files {
			if ctx.Err() != nil {
				return
			}
			g.Go(func() error {
				res := s.SearchFile(ctx, path)
				if res.Err != nil && ctx.Err() == nil {
					s.logger.Error("Error searching file", zap.String("path", path), zap.Error(res.Err))
				}
				results[i] <- res
				if bar != nil {
					_ = bar.Add(1)
				}
				return nil
			})
		}
	}()
	defer func() {
		cancel()
		<-produced
		_ = g.Wait()
		if bar != nil {
			_ = bar.Finish()
		}
	}()

	for i := range files {
		var res FileResult
		select {
		case res = <-results[i]:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(res); err != nil {
			return err
		}
	}
	return nil
}

func (s *Searcher) progressBar(total int) *progressbar.ProgressBar {
	if s.progress == nil || total < 2 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.progress),
		progressbar.OptionSetDescription("searching"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
