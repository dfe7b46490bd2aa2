package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/esgrep/esgrep/formatter"
	"github.com/esgrep/esgrep/grep"
)

const defaultTimeout = 5 * time.Minute

// Exit statuses, as grep uses them.
const (
	ExitMatch   = 0
	ExitNoMatch = 1
	ExitError   = 2
)

var (
	cfgFile string
	timeout time.Duration
	verbose bool

	flagStatement   bool
	flagTS          bool
	flagRaw         bool
	flagFormat      string
	flagExclude     string
	flagJobs        int
	flagProgress    bool
	flagNoPrefilter bool

	found  bool
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "esgrep [flags] PATTERN [FILE...]",
	Short: "esgrep - syntactically-aware grep for JavaScript and TypeScript",
	Long: `Search JavaScript and TypeScript sources for code with the shape of PATTERN.

PATTERN is one statement or expression. Whitespace, comments, type annotations
(unless --ts) and the quoting of strings (unless --raw) are ignored. Inside the
pattern, ES_ANY matches any node, ES_EVERY(a, ...) nodes matched by all its
arguments, ES_SOME(a, ...) nodes matched by one of them and ES_NOT(a) nodes not
matched by a.

Directories are searched recursively. Without FILE, standard input is searched.`,
	Args:              cobra.MinimumNArgs(1),
	TraverseChildren:  true, // Prioritize subcommands
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			logger.Error("Invalid configuration", zap.String("path", cfgFile), zap.Error(err))
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		f, err := formatter.New(config.Format)
		if err != nil {
			return err
		}

		var progress io.Writer
		if flagProgress {
			progress = cmd.ErrOrStderr()
		}
		found, err = search(ctx, logger, config, f, args[0], args[1:], cmd.InOrStdin(), cmd.OutOrStdout(), progress)
		return err
	},
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return ExitError
	}
	if !found {
		return ExitNoMatch
	}
	return ExitMatch
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", grep.DefaultConfigFile, "Configuration file")
	pf.DurationVar(&timeout, "timeout", defaultTimeout, "Give up after this long")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log debug information")
	pf.BoolVarP(&flagStatement, "statement", "s", false, "If the pattern is an expression statement, look up the statement itself, not the expression")
	pf.BoolVarP(&flagTS, "ts", "t", false, "Include type annotations in the comparison")
	pf.BoolVarP(&flagRaw, "raw", "r", false, "Differentiate between strings in single quotes, double quotes and template literals")
	pf.StringVarP(&flagFormat, "format", "f", formatter.Pretty, "Output format, one of pretty, oneline, jsonl, count")
	pf.StringVar(&flagExclude, "exclude", "", "Skip files and directories whose path matches this regular expression")
	pf.IntVarP(&flagJobs, "jobs", "j", 0, "Number of files searched in parallel (default: number of CPUs)")
	pf.BoolVar(&flagNoPrefilter, "no-prefilter", false, "Parse every file, even those lacking the names in the pattern")
	rootCmd.Flags().BoolVar(&flagProgress, "progress", false, "Show a progress bar on stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(watchCmd)
}

func setupLogger(cmd *cobra.Command, args []string) error {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	logger = l
	return nil
}

// loadConfig reads the configuration file and applies the flags set on the
// command line on top of it. The default file may be absent.
func loadConfig(cmd *cobra.Command) (grep.Config, error) {
	config, err := grep.LoadConfig(cfgFile, !cmd.Flags().Changed("config"))
	if err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Changed("statement") {
		config.Statement = flagStatement
	}
	if flags.Changed("ts") {
		config.TS = flagTS
	}
	if flags.Changed("raw") {
		config.Raw = flagRaw
	}
	if flags.Changed("format") {
		config.Format = flagFormat
	}
	if flags.Changed("exclude") {
		config.Exclude = flagExclude
	}
	if flags.Changed("jobs") {
		config.Jobs = flagJobs
	}
	if flagNoPrefilter {
		config.Prefilter = false
	}
	return config, config.Validate()
}

// search runs pattern over paths, or over stdin when there are none, and
// writes the results to stdout with f. It reports whether anything matched.
// Inputs that could not be searched make it fail once all others are written.
func search(
	ctx context.Context,
	logger *zap.Logger,
	config grep.Config,
	f formatter.ResultFormatter,
	pattern string,
	paths []string,
	stdin io.Reader,
	stdout io.Writer,
	progress io.Writer,
) (bool, error) {
	s, err := grep.New(ctx, logger, pattern, config)
	if err != nil {
		logger.Error("Invalid pattern", zap.String("pattern", pattern), zap.Error(err))
		return false, err
	}

	var (
		matched bool
		failed  int
	)
	emit := func(res grep.FileResult) error {
		if res.Err != nil {
			failed++
			return nil
		}
		if len(res.Matches) > 0 {
			matched = true
		}
		return f.Format(stdout, res)
	}

	if len(paths) == 0 {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return false, fmt.Errorf("error reading stdin: %w", err)
		}
		res := s.SearchSource(ctx, grep.StdinPath, src)
		if res.Err != nil {
			logger.Error("Error searching file", zap.String("path", grep.StdinPath), zap.Error(res.Err))
		}
		if err := emit(res); err != nil {
			return matched, err
		}
	} else {
		files, err := s.Files(paths)
		if err != nil {
			logger.Error("Error collecting files", zap.Error(err))
			return false, err
		}
		if progress != nil {
			s.ShowProgress(progress)
		}
		if err := s.Run(ctx, files, emit); err != nil {
			return matched, err
		}
	}

	if failed > 0 {
		return matched, fmt.Errorf("%d of the inputs could not be searched", failed)
	}
	return matched, nil
}
