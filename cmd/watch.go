package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/esgrep/esgrep/formatter"
	"github.com/esgrep/esgrep/grep"
)

// watchCmd: esgrep watch PATTERN DIR...
var watchCmd = &cobra.Command{
	Use:   "watch PATTERN DIR...",
	Short: "Search files again each time they are written",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			logger.Error("Invalid configuration", zap.String("path", cfgFile), zap.Error(err))
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		s, err := grep.New(ctx, logger, args[0], config)
		if err != nil {
			logger.Error("Invalid pattern", zap.String("pattern", args[0]), zap.Error(err))
			return err
		}
		f, err := formatter.New(config.Format)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		w, err := s.NewWatcher(func(res grep.FileResult) error {
			if res.Err != nil {
				logger.Error("Error searching file", zap.String("path", res.Path), zap.Error(res.Err))
				return nil
			}
			if len(res.Matches) > 0 {
				found = true
			}
			return f.Format(out, res)
		})
		if err != nil {
			return err
		}
		for _, dir := range args[1:] {
			if err := w.Add(dir); err != nil {
				logger.Error("Error watching directory", zap.String("path", dir), zap.Error(err))
				return err
			}
		}

		logger.Info("Watching for changes", zap.Strings("dirs", args[1:]))
		return w.Run(ctx)
	},
}
