package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"research-chatter/internal/config"
	"research-chatter/internal/logging"
	"research-chatter/internal/research"
)

var (
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "research",
	Short: "E-learning AI acceptance research assistant",
	Long: `research collects faculty conversations with a rule-based e-learning assistant
and technology acceptance questionnaires, shows dashboard statistics and
exports the data set for analysis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: .env file not found: %v\n", err)
		}

		var err error
		cfg, err = config.New()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// openApp builds the research app for a command; the returned func releases the store.
func openApp(ctx context.Context) (*research.App, func(), error) {
	app, closeFn, err := research.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return app, func() {
		if err := closeFn(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(surveyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
