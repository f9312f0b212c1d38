package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"twscraper/pkg/config"
	"twscraper/pkg/errors"
	"twscraper/pkg/logger"
	"twscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	verbose     bool
	noColor     bool
	profileName string
	metricsFile string
)

// rootCmd scrapes when given an account and no subcommand
var rootCmd = &cobra.Command{
	Use:   "twscraper [flags] <account>",
	Short: "Archive a Twitter account's timeline into a local database",
	Long: `twscraper pages backward through an account's timeline and saves every
original tweet into a SQLite file (or a PostgreSQL database).

Re-running is safe: tweets already stored are skipped. With --resume the run
starts below the oldest tweet already saved for the account, so an interrupted
archive can be continued.

Credentials come from a stored profile ('twscraper auth login'), environment
variables or the configuration file.`,
	Example: `  # Archive a timeline into ./tweets.db
  twscraper jack

  # Print one tweet without saving anything
  twscraper jack --dry-run

  # Continue an interrupted archive in another database
  twscraper jack --resume --db ~/archives/jack.db`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColorEnabled(false)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runScrape(cmd, args)
	},
}

// Execute runs the root command and exits non-zero on any error
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		ui.PrintError("Error", describeError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.twscraper.yaml or ~/.config/twscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress details to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "use a specific stored credential profile")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write run metrics to this Prometheus textfile")

	rootCmd.SetVersionTemplate(`twscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the changed command line flags over files, env and defaults
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]interface{})
	if db, ok := changedValue(cmd.Flags(), "db"); ok {
		flags["db"] = db
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	} else if verbose {
		flags["log-level"] = "info"
	}
	if metricsFile != "" {
		flags["metrics-file"] = metricsFile
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, errors.NewConfigError("load config", err)
	}
	return cfg, nil
}

// changedValue returns a flag's value when it was set on the command line
func changedValue(fs *pflag.FlagSet, name string) (string, bool) {
	f := fs.Lookup(name)
	if f == nil || !f.Changed {
		return "", false
	}
	return f.Value.String(), true
}

// setupLogger installs the global logger for cfg
func setupLogger(cfg *config.Config) (logger.Logger, error) {
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, errors.NewConfigError("initialize logger", err)
	}
	return logger.GetLogger(), nil
}

// describeError adds a short hint for the error classes an operator can act on
func describeError(err error) string {
	switch {
	case errors.IsAuth(err):
		return err.Error() + " (check your credentials or run 'twscraper auth login')"
	case errors.IsStorage(err):
		return err.Error() + " (check the --db location)"
	default:
		return err.Error()
	}
}
