package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"twscraper/pkg/auth"
	"twscraper/pkg/config"
	"twscraper/pkg/errors"
	"twscraper/pkg/ingest"
	"twscraper/pkg/logger"
	"twscraper/pkg/metrics"
	"twscraper/pkg/ratelimit"
	"twscraper/pkg/twitter"
	"twscraper/pkg/ui"
)

var (
	// Scrape command flags
	dryRun   bool
	resume   bool
	storeLoc string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <account>",
	Short: "Archive an account's tweets",
	Long: `Fetch an account's timeline newest first and save each original tweet
(reposts are skipped) into the tweets table of the store.

A dot is printed for every saved tweet. The run ends with the number of tweets
written. Anything saved before an error stays in the store and can be resumed
with --resume.`,
	Example: `  # Archive into the default ./tweets.db
  twscraper scrape jack

  # Check credentials and output format without writing
  twscraper scrape jack -d

  # Continue below the oldest stored tweet using a named profile
  twscraper scrape jack -r --profile work`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "load one tweet, print it and save nothing")
	scrapeCmd.Flags().BoolVarP(&resume, "resume", "r", false, "start below the oldest tweet already stored for the account")
	scrapeCmd.Flags().StringVar(&storeLoc, "db", config.DefaultStorePath, "SQLite file or postgres:// URL to save tweets to")

	// Same flags on the root command so 'twscraper <account>' works
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "load one tweet, print it and save nothing")
	rootCmd.Flags().BoolVarP(&resume, "resume", "r", false, "start below the oldest tweet already stored for the account")
	rootCmd.Flags().StringVar(&storeLoc, "db", config.DefaultStorePath, "SQLite file or postgres:// URL to save tweets to")
}

func runScrape(cmd *cobra.Command, args []string) error {
	account := twitter.SanitizeScreenName(args[0])
	if !twitter.IsValidScreenName(account) {
		return errors.NewConfigError("parse arguments", fmt.Errorf("invalid account name %q", args[0]))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"version": version,
		"account": account,
		"dry_run": dryRun,
		"resume":  resume,
	}).Info("twscraper starting")

	recorder := metrics.NewRecorder()
	limiter := ratelimit.NewWindow(ratelimit.WithOnWait(func(endpoint string, d time.Duration) {
		logger.LogRateLimit(log, endpoint, d.Seconds())
		recorder.RateLimitWait(endpoint, d)
	}))
	client := twitter.NewClient(cfg.Twitter, log,
		twitter.WithLimiter(limiter),
		twitter.WithObserver(recorder),
	)

	driver := ingest.NewDriver(
		ingest.StoreOpener(log),
		ingest.NewTwitterSource(client),
		ui.NewConsole(cmd.OutOrStdout()),
		ingest.WithRecorder(recorder),
		ingest.WithLogger(log),
	)

	_, runErr := driver.Run(cmd.Context(), ingest.Options{
		Account:  account,
		Location: cfg.Store.Path,
		DryRun:   dryRun,
		Resume:   resume,
		ResolveCredentials: func(ctx context.Context) (auth.Credentials, error) {
			return resolveCredentials(cfg, log)
		},
	})

	if cfg.Metrics.Textfile != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.WithError(err).WarnWithFields("failed to write metrics", map[string]interface{}{
				"path": cfg.Metrics.Textfile,
			})
		}
	}

	return runErr
}

// resolveCredentials picks the secrets for the run. A broken credential manager
// only matters when no complete credentials were configured.
func resolveCredentials(cfg *config.Config, log logger.Logger) (auth.Credentials, error) {
	configured := auth.Credentials{
		APIKey:            cfg.Twitter.APIKey,
		APISecret:         cfg.Twitter.APISecret,
		AccessToken:       cfg.Twitter.AccessToken,
		AccessTokenSecret: cfg.Twitter.AccessTokenSecret,
	}

	manager, err := auth.NewManager()
	if err != nil {
		if profileName == "" && configured.Complete() {
			log.WithError(err).Warn("credential manager unavailable, using configured credentials")
			return configured, nil
		}
		return auth.Credentials{}, errors.NewAuthError("resolve credentials", "credential manager unavailable", 0, err)
	}

	creds, source, err := manager.Resolve(profileName, configured)
	if err != nil {
		return auth.Credentials{}, errors.NewAuthError("resolve credentials", fmt.Sprintf("profile %q not found", profileName), 0, err)
	}

	log.WithFields(map[string]interface{}{
		"source":  string(source),
		"profile": profileName,
	}).Debug("resolved credentials")

	return creds, nil
}
