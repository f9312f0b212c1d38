package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"twscraper/pkg/config"
	"twscraper/pkg/store"
	"twscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage twscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TWSCRAPER_*, and TW_* for the API secrets)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.twscraper.yaml' in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. Secrets are masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

const exampleConfig = `# twscraper configuration file
#
# Every value can also be set with an environment variable, for example
# TWSCRAPER_API_KEY or TWSCRAPER_DB.

# Platform API access
twitter:
  # OAuth1 secrets of a developer app. Leave empty to use a stored
  # profile from 'twscraper auth login'.
  api_key: ""
  api_secret: ""
  access_token: ""
  access_token_secret: ""

  # REST API root
  base_url: "https://api.twitter.com/1.1"

  # Tweets requested per page (1-200)
  page_size: 200

  # HTTP timeout per request
  timeout: 30s

# Where tweets are saved: a SQLite file or a postgres:// URL
store:
  path: "./tweets.db"

# Logging goes to stderr
logging:
  # Log level: debug, info, warn, error, disabled
  level: "error"

  # Optional log file
  file: ""

# Prometheus textfile written at the end of each run (optional)
metrics:
  textfile: ""
`

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".twscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add your API secrets, or run 'twscraper auth login'")
	fmt.Println("2. Run 'twscraper config validate' to check the configuration")
	fmt.Println("3. Start archiving with 'twscraper <account>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (TWSCRAPER_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var warnings []string
	if !cfg.HasCredentials() {
		warnings = append(warnings, "API secrets not configured; a stored profile will be required")
	}
	if !store.IsPostgres(cfg.Store.Path) {
		if _, err := os.Stat(filepath.Dir(cfg.Store.Path)); err != nil {
			warnings = append(warnings, fmt.Sprintf("store directory does not exist: %s", filepath.Dir(cfg.Store.Path)))
		}
	}
	if cfg.Logging.File != "" {
		if _, err := os.Stat(filepath.Dir(cfg.Logging.File)); err != nil {
			warnings = append(warnings, fmt.Sprintf("log directory does not exist: %s", filepath.Dir(cfg.Logging.File)))
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(ui.Stderr, "  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Store: %s\n", store.DisplayLocation(cfg.Store.Path))
	fmt.Printf("  API: %s\n", cfg.Twitter.BaseURL)
	fmt.Printf("  Page size: %d\n", cfg.Twitter.PageSize)
	fmt.Printf("  Timeout: %s\n", cfg.Twitter.Timeout)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// maskedConfig returns a copy of cfg with the secrets masked
func maskedConfig(cfg *config.Config) config.Config {
	masked := *cfg
	masked.Twitter.APIKey = mask(masked.Twitter.APIKey)
	masked.Twitter.APISecret = mask(masked.Twitter.APISecret)
	masked.Twitter.AccessToken = mask(masked.Twitter.AccessToken)
	masked.Twitter.AccessTokenSecret = mask(masked.Twitter.AccessTokenSecret)
	masked.Store.Path = store.DisplayLocation(masked.Store.Path)
	return masked
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}
