package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultStorePath is the store file used when --db is not given
const DefaultStorePath = "./tweets.db"

// Config holds all configuration options for the tweet scraper
type Config struct {
	// Platform API access
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Local store
	Store StoreConfig `yaml:"store" json:"store"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Run metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// TwitterConfig holds the API secrets and client settings
type TwitterConfig struct {
	APIKey            string        `yaml:"api_key" json:"api_key"`
	APISecret         string        `yaml:"api_secret" json:"api_secret"`
	AccessToken       string        `yaml:"access_token" json:"access_token"`
	AccessTokenSecret string        `yaml:"access_token_secret" json:"access_token_secret"`
	BaseURL           string        `yaml:"base_url" json:"base_url" validate:"required,url"`
	PageSize          int           `yaml:"page_size" json:"page_size" validate:"gte=1,lte=200"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// StoreConfig holds the store location
type StoreConfig struct {
	// Path is a SQLite file path or a postgres:// URL
	Path string `yaml:"path" json:"path" validate:"required"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn warning error disabled"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig controls the Prometheus textfile written at the end of a run
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:  "https://api.twitter.com/1.1",
			PageSize: 200,
			Timeout:  30 * time.Second,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Logging: LoggingConfig{
			Level: "error",
		},
	}
}

// envLookup returns the first non-empty value among the given variables
func envLookup(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// LoadFromEnv loads configuration from environment variables.
// The TW_* names are accepted for secrets files written for the older script.
func (c *Config) LoadFromEnv() error {
	if v := envLookup("TWSCRAPER_API_KEY", "TW_API_KEY"); v != "" {
		c.Twitter.APIKey = v
	}
	if v := envLookup("TWSCRAPER_API_SECRET", "TW_API_SECRET"); v != "" {
		c.Twitter.APISecret = v
	}
	if v := envLookup("TWSCRAPER_ACCESS_TOKEN", "TW_TOKEN"); v != "" {
		c.Twitter.AccessToken = v
	}
	if v := envLookup("TWSCRAPER_ACCESS_TOKEN_SECRET", "TW_SECRET"); v != "" {
		c.Twitter.AccessTokenSecret = v
	}
	if v := os.Getenv("TWSCRAPER_BASE_URL"); v != "" {
		c.Twitter.BaseURL = v
	}
	if v := os.Getenv("TWSCRAPER_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TWSCRAPER_PAGE_SIZE %q: %w", v, err)
		}
		c.Twitter.PageSize = n
	}
	if v := os.Getenv("TWSCRAPER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TWSCRAPER_TIMEOUT %q: %w", v, err)
		}
		c.Twitter.Timeout = d
	}
	if v := os.Getenv("TWSCRAPER_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("TWSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TWSCRAPER_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("TWSCRAPER_METRICS_FILE"); v != "" {
		c.Metrics.Textfile = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".twscraper.yaml",
		".twscraper.yml",
		filepath.Join(home, ".config", "twscraper", "config.yaml"),
		filepath.Join(home, ".config", "twscraper", "config.yml"),
		filepath.Join(home, ".twscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not required here
// because a stored profile may supply them later.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed %q check (value %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}

// fieldPath turns "Config.Twitter.PageSize" into "twitter.pagesize"
func fieldPath(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}

// HasCredentials reports whether all four API secrets are set
func (c *Config) HasCredentials() bool {
	t := c.Twitter
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.AccessTokenSecret != ""
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map override; cobra callers add a key when the flag was changed.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if db, ok := flags["db"].(string); ok && db != "" {
		c.Store.Path = db
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if metricsFile, ok := flags["metrics-file"].(string); ok && metricsFile != "" {
		c.Metrics.Textfile = metricsFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".twscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
