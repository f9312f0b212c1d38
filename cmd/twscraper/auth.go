package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"twscraper/pkg/auth"
	"twscraper/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored API credentials",
	Long: `Manage named credential profiles.

Profiles are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only, profile "env")

The "default" profile is used when no --profile is given and the
configuration does not hold all four secrets.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store API credentials under a profile name",
	Long: `Store the four OAuth1 secrets of a developer app under a profile name.

You will be prompted for the API key, API secret, access token and access
token secret. Input is hidden when reading from a terminal.`,
	Example: `  # Store the default profile
  twscraper auth login

  # Store a named profile
  twscraper auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <profile>",
	Short: "Remove a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Long:  `List all stored profiles with masked credentials.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := auth.DefaultProfile
	if len(args) > 0 {
		profile = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowCredentialGuide()

	if existing, _ := manager.Retrieve(profile); existing != nil {
		fmt.Printf("⚠️  Profile '%s' already exists. Update credentials? (y/N): ", profile)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Println("🔐 Enter your app secrets (hidden as you type):")
	fmt.Println()

	var creds auth.Credentials
	prompts := []struct {
		label  string
		target *string
	}{
		{"API key", &creds.APIKey},
		{"API secret", &creds.APISecret},
		{"Access token", &creds.AccessToken},
		{"Access token secret", &creds.AccessTokenSecret},
	}
	for _, p := range prompts {
		fmt.Printf("%s: ", p.label)
		value, err := readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(p.label), err)
		}
		*p.target = value
	}

	if missing := creds.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	account := &auth.Account{
		Profile:      profile,
		Credentials:  creds,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Println()
	ui.PrintSuccess(fmt.Sprintf("Profile saved: %s", profile))
	if profile != auth.DefaultProfile {
		fmt.Println("\nUse it with:")
		fmt.Printf("  twscraper <account> --profile %s\n", profile)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := args[0]
	if err := manager.Delete(profile); err != nil {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	ui.PrintSuccess("Profile removed: " + profile)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored profiles", "Use 'twscraper auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Profiles")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Profile: %s\n", i+1, sanitized.Profile)
		fmt.Printf("   API key: %s\n", sanitized.Credentials.APIKey)
		fmt.Printf("   Access token: %s\n", sanitized.Credentials.AccessToken)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}

// readSecret reads one line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
