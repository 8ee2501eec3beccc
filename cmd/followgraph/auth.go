package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"followgraph/pkg/auth"
	"followgraph/pkg/config"
	"followgraph/pkg/logger"
	"followgraph/pkg/twitter"
	"followgraph/pkg/ui"
)

var (
	skipVerify bool
	logoutAll  bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Twitter API credentials",
	Long: `Manage stored Twitter application credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Each set of credentials is stored under a profile name. Use --account with
collect to pick a profile other than "default".`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store API credentials securely",
	Long: `Store a consumer key and secret (or a ready bearer token) under a profile.

The credentials are checked against the token endpoint before they are
stored unless --skip-verify is given.`,
	Example: `  # Interactive login for the default profile
  followgraph auth login

  # Store a second application under its own profile
  followgraph auth login research`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Example: `  followgraph auth logout research
  followgraph auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Long:  `List all stored profiles with masked credential values.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store without requesting a token first")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored profile")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	auth.ShowCredentialGuide(os.Stdout)

	name := auth.DefaultProfile
	if len(args) > 0 {
		name = args[0]
	} else if input, err := prompt(reader, fmt.Sprintf("Profile name [%s]: ", auth.DefaultProfile)); err == nil && input != "" {
		name = input
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		answer, _ := prompt(reader, fmt.Sprintf("\nProfile '%s' already exists. Replace it? (y/N): ", name))
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
	}

	fmt.Println("\nEnter your application keys (input is hidden):")
	fmt.Print("Consumer key: ")
	key, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read consumer key: %w", err)
	}
	fmt.Print("Consumer secret: ")
	secret, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read consumer secret: %w", err)
	}
	fmt.Print("Bearer token (optional, press Enter to skip): ")
	bearer, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read bearer token: %w", err)
	}

	creds := &auth.Credentials{
		Profile:        name,
		ConsumerKey:    key,
		ConsumerSecret: secret,
		BearerToken:    bearer,
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	if !skipVerify {
		fmt.Println("\nVerifying credentials...")
		if err := verifyCredentials(cmd.Context(), creds); err != nil {
			return fmt.Errorf("credentials were rejected: %w", err)
		}
	}

	if err := manager.Store(creds); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Credentials stored for profile '%s'", name))
	return nil
}

// verifyCredentials requests a bearer token with the given keys
func verifyCredentials(ctx context.Context, creds *auth.Credentials) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	cfg.Twitter.ConsumerKey = creds.ConsumerKey
	cfg.Twitter.ConsumerSecret = creds.ConsumerSecret
	cfg.Twitter.BearerToken = creds.BearerToken

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := twitter.NewClient(twitter.ConfigFrom(cfg), logger.GetLogger())
	if creds.BearerToken != "" {
		_, err = client.Probe(ctx)
		return err
	}
	_, err = client.Token(ctx)
	return err
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return err
		}
		ui.PrintSuccess("All stored profiles removed")
		return nil
	}

	name := auth.DefaultProfile
	if len(args) > 0 {
		name = args[0]
	}
	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed profile '%s'", name))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profiles, err := manager.List()
	if err != nil {
		return err
	}
	printProfiles(cmd.OutOrStdout(), profiles)
	return nil
}

func printProfiles(w io.Writer, profiles []*auth.Credentials) {
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No stored profiles. Run 'followgraph auth login' to add one.")
		return
	}

	fmt.Fprintln(w, "Stored profiles:")
	for _, creds := range profiles {
		masked := auth.Sanitize(creds)
		fmt.Fprintf(w, "\n  %s\n", masked.Profile)
		fmt.Fprintf(w, "    consumer key:  %s\n", masked.ConsumerKey)
		if masked.BearerToken != "" {
			fmt.Fprintf(w, "    bearer token:  %s\n", masked.BearerToken)
		}
		if !masked.LastModified.IsZero() {
			fmt.Fprintf(w, "    last modified: %s\n", masked.LastModified.Format("2006-01-02 15:04"))
		}
	}
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		if err == io.EOF {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(input), nil
}
