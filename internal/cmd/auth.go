package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/config"
	"github.com/initBasti/plenty-cli/internal/credentials"
	"github.com/initBasti/plenty-cli/internal/iocontext"
	"github.com/initBasti/plenty-cli/internal/tokenstore"
	"github.com/initBasti/plenty-cli/internal/validation"
)

var (
	newPrompter   = func() credentials.Prompter { return credentials.NewTerminalPrompter() }
	isInteractive = credentials.IsInteractive
)

const defaultProfileName = "default"

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage the login to a PlentyMarkets system",
		Long:    "Store the REST login of a PlentyMarkets system in your OS keychain and manage cached tokens.",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		username      string
		passwordStdin bool
		passwordFile  string
		envFile       string
		noVerify      bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the login of a system",
		Long: strings.TrimSpace(`
Save the base URL, username and password of a PlentyMarkets system under a
profile (--profile, default "default") and make it the current profile.

Missing values are prompted for on a terminal. With --password-file the
password is read from an OpenPGP encrypted file at every login and is not
stored. A file encrypted to a key needs that key as an RSA secret key export:

  gpg --export-secret-keys --armor <key id> > ~/.config/plenty-cli/key.asc
  export PLENTY_GPG_KEYRING=~/.config/plenty-cli/key.asc

The login is checked against the system unless --no-verify is set.`),
		Example: strings.TrimSpace(`
  plenty auth login --base-url https://shop.plentymarkets-cloud01.com --username rest
  echo "$PASSWORD" | plenty auth login --base-url shop.example.com --username rest --password-stdin
  plenty auth login --profile staging --env-file .env.staging`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := flags.Profile
			baseURL := flags.BaseURL
			var envPassword string

			if envFile != "" {
				vars, err := loadAuthEnvFile(envFile)
				if err != nil {
					return err
				}
				if baseURL == "" {
					baseURL = vars[config.EnvBaseURL]
				}
				if username == "" {
					username = strings.TrimSpace(vars[config.EnvUsername])
				}
				if passwordFile == "" {
					passwordFile = strings.TrimSpace(vars[config.EnvPasswordFile])
				}
				if profile == "" {
					profile = strings.TrimSpace(vars[config.EnvProfile])
				}
				envPassword = vars[config.EnvPassword]
			}
			if profile == "" {
				profile = defaultProfileName
			}
			if err := validation.ValidateProfileName(profile); err != nil {
				return err
			}

			var prompter credentials.Prompter
			if !flags.NoInput && isInteractive() {
				prompter = newPrompter()
			}

			account, err := collectAccount(cmd, prompter, loginInput{
				baseURL:       baseURL,
				username:      username,
				password:      envPassword,
				passwordFile:  passwordFile,
				passwordStdin: passwordStdin,
			})
			if err != nil {
				return err
			}

			if !noVerify {
				if err := verifyLogin(cmd, profile, account); err != nil {
					return err
				}
			}
			if err := config.SaveProfile(profile, account); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			if isJSON(cmd) {
				return printOutput(cmd, map[string]any{
					"profile":  profile,
					"base_url": account.BaseURL,
					"username": account.Username,
					"verified": !noVerify,
				})
			}
			out := stdout(cmd)
			_, _ = fmt.Fprintln(out, "Login saved.")
			_, _ = fmt.Fprintf(out, "  Profile:  %s\n", profile)
			_, _ = fmt.Fprintf(out, "  Base URL: %s\n", account.BaseURL)
			_, _ = fmt.Fprintf(out, "  Username: %s\n", account.Username)
			return nil
		}),
	}
	cmd.Flags().StringVar(&username, "username", "", "REST API user")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "OpenPGP encrypted password file (the password is not stored; see PLENTY_GPG_KEYRING)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Read PLENTY_* values from a .env file")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Save without logging in to the system")
	flagAlias(cmd.Flags(), "username", "user")
	flagAlias(cmd.Flags(), "env-file", "env")
	return cmd
}

type loginInput struct {
	baseURL       string
	username      string
	password      string
	passwordFile  string
	passwordStdin bool
}

// collectAccount completes the login from flags, stdin and prompts.
func collectAccount(cmd *cobra.Command, pr credentials.Prompter, in loginInput) (config.Account, error) {
	var err error
	if in.baseURL == "" && pr != nil {
		if in.baseURL, err = pr.Line("Base URL: "); err != nil {
			return config.Account{}, err
		}
	}
	if in.baseURL == "" {
		return config.Account{}, fmt.Errorf("--base-url is required")
	}
	baseURL := validation.NormalizeBaseURL(in.baseURL)
	if err := validation.ValidateBaseURL(baseURL); err != nil {
		return config.Account{}, err
	}

	if in.username == "" && pr != nil {
		if in.username, err = pr.Line("Username: "); err != nil {
			return config.Account{}, err
		}
	}
	if in.username == "" {
		return config.Account{}, fmt.Errorf("--username is required")
	}
	if err := validation.ValidateUsername(in.username); err != nil {
		return config.Account{}, err
	}

	account := config.Account{BaseURL: baseURL, Username: in.username}
	if in.passwordFile != "" {
		if _, err := os.Stat(in.passwordFile); err != nil {
			return config.Account{}, fmt.Errorf("password file: %w", err)
		}
		account.PasswordFile = in.passwordFile
		return account, nil
	}

	password := in.password
	switch {
	case in.passwordStdin:
		data, err := io.ReadAll(iocontext.From(cmdContext(cmd)).In)
		if err != nil {
			return config.Account{}, fmt.Errorf("reading password from stdin: %w", err)
		}
		password = strings.TrimRight(string(data), "\r\n")
	case password == "" && pr != nil:
		if password, err = credentials.PromptPassword(pr, "Password: "); err != nil {
			return config.Account{}, err
		}
	}
	if password == "" {
		return config.Account{}, fmt.Errorf("password required: pass --password-stdin, --password-file or run interactively")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return config.Account{}, err
	}
	account.Password = password
	return account, nil
}

// verifyLogin logs in once with the new account. The token is cached like
// any other login.
func verifyLogin(cmd *cobra.Command, profile string, account config.Account) error {
	f := newClientFactory(cmd)
	provider := &credentials.Provider{
		Profile:    profile,
		Account:    account,
		Invalidate: func(string) error { return nil },
	}
	client, closer := f.newClient(config.ClientConfig{Profile: profile, Account: account}, provider)
	defer func() { _ = closer.Close() }()

	if _, err := client.Session().EnsureValidToken(cmdContext(cmd)); err != nil {
		return fmt.Errorf("login to %s failed: %w", account.BaseURL, err)
	}
	return nil
}

func loadAuthEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read --env-file %q: %w", path, err)
	}
	return vars, nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active login and cached token",
		Long:  "Show the profile, system and user in use, where the password comes from and whether a token is cached. The password is never printed.",
		Example: strings.TrimSpace(`
  plenty auth status
  plenty auth status -o json`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.ResolveClientConfig(flags.Profile, flags.BaseURL, settings.BaseURL)
			if err != nil {
				if !errors.Is(err, config.ErrNotConfigured) {
					return err
				}
				if isJSON(cmd) {
					return printOutput(cmd, map[string]any{
						"authenticated": false,
						"message":       "Not logged in. Run 'plenty auth login'.",
					})
				}
				_, _ = fmt.Fprintln(stdout(cmd), "Not logged in.")
				_, _ = fmt.Fprintln(stdout(cmd), "Run 'plenty auth login' to save a login.")
				return nil
			}

			status := map[string]any{
				"authenticated":   true,
				"profile":         cfg.Profile,
				"base_url":        cfg.Account.BaseURL,
				"username":        cfg.Account.Username,
				"password_source": passwordSource(cfg.Account),
				"token_store":     settings.TokenStore.Backend,
			}
			if expiry, ok := cachedTokenExpiry(cmd, cfg.Account); ok {
				status["token_expires_at"] = expiry.Format(time.RFC3339)
			}

			if isJSON(cmd) {
				return printOutput(cmd, status)
			}
			out := stdout(cmd)
			_, _ = fmt.Fprintln(out, "Logged in")
			_, _ = fmt.Fprintf(out, "  Profile:     %s\n", cfg.Profile)
			_, _ = fmt.Fprintf(out, "  Base URL:    %s\n", cfg.Account.BaseURL)
			_, _ = fmt.Fprintf(out, "  Username:    %s\n", cfg.Account.Username)
			_, _ = fmt.Fprintf(out, "  Password:    %s\n", status["password_source"])
			_, _ = fmt.Fprintf(out, "  Token store: %s\n", settings.TokenStore.Backend)
			if exp, ok := status["token_expires_at"]; ok {
				_, _ = fmt.Fprintf(out, "  Token valid until %s\n", exp)
			} else {
				_, _ = fmt.Fprintln(out, "  No cached token")
			}
			return nil
		}),
	}
}

func passwordSource(account config.Account) string {
	if v, ok := os.LookupEnv(config.EnvPassword); ok && v != "" {
		return "env"
	}
	switch {
	case account.Password != "":
		return "keychain"
	case account.PasswordFile != "":
		return "file " + account.PasswordFile
	default:
		return "prompt"
	}
}

func cachedTokenExpiry(cmd *cobra.Command, account config.Account) (time.Time, bool) {
	store, closer := newClientFactory(cmd).openTokenStore(account)
	defer func() { _ = closer.Close() }()
	if store == nil {
		return time.Time{}, false
	}
	token, err := store.LoadToken(cmdContext(cmd))
	if err != nil || token == nil {
		return time.Time{}, false
	}
	return token.ExpiresAt, true
}

func newAuthLogoutCmd() *cobra.Command {
	var allTokens bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove a saved login and its cached token",
		Example: strings.TrimSpace(`
  plenty auth logout
  plenty auth logout --profile staging
  plenty auth logout --all-tokens`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := config.ProfileName(flags.Profile)
			account, err := config.LoadProfile(profile)
			if err != nil && !errors.Is(err, config.ErrNotConfigured) {
				return err
			}
			if err == nil {
				clearCachedToken(cmd, account)
			}
			if err := config.DeleteProfile(profile); err != nil {
				return err
			}
			if allTokens && settings.TokenStore.Backend == config.TokenStoreFile {
				if err := tokenstore.ClearAll(settings.TokenStore.Dir); err != nil {
					return fmt.Errorf("clearing token files: %w", err)
				}
			}

			if isJSON(cmd) {
				return printOutput(cmd, map[string]any{"profile": profile, "logged_out": true})
			}
			_, _ = fmt.Fprintf(stdout(cmd), "Logged out of profile %s.\n", profile)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&allTokens, "all-tokens", false, "Also remove the token files of every system (file token store)")
	return cmd
}

func clearCachedToken(cmd *cobra.Command, account config.Account) {
	store, closer := newClientFactory(cmd).openTokenStore(account)
	defer func() { _ = closer.Close() }()
	if store == nil {
		return
	}
	if err := store.ClearToken(cmdContext(cmd)); err != nil {
		printErr(cmd, "Warning: cached token not removed: %v\n", err)
	}
}
