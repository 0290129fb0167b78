package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/config"
	"github.com/initBasti/plenty-cli/internal/validation"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Show settings and manage profiles",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigProfilesCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Long:  "Show the settings after applying the settings file, defaults and command line flags.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			tz := ""
			if location != nil {
				tz = location.String()
			}
			return printOutput(cmd, api.Record{
				"settings_file":   settingsPath(),
				"base_url":        settings.BaseURL,
				"timeout":         flags.Timeout.String(),
				"max_pages":       flags.MaxPages,
				"page_size":       flags.PageSize,
				"timezone":        tz,
				"rate_limit":      settings.RateLimit.PerSecond,
				"rate_burst":      settings.RateLimit.Burst,
				"token_store":     settings.TokenStore.Backend,
				"token_dir":       settings.TokenStore.Dir,
				"log_level":       flags.LogLevel,
				"log_format":      flags.LogFormat,
				"allow_private":   validation.AllowPrivateEnabled(),
				"current_profile": config.ProfileName(flags.Profile),
			})
		}),
	}
}

func settingsPath() string {
	if flags.ConfigPath != "" {
		return flags.ConfigPath
	}
	if p := strings.TrimSpace(os.Getenv(config.EnvSettingsFile)); p != "" {
		return p
	}
	return config.DefaultSettingsPath()
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if isJSON(cmd) {
				return printOutput(cmd, map[string]string{
					"settings_file": settingsPath(),
					"token_dir":     settings.TokenStore.Dir,
				})
			}
			_, _ = fmt.Fprintln(stdout(cmd), settingsPath())
			return nil
		}),
	}
}

func newConfigProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Manage saved logins",
	}
	cmd.AddCommand(newProfilesListCmd())
	cmd.AddCommand(newProfilesUseCmd())
	cmd.AddCommand(newProfilesShowCmd())
	cmd.AddCommand(newProfilesDeleteCmd())
	return cmd
}

func newProfilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved profiles",
		Example: "  plenty config profiles list",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()

			if isJSON(cmd) {
				return printOutput(cmd, map[string]any{
					"current":  current,
					"profiles": nonNil(profiles),
				})
			}
			if len(profiles) == 0 {
				_, _ = fmt.Fprintln(stdout(cmd), "No profiles saved. Run 'plenty auth login' to add one.")
				return nil
			}

			f := newFormatter(cmd)
			f.StartTable([]string{"CURRENT", "PROFILE", "BASE_URL", "USERNAME"})
			for _, profile := range profiles {
				marker := ""
				if profile == current {
					marker = "*"
				}
				baseURL, username := "-", "-"
				if account, err := config.LoadProfile(profile); err == nil {
					baseURL, username = account.BaseURL, account.Username
				}
				f.Row(marker, profile, baseURL, username)
			}
			return f.EndTable()
		}),
	}
}

func newProfilesUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "use <profile>",
		Short:   "Switch the current profile",
		Example: "  plenty config profiles use staging",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			profile := args[0]
			if _, err := config.LoadProfile(profile); err != nil {
				return fmt.Errorf("profile %q: %w", profile, err)
			}
			if err := config.SetCurrentProfile(profile); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printOutput(cmd, map[string]string{"current": profile})
			}
			_, _ = fmt.Fprintf(stdout(cmd), "Switched to profile %s.\n", profile)
			return nil
		}),
	}
}

func newProfilesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [profile]",
		Short: "Show a saved profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			profile := config.ProfileName(flags.Profile)
			if len(args) == 1 {
				profile = args[0]
			}
			account, err := config.LoadProfile(profile)
			if err != nil {
				return fmt.Errorf("profile %q: %w", profile, err)
			}
			return printOutput(cmd, api.Record{
				"profile":         profile,
				"base_url":        account.BaseURL,
				"username":        account.Username,
				"password_source": passwordSource(account),
			})
		}),
	}
}

func newProfilesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <profile>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved profile",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			profile := args[0]
			confirmed, err := confirmAction(cmd, confirmOptions{
				Prompt:        fmt.Sprintf("Delete profile %s? (y/N): ", profile),
				CancelMessage: "Cancelled.",
			})
			if err != nil || !confirmed {
				return err
			}
			if err := config.DeleteProfile(profile); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printOutput(cmd, map[string]any{"profile": profile, "deleted": true})
			}
			_, _ = fmt.Fprintf(stdout(cmd), "Deleted profile %s.\n", profile)
			return nil
		}),
	}
}
