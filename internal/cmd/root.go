package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/config"
	"github.com/initBasti/plenty-cli/internal/debug"
	"github.com/initBasti/plenty-cli/internal/dryrun"
	"github.com/initBasti/plenty-cli/internal/iocontext"
	"github.com/initBasti/plenty-cli/internal/metrics"
	"github.com/initBasti/plenty-cli/internal/outfmt"
)

const envOutput = "PLENTY_OUTPUT"

// rootFlags holds global CLI flags
type rootFlags struct {
	Profile    string
	BaseURL    string
	ConfigPath string
	Output     string
	Format     string
	Query      string
	QueryFile  string
	Template   string
	Compact    bool
	Debug      bool
	DryRun     bool
	Yes        bool
	NoInput    bool
	Progress   bool
	LogLevel   string
	LogFormat  string
	Timeout    time.Duration
	MaxPages   int
	PageSize   int
	TimeZone   string
	MetricsOut string

	MaxRateLimitRetries     int
	Max5xxRetries           int
	RateLimitDelay          time.Duration
	ServerErrorDelay        time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerResetTime time.Duration

	MaxRateLimitRetriesSet     bool
	Max5xxRetriesSet           bool
	RateLimitDelaySet          bool
	ServerErrorDelaySet        bool
	CircuitBreakerThresholdSet bool
	CircuitBreakerResetTimeSet bool
}

// flags holds the global command flags. It is reset at the start of every
// Execute call; reading it outside a command's RunE yields stale data.
var flags rootFlags

// runtime state resolved in PersistentPreRunE.
var (
	settings        *config.Settings
	location        *time.Location
	metricsRegistry *prometheus.Registry
	clientMetrics   *metrics.Metrics
)

func defaultFlags() rootFlags {
	return rootFlags{
		Output: defaultOutput(),
		Format: string(api.FormatStructured),
	}
}

func defaultOutput() string {
	if value := strings.TrimSpace(os.Getenv(envOutput)); value != "" {
		return value
	}
	return "text"
}

// loadDotEnv loads PLENTY_ENV_FILE, or the .env next to the settings file.
// Variables already set in the environment are not overwritten.
func loadDotEnv() {
	path := strings.TrimSpace(os.Getenv("PLENTY_ENV_FILE"))
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return
		}
		path = filepath.Join(dir, "plenty-cli", ".env")
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("failed to load env file", "path", path, "error", err)
	}
}

func loadQueryFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("--query-file requires a file path")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read query from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // user supplied query path
		if err != nil {
			return "", fmt.Errorf("failed to read --query-file %q: %w", path, err)
		}
	}

	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", fmt.Errorf("--query-file %q is empty", path)
	}
	return query, nil
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	loadDotEnv()

	flags = defaultFlags()
	settings = nil
	location = time.Local
	metricsRegistry = nil
	clientMetrics = nil

	root := &cobra.Command{
		Use:   "plenty",
		Short: "CLI for the PlentyMarkets REST API",
		Long: strings.TrimSpace(`
Query and update a PlentyMarkets system from the command line.

Listings are fetched page by page and returned as one result. Use
--format tabular for a column/row representation and --output json to
post-process results with --query.`),
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		PersistentPreRunE:  preRun,
	}

	root.SetContext(ctx)
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Profile, "profile", "p", "", "Credential profile to use (env PLENTY_PROFILE)")
	pf.StringVar(&flags.BaseURL, "base-url", "", "Base URL of the PlentyMarkets system (overrides profile and env)")
	pf.StringVar(&flags.ConfigPath, "config", "", "Settings file (env PLENTY_CONFIG)")
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl (env PLENTY_OUTPUT)")
	pf.StringVar(&flags.Format, "format", flags.Format, "Listing representation: structured|tabular")
	pf.StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&flags.QueryFile, "query-file", "", "Read JQ expression from file ('-' for stdin)")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Preview write requests without sending them")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Skip confirmation prompts")
	pf.BoolVar(&flags.NoInput, "no-input", false, "Disable interactive prompts")
	pf.BoolVar(&flags.Progress, "progress", false, "Report pagination progress on stderr")
	pf.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug|info|warn|error (default from settings)")
	pf.StringVar(&flags.LogFormat, "log-format", "", "Log format: text|json (default from settings)")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "HTTP request timeout (e.g., 30s, 2m)")
	pf.IntVar(&flags.MaxPages, "max-pages", 0, "Upper bound of pages fetched per listing")
	pf.IntVar(&flags.PageSize, "page-size", 0, "Records requested per page (1-250)")
	pf.StringVar(&flags.TimeZone, "time-zone", "", "Time zone for dates given without offset (e.g., Europe/Berlin)")
	pf.StringVar(&flags.MetricsOut, "metrics-out", "", "Write client metrics in Prometheus text format to this file")
	pf.IntVar(&flags.MaxRateLimitRetries, "max-rate-limit-retries", 0, "Max retries for 429 responses (overrides env)")
	pf.IntVar(&flags.Max5xxRetries, "max-5xx-retries", 0, "Max retries for 5xx responses (overrides env)")
	pf.DurationVar(&flags.RateLimitDelay, "rate-limit-delay", 0, "Base delay for 429 retries (e.g., 1s; overrides env)")
	pf.DurationVar(&flags.ServerErrorDelay, "server-error-delay", 0, "Delay between 5xx retries (e.g., 1s; overrides env)")
	pf.IntVar(&flags.CircuitBreakerThreshold, "circuit-breaker-threshold", 0, "Failures before circuit opens (overrides env)")
	pf.DurationVar(&flags.CircuitBreakerResetTime, "circuit-breaker-reset-time", 0, "Circuit breaker reset time (e.g., 30s; overrides env)")

	flagAlias(pf, "output", "out")
	flagAlias(pf, "query", "jq")
	flagAlias(pf, "query-file", "qf")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "dry-run", "dr")
	flagAlias(pf, "time-zone", "tz")
	flagAlias(pf, "template", "tpl")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "max-rate-limit-retries", "max-rl")
	flagAlias(pf, "max-5xx-retries", "m5x")
	flagAlias(pf, "circuit-breaker-threshold", "cbt")
	flagAlias(pf, "circuit-breaker-reset-time", "cbr")

	registerStaticCompletions(root, "output", []string{"text", "json", "jsonl"})
	registerStaticCompletions(root, "format", []string{string(api.FormatStructured), string(api.FormatTabular)})
	registerStaticCompletions(root, "log-level", []string{"debug", "info", "warn", "error"})
	registerStaticCompletions(root, "log-format", []string{"text", "json"})

	root.AddCommand(newAuthCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newOrdersCmd())
	root.AddCommand(newItemsCmd())
	root.AddCommand(newVariationsCmd())
	root.AddCommand(newAttributesCmd())
	root.AddCommand(newManufacturersCmd())
	root.AddCommand(newStockCmd())
	root.AddCommand(newContactsCmd())
	root.AddCommand(newVATCmd())
	root.AddCommand(newPricesCmd())
	root.AddCommand(newReferrersCmd())
	root.AddCommand(newWarehousesCmd())
	root.AddCommand(newRedistributeCmd())
	root.AddCommand(newEndpointsCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if werr := writeMetrics(); werr != nil {
		slog.Warn("failed to write metrics", "path", flags.MetricsOut, "error", werr)
	}
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd)) //nolint:errcheck
		}
		return err
	}
	return nil
}

func preRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var err error
	settings, err = config.LoadSettings(flags.ConfigPath)
	if err != nil {
		return err
	}

	level, format := settings.Logging.Level, settings.Logging.Format
	if flags.LogLevel != "" {
		level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		format = flags.LogFormat
	}
	if flags.Debug {
		level = "debug"
	}
	flags.LogLevel, flags.LogFormat = level, format
	debug.SetupLogger(level, format)
	ctx = debug.WithDebug(ctx, flags.Debug)

	if err := applySettingsDefaults(cmd); err != nil {
		return err
	}

	if flags.QueryFile != "" {
		if flags.Query != "" {
			return fmt.Errorf("--query-file cannot be used with --query")
		}
		if flags.Query, err = loadQueryFile(flags.QueryFile); err != nil {
			return err
		}
	}

	mode, err := outfmt.Parse(flags.Output)
	if err != nil {
		return err
	}
	if flags.Query != "" && mode == outfmt.Text && !flagOrAliasChanged(cmd, "output") {
		mode = outfmt.JSON
	}
	if _, err := api.ParseFormat(flags.Format); err != nil {
		return err
	}
	render := outfmt.Options{Mode: mode, Compact: flags.Compact, Query: flags.Query}
	if flags.Template != "" {
		if render.Template, err = outfmt.ParseTemplate(flags.Template); err != nil {
			return err
		}
	}
	ctx = outfmt.WithOptions(ctx, render)

	streams := iocontext.Std()
	ctx = iocontext.With(ctx, streams)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	ctx = dryrun.WithDryRun(ctx, flags.DryRun)

	if flags.MetricsOut != "" {
		metricsRegistry = prometheus.NewRegistry()
		clientMetrics = metrics.New(metricsRegistry)
	}

	if err := readRetryOverrides(cmd); err != nil {
		return err
	}

	cmd.SetContext(ctx)
	return nil
}

// applySettingsDefaults fills the flags the user did not set from the
// settings file.
func applySettingsDefaults(cmd *cobra.Command) error {
	if !flagOrAliasChanged(cmd, "timeout") {
		flags.Timeout = settings.Timeout
	}
	if flags.Timeout < 0 {
		return fmt.Errorf("--timeout must be >= 0")
	}
	if !cmd.Flags().Changed("max-pages") {
		flags.MaxPages = settings.MaxPages
	}
	if flags.MaxPages < 1 {
		return fmt.Errorf("--max-pages must be >= 1")
	}
	if !cmd.Flags().Changed("page-size") {
		flags.PageSize = settings.PageSize
	}
	if flags.PageSize < 1 || flags.PageSize > api.MaxPageSize {
		return fmt.Errorf("--page-size must be between 1 and %d", api.MaxPageSize)
	}

	location = settings.Location()
	if flags.TimeZone != "" {
		loc, err := time.LoadLocation(flags.TimeZone)
		if err != nil {
			return fmt.Errorf("invalid --time-zone %q: %w", flags.TimeZone, err)
		}
		location = loc
	}
	return nil
}

func readRetryOverrides(cmd *cobra.Command) error {
	flags.MaxRateLimitRetriesSet = flagOrAliasChanged(cmd, "max-rate-limit-retries")
	flags.Max5xxRetriesSet = flagOrAliasChanged(cmd, "max-5xx-retries")
	flags.RateLimitDelaySet = flagOrAliasChanged(cmd, "rate-limit-delay")
	flags.ServerErrorDelaySet = flagOrAliasChanged(cmd, "server-error-delay")
	flags.CircuitBreakerThresholdSet = flagOrAliasChanged(cmd, "circuit-breaker-threshold")
	flags.CircuitBreakerResetTimeSet = flagOrAliasChanged(cmd, "circuit-breaker-reset-time")

	if flags.MaxRateLimitRetriesSet && flags.MaxRateLimitRetries < 0 {
		return fmt.Errorf("--max-rate-limit-retries must be >= 0")
	}
	if flags.Max5xxRetriesSet && flags.Max5xxRetries < 0 {
		return fmt.Errorf("--max-5xx-retries must be >= 0")
	}
	if flags.RateLimitDelaySet && flags.RateLimitDelay < 0 {
		return fmt.Errorf("--rate-limit-delay must be >= 0")
	}
	if flags.ServerErrorDelaySet && flags.ServerErrorDelay < 0 {
		return fmt.Errorf("--server-error-delay must be >= 0")
	}
	if flags.CircuitBreakerThresholdSet && flags.CircuitBreakerThreshold < 0 {
		return fmt.Errorf("--circuit-breaker-threshold must be >= 0")
	}
	if flags.CircuitBreakerResetTimeSet && flags.CircuitBreakerResetTime < 0 {
		return fmt.Errorf("--circuit-breaker-reset-time must be >= 0")
	}
	return nil
}

func writeMetrics() error {
	if metricsRegistry == nil || flags.MetricsOut == "" {
		return nil
	}
	return prometheus.WriteToTextfile(flags.MetricsOut, metricsRegistry)
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		if unknown := extractFlag(msg); unknown != "" {
			seen := make(map[string]bool)
			var flagNames []string
			addFlags := func(fs *pflag.FlagSet) {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Hidden {
						return
					}
					if name := "--" + f.Name; !seen[name] {
						seen[name] = true
						flagNames = append(flagNames, name)
					}
				})
			}
			helpCmd := "plenty --help"
			if targetCmd != nil {
				addFlags(targetCmd.Flags())
				addFlags(targetCmd.InheritedFlags())
				helpCmd = targetCmd.CommandPath() + " --help"
			} else {
				addFlags(root.PersistentFlags())
			}
			if suggestion := suggestFlag(unknown, flagNames); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
			}
			return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
		}
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		rest := strings.TrimSpace(s[idx+1:])
		if end := strings.IndexByte(rest, ' '); end >= 0 {
			rest = rest[:end]
		}
		rest = strings.TrimRight(rest, ".,;:!?\"'")
		if strings.HasPrefix(rest, "-") && len(rest) > 1 {
			return rest
		}
		return ""
	}
	rest := s[idx:]
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimRight(rest[:end], ".,;:!?\"'")
}
