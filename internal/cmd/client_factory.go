package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/config"
	"github.com/initBasti/plenty-cli/internal/credentials"
	"github.com/initBasti/plenty-cli/internal/iocontext"
	"github.com/initBasti/plenty-cli/internal/tokenstore"
)

type clientFactory struct {
	settings  *config.Settings
	timeout   time.Duration
	userAgent string
	errOut    io.Writer
}

func newClientFactory(cmd *cobra.Command) *clientFactory {
	s := settings
	if s == nil {
		s = &config.Settings{}
	}
	return &clientFactory{
		settings:  s,
		timeout:   flags.Timeout,
		userAgent: fmt.Sprintf("plenty-cli/%s", version),
		errOut:    iocontext.From(cmdContext(cmd)).Err,
	}
}

// getClient builds the client for the selected profile. The returned
// function releases the token store and must be called when done.
func getClient(cmd *cobra.Command) (*api.Client, func(), error) {
	f := newClientFactory(cmd)
	cfg, err := config.ResolveClientConfig(flags.Profile, flags.BaseURL, f.settings.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	client, closer := f.newClient(cfg, f.provider(cfg))
	return client, func() { _ = closer.Close() }, nil
}

func (f *clientFactory) provider(cfg config.ClientConfig) *credentials.Provider {
	p := &credentials.Provider{Profile: cfg.Profile, Account: cfg.Account}
	if !flags.NoInput && credentials.IsInteractive() {
		p.Prompter = credentials.NewTerminalPrompter()
	}
	return p
}

// openTokenStore opens the configured token store. A broken backend only
// costs an extra login, so it is logged and skipped.
func (f *clientFactory) openTokenStore(account config.Account) (tokenstore.Store, io.Closer) {
	store, closer, err := tokenstore.Open(f.settings.TokenStore, account.BaseURL, account.Username)
	if err != nil {
		slog.Warn("token store unavailable, tokens are not cached", "backend", f.settings.TokenStore.Backend, "error", err)
		return nil, nopCloser{}
	}
	return store, closer
}

func (f *clientFactory) newClient(cfg config.ClientConfig, creds api.CredentialProvider) (*api.Client, io.Closer) {
	transport := api.NewHTTPTransport()
	if f.timeout > 0 {
		transport.HTTP.Timeout = f.timeout
	}
	transport.UserAgent = f.userAgent
	if rl := f.settings.RateLimit; rl.PerSecond > 0 {
		transport.Limiter = rate.NewLimiter(rate.Limit(rl.PerSecond), rl.Burst)
	}
	applyRetryOverrides(transport)

	opts := []api.Option{
		api.WithHTTPTransport(transport),
		api.WithLocation(location),
		api.WithPageLimit(flags.MaxPages),
		api.WithMetrics(clientMetrics),
	}

	store, closer := f.openTokenStore(cfg.Account)
	if store != nil {
		opts = append(opts, api.WithSessionOptions(api.WithTokenStore(store)))
	}
	if flags.Progress {
		opts = append(opts, api.WithProgressCallback(progressReporter(f.errOut)))
	}
	return api.New(cfg.Account.BaseURL, creds, opts...), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func progressReporter(w io.Writer) func(api.Progress) {
	return func(p api.Progress) {
		if p.Total > 0 {
			_, _ = fmt.Fprintf(w, "page %d: %d/%d records\n", p.Page, p.Records, p.Total)
			return
		}
		_, _ = fmt.Fprintf(w, "page %d: %d records\n", p.Page, p.Records)
	}
}

func applyRetryOverrides(t *api.HTTPTransport) {
	cfg := t.RetryConfig

	if flags.MaxRateLimitRetriesSet {
		cfg.MaxRateLimitRetries = flags.MaxRateLimitRetries
	}
	if flags.Max5xxRetriesSet {
		cfg.Max5xxRetries = flags.Max5xxRetries
	}
	if flags.RateLimitDelaySet {
		cfg.RateLimitBaseDelay = flags.RateLimitDelay
	}
	if flags.ServerErrorDelaySet {
		cfg.ServerErrorRetryDelay = flags.ServerErrorDelay
	}
	if flags.CircuitBreakerThresholdSet {
		cfg.CircuitBreakerThreshold = flags.CircuitBreakerThreshold
	}
	if flags.CircuitBreakerResetTimeSet {
		cfg.CircuitBreakerResetTime = flags.CircuitBreakerResetTime
	}

	t.SetRetryConfig(cfg)
}
