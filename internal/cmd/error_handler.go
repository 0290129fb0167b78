package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/config"
	"github.com/initBasti/plenty-cli/internal/credentials"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var (
		rateLimitErr      *api.RateLimitError
		circuitBreakerErr *api.CircuitBreakerError
		authErr           *api.AuthenticationError
		remoteErr         *api.RemoteRejectedError
		refineErr         *api.InvalidRefinementKeyError
		pageErr           *api.PaginationLimitExceededError
		tmplErr           *api.InvalidTemplateError
		we                *writeError
	)

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		msg.WriteString("No account configured.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: plenty auth login\n")
		msg.WriteString("  - Or set PLENTY_BASE_URL and PLENTY_USERNAME\n")

	case errors.Is(err, credentials.ErrNoPassword), errors.Is(err, config.ErrPassphrase):
		fmt.Fprintf(&msg, "Error: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Store a password: plenty auth login\n")
		msg.WriteString("  - Set PLENTY_PASSWORD or PLENTY_PASSWORD_FILE\n")
		msg.WriteString("  - Run the command in a terminal to be prompted\n")

	case errors.As(err, &rateLimitErr):
		msg.WriteString("Call limit of the PlentyMarkets system exceeded.\n\n")
		msg.WriteString("Suggestions:\n")
		fmt.Fprintf(&msg, "  - Wait %s and retry\n", rateLimitErr.RetryAfter)
		msg.WriteString("  - Lower rate_limit.per_second in the settings file\n")

	case errors.As(err, &circuitBreakerErr):
		msg.WriteString("Service temporarily unavailable (circuit breaker open).\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - The REST API has failed repeatedly\n")
		msg.WriteString("  - Wait 30 seconds and retry\n")

	case errors.As(err, &authErr):
		fmt.Fprintf(&msg, "Authentication failed: %s\n\n", authErr.Reason)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: plenty auth login\n")
		msg.WriteString("  - Check the REST API permissions of the back office user\n")

	case errors.As(err, &refineErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		if len(refineErr.Suggestions) > 0 {
			fmt.Fprintf(&msg, "  - Did you mean %q?\n", refineErr.Suggestions[0])
		}
		fmt.Fprintf(&msg, "  - Run: plenty endpoints %s\n", refineErr.Endpoint)

	case errors.As(err, &pageErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Narrow the listing with --refine or a shorter date range\n")
		msg.WriteString("  - Raise the bound with --max-pages\n")

	case errors.As(err, &tmplErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", err)
		msg.WriteString("Nothing was sent to the PlentyMarkets system.\n")

	case errors.As(err, &remoteErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", remoteErr.StatusCode, string(remoteErr.Body))
		msg.WriteString(suggestionsForStatusCode(remoteErr.StatusCode))

	case errors.As(err, &we):
		fmt.Fprintf(&msg, "Error: %s\n", err)
		if we.res.Error == api.WriteRemoteRejected {
			msg.WriteString("\n")
			msg.WriteString(suggestionsForStatusCode(we.res.Status))
		}

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the base URL: plenty auth status\n")
		msg.WriteString("  - Check your network connection\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the spelling of the base URL\n")
		msg.WriteString("  - Verify your DNS settings\n")

	case strings.Contains(err.Error(), "certificate"):
		msg.WriteString("TLS certificate error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the server's SSL certificate\n")
		msg.WriteString("  - Ensure the base URL uses https://\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --debug to see the full request\n")

	case 401:
		suggestions.WriteString("  - The access token was rejected\n")
		suggestions.WriteString("  - Run: plenty auth login\n")

	case 403:
		suggestions.WriteString("  - The back office user lacks the REST API right for this call\n")
		suggestions.WriteString("  - Check the user's rights in the user settings\n")

	case 404:
		suggestions.WriteString("  - The resource doesn't exist\n")
		suggestions.WriteString("  - Check the ID is correct\n")

	case 422:
		suggestions.WriteString("  - Validation failed\n")
		suggestions.WriteString("  - Check your input values\n")

	case 429:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error on the PlentyMarkets side\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}

// ExitWithError prints error with suggestions and exits
func ExitWithError(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprint(os.Stderr, HandleError(err))
	os.Exit(ExitCode(err))
}
