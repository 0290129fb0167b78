package cmd

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/config"
	"github.com/initBasti/plenty-cli/internal/credentials"
)

const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
)

var exitByErrorCode = map[api.ErrorCode]int{
	api.ErrUnauthorized: exitAuth,
	api.ErrForbidden:    exitForbidden,
	api.ErrNotFound:     exitNotFound,
	api.ErrRateLimited:  exitRateLimited,
	api.ErrServerError:  exitServer,
	api.ErrCircuitOpen:  exitServer,
	api.ErrTimeout:      exitNetwork,
	api.ErrBadRequest:   exitUsage,
	api.ErrValidation:   exitUsage,
	api.ErrConflict:     exitUsage,
	api.ErrPageLimit:    exitUsage,
}

// errors meaning no usable login exists
var authSentinels = []error{config.ErrNotConfigured, credentials.ErrNoPassword, config.ErrPassphrase}

// cobra and local argument checks phrase usage mistakes like these
var usagePhrases = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"flag needs an argument",
	"requires at least",
	"requires exactly",
	"accepts ",
	"invalid argument",
	"invalid value",
	"must be",
	"is required",
	"required flag",
	"missing",
}

var networkPhrases = []string{"connection refused", "no such host", "certificate", "i/o timeout"}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	var we *writeError
	if errors.As(err, &we) {
		return writeExitCode(we.res)
	}
	for _, sentinel := range authSentinels {
		if errors.Is(err, sentinel) {
			return exitAuth
		}
	}
	if code, ok := exitByErrorCode[api.StructuredErrorFromError(err).Code]; ok {
		return code
	}
	switch {
	case containsAny(err.Error(), usagePhrases):
		return exitUsage
	case isNetworkError(err):
		return exitNetwork
	}
	return exitGeneric
}

// writeExitCode treats local validation failures as usage errors and
// remote rejections by their status.
func writeExitCode(res *api.WriteResult) int {
	switch {
	case res == nil || res.OK():
		return exitOK
	case res.Error != api.WriteRemoteRejected:
		return exitUsage
	}
	if code, ok := exitByErrorCode[api.ErrorCodeFromStatus(res.Status)]; ok {
		return code
	}
	return exitGeneric
}

func isNetworkError(err error) bool {
	var (
		netErr net.Error
		urlErr *url.Error
	)
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return true
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		return true
	}
	return containsAny(err.Error(), networkPhrases)
}

func containsAny(msg string, phrases []string) bool {
	msg = strings.ToLower(msg)
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
