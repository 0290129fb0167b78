package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/dryrun"
	"github.com/initBasti/plenty-cli/internal/iocontext"
	"github.com/initBasti/plenty-cli/internal/outfmt"
	"github.com/initBasti/plenty-cli/internal/validation"
)

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmdContext(cmd))
}

func newFormatter(cmd *cobra.Command) *outfmt.Formatter {
	streams := iocontext.From(cmdContext(cmd))
	return outfmt.NewFormatter(cmdContext(cmd), streams.Out, streams.Err)
}

// printOutput renders v in the output mode of the command.
func printOutput(cmd *cobra.Command, v any) error {
	return newFormatter(cmd).Output(v)
}

// printRecords renders a listing in the --format selected on the root command.
func printRecords(cmd *cobra.Command, records []api.Record) error {
	format, err := api.ParseFormat(flags.Format)
	if err != nil {
		return err
	}
	if records == nil {
		records = []api.Record{}
	}
	data, err := api.Normalize(records, format)
	if err != nil {
		return err
	}
	return printOutput(cmd, data)
}

// printWriteResult renders the outcome of a create or update call. A failed
// write is returned as an error so the exit code reflects it.
func printWriteResult(cmd *cobra.Command, res *api.WriteResult) error {
	if res == nil {
		return errors.New("no result returned")
	}
	if isJSON(cmd) {
		if err := printOutput(cmd, res); err != nil {
			return err
		}
		if !res.OK() {
			return &handledError{err: &writeError{res: res}, exitCode: writeExitCode(res)}
		}
		return nil
	}
	if !res.OK() {
		if res.Data != nil {
			printErr(cmd, "Created before the failure:\n")
			if err := printOutput(cmd, res.Data); err != nil {
				return err
			}
		}
		return &writeError{res: res}
	}
	if res.Irreversible {
		printErr(cmd, "Stock booked. This cannot be undone remotely.\n")
	}
	if rec := res.Record(); rec != nil {
		return printOutput(cmd, rec)
	}
	return printOutput(cmd, res.Data)
}

func stdout(cmd *cobra.Command) io.Writer {
	return iocontext.From(cmdContext(cmd)).Out
}

func printErr(cmd *cobra.Command, format string, args ...any) {
	streams := iocontext.From(cmdContext(cmd))
	_, _ = fmt.Fprintf(streams.Err, format, args...)
}

// writeError is a write call that the client refused or the remote rejected.
type writeError struct {
	res *api.WriteResult
}

func (e *writeError) Error() string {
	switch e.res.Error {
	case api.WriteMissingParameter:
		return fmt.Sprintf("missing parameter: %s", strings.Join(e.res.Missing, ", "))
	case api.WriteRemoteRejected:
		return fmt.Sprintf("remote rejected the request (status %d): %s", e.res.Status, string(e.res.Remote))
	case api.WriteInvalidLanguage:
		return fmt.Sprintf("invalid language (valid: %s)", strings.Join(api.Languages(), ", "))
	case api.WriteInvalidTarget:
		return fmt.Sprintf("invalid image target (valid: %s)", strings.Join(api.ImageTargets, ", "))
	default:
		return string(e.res.Error)
	}
}

func maybeDryRun(cmd *cobra.Command, preview *dryrun.Preview) (bool, error) {
	if !dryrun.IsEnabled(cmdContext(cmd)) {
		return false, nil
	}
	if preview == nil {
		preview = &dryrun.Preview{}
	}
	if isJSON(cmd) {
		return true, printOutput(cmd, preview.Payload())
	}
	streams := iocontext.From(cmdContext(cmd))
	return true, preview.Write(streams.Out)
}

type confirmOptions struct {
	Prompt        string
	CancelMessage string
	Force         bool
}

// confirmAction asks for a "y" on stdin unless --yes or Force is set.
// JSON output never prompts.
func confirmAction(cmd *cobra.Command, opts confirmOptions) (bool, error) {
	if flags.Yes || opts.Force {
		return true, nil
	}
	if isJSON(cmd) || flags.NoInput {
		return false, fmt.Errorf("confirmation required: pass --yes")
	}

	streams := iocontext.From(cmdContext(cmd))
	if opts.Prompt != "" {
		_, _ = fmt.Fprint(streams.Err, opts.Prompt)
	}
	response, err := bufio.NewReader(streams.In).ReadString('\n')
	if err != nil && response == "" {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(streams.Err, opts.CancelMessage)
		}
		return false, nil
	}
	switch strings.TrimSpace(strings.ToLower(response)) {
	case "y", "yes":
		return true, nil
	}
	if opts.CancelMessage != "" {
		_, _ = fmt.Fprintln(streams.Err, opts.CancelMessage)
	}
	return false, nil
}

func registerStaticCompletions(cmd *cobra.Command, flagName string, values []string) {
	_ = cmd.RegisterFlagCompletionFunc(flagName, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
}

// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

type aliasBridgeSliceValue struct {
	aliasBridgeValue
	slice pflag.SliceValue
}

func (v *aliasBridgeSliceValue) Append(s string) error     { return v.slice.Append(s) }
func (v *aliasBridgeSliceValue) Replace(ss []string) error { return v.slice.Replace(ss) }
func (v *aliasBridgeSliceValue) GetSlice() []string        { return v.slice.GetSlice() }

// flagAlias registers a hidden alias for an existing flag. Both share the
// same Value.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	bridge := &aliasBridgeValue{Value: f.Value, canonical: f}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		a.Value = &aliasBridgeSliceValue{aliasBridgeValue: *bridge, slice: sv}
	} else {
		a.Value = bridge
	}
	newAnn := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		newAnn[k] = v
	}
	a.Annotations = newAnn
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its hidden
// aliases was explicitly set.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}
	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				found = true
			}
		})
		return found
	}
	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

func parsePositiveID(name, value string) (int, error) {
	return validation.ParsePositiveInt(value, name)
}

// splitCommaList splits "a,b, c" and drops empty entries.
func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntList(name string, values []string) ([]int, error) {
	out := make([]int, 0, len(values))
	for _, v := range values {
		for _, part := range splitCommaList(v) {
			id, err := parsePositiveID(name, part)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
	}
	return out, nil
}

// parseAssignments turns key=value pairs into a field map. Values that parse
// as JSON keep their type; anything else is sent as a string.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q: expected key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}

// readPayloadFile reads a JSON or YAML object from path, or stdin for "-".
func readPayloadFile(cmd *cobra.Command, path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(iocontext.From(cmdContext(cmd)).In)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // user supplied payload path
	}
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		if yerr := yaml.Unmarshal(data, &payload); yerr != nil {
			return nil, fmt.Errorf("payload is neither a JSON nor a YAML object: %w", err)
		}
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("payload %q is empty", path)
	}
	return payload, nil
}

// decodePayload converts a generic payload into dst through its JSON tags
// and returns the keys dst did not consume.
func decodePayload(payload map[string]any, dst any, known ...string) (map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	extra := make(map[string]any)
	for k, v := range payload {
		if !containsString(known, k) {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// errAlreadyHandled marks an error that was already printed to stderr.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// Cause returns the error the command failed with.
func (e *handledError) Cause() error {
	return e.err
}

// RunE wraps a command function with enhanced error handling.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		var handled *handledError
		if errors.As(err, &handled) {
			return handled
		}
		streams := iocontext.From(cmdContext(cmd))
		if isJSON(cmd) {
			if structured := api.StructuredErrorFromError(err); structured != nil {
				_ = outfmt.WriteJSON(streams.Err, structured)
			} else {
				_ = outfmt.WriteJSON(streams.Err, map[string]string{"error": err.Error()})
			}
		} else {
			_, _ = fmt.Fprint(streams.Err, HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}
