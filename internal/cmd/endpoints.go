package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/resolve"
)

type endpointInfo struct {
	Name       string   `json:"name"`
	Refine     []string `json:"refine"`
	Additional []string `json:"additional"`
}

func newEndpointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoints [endpoint]",
		Short: "Show the refine and --with keys each listing accepts",
		Example: strings.TrimSpace(`
  plenty endpoints
  plenty endpoints orders -o json`),
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return endpointNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			selected := api.Endpoints()
			if len(args) == 1 {
				e, err := lookupEndpoint(args[0])
				if err != nil {
					return err
				}
				selected = []api.Endpoint{e}
			}
			infos := make([]endpointInfo, 0, len(selected))
			for _, e := range selected {
				infos = append(infos, endpointInfo{
					Name:       string(e),
					Refine:     nonNil(api.RefineKeys(e)),
					Additional: nonNil(api.AdditionalKeys(e)),
				})
			}
			if isJSON(cmd) || flags.Query != "" {
				return printOutput(cmd, infos)
			}
			if len(infos) == 1 {
				return printEndpointDetail(cmd, infos[0])
			}
			f := newFormatter(cmd)
			f.StartTable([]string{"ENDPOINT", "REFINE", "WITH"})
			for _, info := range infos {
				f.Row(info.Name, fmt.Sprint(len(info.Refine)), fmt.Sprint(len(info.Additional)))
			}
			return f.EndTable()
		}),
	}
	return cmd
}

func endpointNames() []string {
	names := make([]string, 0, len(api.Endpoints()))
	for _, e := range api.Endpoints() {
		names = append(names, string(e))
	}
	return names
}

func lookupEndpoint(name string) (api.Endpoint, error) {
	for _, e := range api.Endpoints() {
		if string(e) == strings.ToLower(name) {
			return e, nil
		}
	}
	msg := fmt.Sprintf("unknown endpoint %q", name)
	if s := resolve.Closest(name, endpointNames()); s != "" {
		msg += fmt.Sprintf("\n\nDid you mean '%s'?", s)
	}
	return "", &api.InvalidParameterError{Name: "endpoint", Reason: msg}
}

func printEndpointDetail(cmd *cobra.Command, info endpointInfo) error {
	out := stdout(cmd)
	_, _ = fmt.Fprintf(out, "%s\n\n", info.Name)
	_, _ = fmt.Fprintln(out, "Refine keys (--refine key=value):")
	printKeyList(cmd, info.Refine)
	_, _ = fmt.Fprintln(out, "\nAdditional data (--with):")
	printKeyList(cmd, info.Additional)
	return nil
}

func printKeyList(cmd *cobra.Command, keys []string) {
	out := stdout(cmd)
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(out, "  (none)")
		return
	}
	for _, k := range keys {
		_, _ = fmt.Fprintf(out, "  %s\n", k)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
