package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

var newUpdateChecker = update.NewChecker

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Example: "  plenty version --check",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var res *update.Result
			if check {
				var err error
				res, err = newUpdateChecker().Check(cmdContext(cmd), version)
				if err != nil {
					return err
				}
			}

			if isJSON(cmd) {
				out := map[string]any{
					"version": version,
					"go":      runtime.Version(),
				}
				if res != nil {
					out["update"] = res
				}
				return printOutput(cmd, out)
			}
			if _, err := fmt.Fprintf(stdout(cmd), "plenty-cli version %s (%s)\n", version, runtime.Version()); err != nil {
				return err
			}
			switch {
			case res == nil:
			case res.UpdateAvailable:
				_, _ = fmt.Fprintf(stdout(cmd), "Update available: %s\n  %s\n", res.Latest, res.URL)
			default:
				_, _ = fmt.Fprintf(stdout(cmd), "Up to date (latest release %s).\n", res.Latest)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check whether a newer release is published")
	return cmd
}
