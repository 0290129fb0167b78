package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/cli"
)

// listFlags are the filter flags shared by listing commands.
type listFlags struct {
	refine []string
	with   []string
	since  string
	lang   string
}

type listOptions struct {
	since bool
	lang  bool
}

// addListFlags registers the filters the endpoint accepts.
func addListFlags(cmd *cobra.Command, lf *listFlags, e api.Endpoint, opts listOptions) {
	if keys := api.RefineKeys(e); len(keys) > 0 {
		cmd.Flags().StringArrayVarP(&lf.refine, "refine", "r", nil, "Filter as key=value (repeatable; see 'plenty endpoints "+string(e)+"')")
		completions := make([]string, len(keys))
		for i, k := range keys {
			completions[i] = k + "="
		}
		registerStaticCompletions(cmd, "refine", completions)
	}
	if keys := api.AdditionalKeys(e); len(keys) > 0 {
		cmd.Flags().StringSliceVarP(&lf.with, "with", "w", nil, "Related objects to embed (comma separated)")
		registerStaticCompletions(cmd, "with", keys)
	}
	if opts.since {
		cmd.Flags().StringVar(&lf.since, "since", "", "Only records changed since this date (YYYY-MM-DD[THH:MM], '7d ago', 'yesterday')")
	}
	if opts.lang {
		cmd.Flags().StringVar(&lf.lang, "lang", "", "Language of item texts (e.g. de, en)")
		registerStaticCompletions(cmd, "lang", api.Languages())
	}
}

func (lf *listFlags) params() (api.ListParams, error) {
	refine, err := api.ParseRefine(lf.refine)
	if err != nil {
		return api.ListParams{}, err
	}
	since, err := resolveDate(lf.since)
	if err != nil {
		return api.ListParams{}, err
	}
	return api.ListParams{
		Refine:     refine,
		Additional: lf.with,
		LastUpdate: since,
		Lang:       lf.lang,
		PageSize:   flags.PageSize,
	}, nil
}

// resolveDate expands relative dates like "7d ago" in the configured time
// zone. Absolute dates pass through to the API date parser.
func resolveDate(value string) (string, error) {
	loc := location
	if loc == nil {
		loc = time.Local
	}
	return cli.ResolveDate(value, time.Now().In(loc))
}

// runList fetches a listing with a fresh client and prints it.
func runList(cmd *cobra.Command, fetch func(ctx context.Context, client *api.Client) ([]api.Record, error)) error {
	client, done, err := getClient(cmd)
	if err != nil {
		return err
	}
	defer done()

	records, err := fetch(cmdContext(cmd), client)
	if err != nil {
		return err
	}
	return printRecords(cmd, records)
}

// runWrite sends a write with a fresh client and prints the result.
func runWrite(cmd *cobra.Command, send func(ctx context.Context, client *api.Client) (*api.WriteResult, error)) error {
	client, done, err := getClient(cmd)
	if err != nil {
		return err
	}
	defer done()

	res, err := send(cmdContext(cmd), client)
	if err != nil {
		return err
	}
	return printWriteResult(cmd, res)
}
