package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
)

func newVATCmd() *cobra.Command {
	var countries []string
	cmd := &cobra.Command{
		Use:   "vat",
		Short: "Show the VAT configurations per country",
		Long: strings.TrimSpace(`
Show the VAT configuration IDs and the tax ID registered for each country.
--countries restricts the mapping to the given ISO codes or country IDs.`),
		Example: strings.TrimSpace(`
  plenty vat
  plenty vat --countries DE,AT,1 -o json`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			subset, err := parseCountries(countries)
			if err != nil {
				return err
			}
			client, done, err := getClient(cmd)
			if err != nil {
				return err
			}
			defer done()

			mapping, err := client.Accounting().VATMapping(cmdContext(cmd), subset)
			if err != nil {
				return err
			}
			if isJSON(cmd) || flags.Query != "" {
				return printOutput(cmd, mapping)
			}
			return printVATTable(cmd, mapping)
		}),
	}
	cmd.Flags().StringSliceVar(&countries, "countries", nil, "Country ISO codes or IDs (comma separated)")
	return cmd
}

func parseCountries(values []string) ([]int, error) {
	var ids []int
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if id, err := strconv.Atoi(v); err == nil {
			if id <= 0 {
				return nil, fmt.Errorf("invalid country ID %d", id)
			}
			ids = append(ids, id)
			continue
		}
		id, err := api.CountryID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printVATTable(cmd *cobra.Command, mapping map[string]api.VATEntry) error {
	f := newFormatter(cmd)
	if len(mapping) == 0 {
		f.Empty("No VAT configurations found")
		return nil
	}
	keys := sortedKeys(mapping)
	slices.SortStableFunc(keys, compareCountryIDs)
	f.StartTable([]string{"COUNTRY", "CONFIG", "TAX ID"})
	for _, k := range keys {
		e := mapping[k]
		f.Row(k, strings.Join(e.Config, ","), e.TaxID)
	}
	return f.EndTable()
}

func compareCountryIDs(a, b string) int {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return x - y
}
