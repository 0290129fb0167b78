package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/dryrun"
)

func newAttributesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attributes",
		Aliases: []string{"attribute", "attr"},
		Short:   "List and create attributes, values and their names",
	}
	cmd.AddCommand(newAttributesListCmd())
	cmd.AddCommand(newAttributesCreateCmd())
	cmd.AddCommand(newAttributesAddNameCmd())
	cmd.AddCommand(newAttributesAddValueCmd())
	cmd.AddCommand(newAttributesAddValueNameCmd())
	return cmd
}

func newAttributesListCmd() *cobra.Command {
	var (
		lf           listFlags
		variationMap bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List attributes",
		Long: strings.TrimSpace(`
List attributes. With --variation-map every attribute value gets a
"linked_variations" field with the IDs of the variations carrying it.`),
		Example: strings.TrimSpace(`
  plenty attributes list --with names,values
  plenty attributes list --variation-map -o json`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			since, err := resolveDate(lf.since)
			if err != nil {
				return err
			}
			p := api.AttributesParams{
				Additional:   lf.with,
				LastUpdate:   since,
				PageSize:     flags.PageSize,
				VariationMap: variationMap,
			}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Attributes().List(ctx, p)
			})
		}),
	}
	addListFlags(cmd, &lf, api.EndpointAttributes, listOptions{since: true})
	cmd.Flags().BoolVar(&variationMap, "variation-map", false, "Attach the IDs of linked variations to every value")
	return cmd
}

func newAttributesCreateCmd() *cobra.Command {
	var a api.NewAttribute
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an attribute",
		Example: strings.TrimSpace(`
  plenty attributes create --backend-name color --position 2 --groupable --selection dropdown`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  fmt.Sprintf("attribute %q", a.BackendName),
				Requests:  []dryrun.Request{{Method: "POST", Path: "/rest/items/attributes", Body: a}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Attributes().Create(ctx, a)
			})
		}),
	}
	cmd.Flags().StringVar(&a.BackendName, "backend-name", "", "Internal attribute name")
	cmd.Flags().IntVar(&a.Position, "position", 0, "Sort position")
	cmd.Flags().BoolVar(&a.IsGroupable, "groupable", false, "Group variations by this attribute in the online store")
	cmd.Flags().StringVar(&a.TypeOfSelectionInOnlineStore, "selection", "", "Selection type in the online store: dropdown|image|box")
	registerStaticCompletions(cmd, "selection", []string{"dropdown", "image", "box"})
	return cmd
}

type nameFlags struct {
	lang string
	name string
}

func (nf *nameFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&nf.lang, "lang", "", "Language of the name (e.g. de, en)")
	cmd.Flags().StringVar(&nf.name, "name", "", "Translated name")
	registerStaticCompletions(cmd, "lang", api.Languages())
}

func newAttributesAddNameCmd() *cobra.Command {
	var nf nameFlags
	cmd := &cobra.Command{
		Use:     "add-name <attribute-id>",
		Short:   "Add a translated name to an attribute",
		Example: "  plenty attributes add-name 3 --lang de --name Farbe",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			attributeID, err := parsePositiveID("attribute ID", args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "add name to",
				Resource:  fmt.Sprintf("attribute %d", attributeID),
				Requests: []dryrun.Request{{
					Method: "POST",
					Path:   fmt.Sprintf("/rest/items/attributes/%d/names", attributeID),
					Body:   map[string]any{"attributeId": attributeID, "lang": nf.lang, "name": nf.name},
				}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Attributes().CreateName(ctx, attributeID, nf.lang, nf.name)
			})
		}),
	}
	nf.register(cmd)
	return cmd
}

func newAttributesAddValueCmd() *cobra.Command {
	var v api.NewAttributeValue
	cmd := &cobra.Command{
		Use:     "add-value <attribute-id>",
		Short:   "Add a value to an attribute",
		Example: "  plenty attributes add-value 3 --backend-name red --position 1",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			attributeID, err := parsePositiveID("attribute ID", args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "add value to",
				Resource:  fmt.Sprintf("attribute %d", attributeID),
				Requests: []dryrun.Request{{
					Method: "POST",
					Path:   fmt.Sprintf("/rest/items/attributes/%d/values", attributeID),
					Body:   v,
				}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Attributes().CreateValue(ctx, attributeID, v)
			})
		}),
	}
	cmd.Flags().StringVar(&v.BackendName, "backend-name", "", "Internal value name")
	cmd.Flags().IntVar(&v.Position, "position", 0, "Sort position")
	return cmd
}

func newAttributesAddValueNameCmd() *cobra.Command {
	var nf nameFlags
	cmd := &cobra.Command{
		Use:     "add-value-name <value-id>",
		Short:   "Add a translated name to an attribute value",
		Example: "  plenty attributes add-value-name 17 --lang en --name Red",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			valueID, err := parsePositiveID("value ID", args[0])
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "add name to",
				Resource:  fmt.Sprintf("attribute value %d", valueID),
				Requests: []dryrun.Request{{
					Method: "POST",
					Path:   fmt.Sprintf("/rest/items/attribute_values/%d/names", valueID),
					Body:   map[string]any{"valueId": valueID, "lang": nf.lang, "name": nf.name},
				}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Attributes().CreateValueName(ctx, valueID, nf.lang, nf.name)
			})
		}),
	}
	nf.register(cmd)
	return cmd
}
