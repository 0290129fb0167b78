package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/dryrun"
)

func newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item", "i"},
		Short:   "List, create and update items",
	}
	cmd.AddCommand(newItemsListCmd())
	cmd.AddCommand(newItemsCreateCmd())
	cmd.AddCommand(newItemsUpdateCmd())
	cmd.AddCommand(newItemsImageAvailabilityCmd())
	return cmd
}

func newItemsListCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List items",
		Example: strings.TrimSpace(`
  plenty items list --refine name=shirt --lang de
  plenty items list --since 2024-01-01 --with variations,itemImages -o json`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := lf.params()
			if err != nil {
				return err
			}
			return runList(cmd, func(ctx context.Context, c *api.Client) ([]api.Record, error) {
				return c.Items().List(ctx, p)
			})
		}),
	}
	addListFlags(cmd, &lf, api.EndpointItems, listOptions{since: true, lang: true})
	return cmd
}

// variationFlags build a variation payload from flags or a payload file.
type variationFlags struct {
	file       string
	name       string
	number     string
	categories []int
	unitID     int
	content    int
	attributes []string
}

var variationKeys = []string{
	"itemId", "number", "name", "isMain", "variationCategories", "unit", "variationAttributeValues",
}

func (vf *variationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&vf.file, "file", "f", "", "JSON or YAML payload ('-' for stdin); other flags are ignored")
	cmd.Flags().StringVar(&vf.name, "name", "", "Variation name")
	cmd.Flags().StringVar(&vf.number, "number", "", "Variation number")
	cmd.Flags().IntSliceVar(&vf.categories, "category", nil, "Category ID (repeatable)")
	cmd.Flags().IntVar(&vf.unitID, "unit", 0, "Unit ID")
	cmd.Flags().IntVar(&vf.content, "content", 0, "Unit content")
	cmd.Flags().StringArrayVar(&vf.attributes, "attribute", nil, "Attribute value as attributeId:valueId (repeatable)")
}

func (vf *variationFlags) fromFlags() (api.NewVariation, error) {
	v := api.NewVariation{Name: vf.name, Number: vf.number}
	for _, id := range vf.categories {
		v.VariationCategories = append(v.VariationCategories, api.CategoryRef{CategoryID: id})
	}
	if vf.unitID > 0 || vf.content > 0 {
		v.Unit = &api.Unit{UnitID: vf.unitID, Content: vf.content}
	}
	for _, pair := range vf.attributes {
		attr, value, ok := strings.Cut(pair, ":")
		attrID, aerr := strconv.Atoi(strings.TrimSpace(attr))
		valueID, verr := strconv.Atoi(strings.TrimSpace(value))
		if !ok || aerr != nil || verr != nil {
			return api.NewVariation{}, fmt.Errorf("invalid --attribute %q: expected attributeId:valueId", pair)
		}
		v.VariationAttributeValues = append(v.VariationAttributeValues, api.AttributeValueRef{AttributeID: attrID, ValueID: valueID})
	}
	return v, nil
}

func (vf *variationFlags) variation(cmd *cobra.Command) (api.NewVariation, error) {
	if vf.file == "" {
		return vf.fromFlags()
	}
	payload, err := readPayloadFile(cmd, vf.file)
	if err != nil {
		return api.NewVariation{}, err
	}
	var v api.NewVariation
	extra, err := decodePayload(payload, &v, variationKeys...)
	if err != nil {
		return api.NewVariation{}, err
	}
	v.Extra = extra
	return v, nil
}

func newItemsCreateCmd() *cobra.Command {
	var (
		vf           variationFlags
		manufacturer int
		itemType     string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item with its main variation",
		Example: strings.TrimSpace(`
  plenty items create --name "Shirt" --category 12 --unit 1 --content 1
  plenty items create --file item.yaml`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			item, err := buildNewItem(cmd, &vf, manufacturer, itemType)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "create",
				Resource:  "item",
				Requests:  []dryrun.Request{{Method: "POST", Path: "/rest/items", Body: item}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Items().Create(ctx, item)
			})
		}),
	}
	vf.register(cmd)
	cmd.Flags().IntVar(&manufacturer, "manufacturer", 0, "Manufacturer ID")
	cmd.Flags().StringVar(&itemType, "type", "", "Item type (e.g. default)")
	return cmd
}

func buildNewItem(cmd *cobra.Command, vf *variationFlags, manufacturer int, itemType string) (api.NewItem, error) {
	if vf.file != "" {
		payload, err := readPayloadFile(cmd, vf.file)
		if err != nil {
			return api.NewItem{}, err
		}
		var item api.NewItem
		extra, err := decodePayload(payload, &item, "manufacturerId", "itemType", "variations")
		if err != nil {
			return api.NewItem{}, err
		}
		item.Extra = extra
		return item, nil
	}
	v, err := vf.fromFlags()
	if err != nil {
		return api.NewItem{}, err
	}
	v.IsMain = true
	return api.NewItem{
		ManufacturerID: manufacturer,
		ItemType:       itemType,
		Variations:     []api.NewVariation{v},
	}, nil
}

// fieldFlags collect the changed fields of an update.
type fieldFlags struct {
	set  []string
	file string
}

func (ff *fieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&ff.set, "set", nil, "Field as key=value; JSON values keep their type (repeatable)")
	cmd.Flags().StringVarP(&ff.file, "file", "f", "", "JSON or YAML object of fields ('-' for stdin)")
}

func (ff *fieldFlags) fields(cmd *cobra.Command) (map[string]any, error) {
	fields := map[string]any{}
	if ff.file != "" {
		payload, err := readPayloadFile(cmd, ff.file)
		if err != nil {
			return nil, err
		}
		fields = payload
	}
	set, err := parseAssignments(ff.set)
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		fields[k] = v
	}
	return fields, nil
}

func newItemsUpdateCmd() *cobra.Command {
	var ff fieldFlags
	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Update fields of an item",
		Example: strings.TrimSpace(`
  plenty items update 1200 --set manufacturerId=4 --set flagOne=1`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			itemID, err := parsePositiveID("item ID", args[0])
			if err != nil {
				return err
			}
			fields, err := ff.fields(cmd)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  fmt.Sprintf("item %d", itemID),
				Requests:  []dryrun.Request{{Method: "PUT", Path: fmt.Sprintf("/rest/items/%d", itemID), Body: fields}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Items().Update(ctx, itemID, fields)
			})
		}),
	}
	ff.register(cmd)
	return cmd
}

func parseImageTarget(value string) (api.ImageTarget, error) {
	typ, rawID, ok := strings.Cut(value, ":")
	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if !ok || err != nil {
		return api.ImageTarget{}, fmt.Errorf("invalid --target %q: expected type:id, e.g. marketplace:102", value)
	}
	return api.ImageTarget{Type: strings.ToLower(strings.TrimSpace(typ)), ID: id}, nil
}

func newItemsImageAvailabilityCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:     "image-availability <item-id> <image-id>",
		Aliases: []string{"image"},
		Short:   "Make an item image available for a marketplace, client or listing",
		Example: strings.TrimSpace(`
  plenty items image-availability 1200 55 --target marketplace:102
  plenty items image-availability 1200 55 --target mandant:41614`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			itemID, err := parsePositiveID("item ID", args[0])
			if err != nil {
				return err
			}
			imageID, err := parsePositiveID("image ID", args[1])
			if err != nil {
				return err
			}
			t, err := parseImageTarget(target)
			if err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "set availability of",
				Resource:  fmt.Sprintf("image %d", imageID),
				Requests: []dryrun.Request{{
					Method: "POST",
					Path:   fmt.Sprintf("/rest/items/%d/images/%d/availabilities", itemID, imageID),
					Body:   map[string]any{"imageId": imageID, "type": t.Type, "value": strconv.Itoa(t.ID)},
				}},
			}); ok || err != nil {
				return err
			}
			return runWrite(cmd, func(ctx context.Context, c *api.Client) (*api.WriteResult, error) {
				return c.Items().SetImageAvailability(ctx, itemID, imageID, t)
			})
		}),
	}
	cmd.Flags().StringVar(&target, "target", "", "Target as type:id ("+strings.Join(api.ImageTargets, "|")+")")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
