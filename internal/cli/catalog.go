package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the activity catalog",
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a catalog and list its activities",
	Long: `Check loads the activity catalog, reports duplicate or missing URIs and
prints the activities and area table it contains.

Example:
  rtrarchive catalog check
  rtrarchive catalog check hdsr.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("run.catalog")
		if path == "" {
			path = model.DefaultConfig().Run.Catalog
		}
		if len(args) == 1 {
			path = args[0]
		}

		catalog, err := model.LoadCatalog(path)
		if err != nil {
			return err
		}

		renderCatalog(cmd.OutOrStdout(), catalog)

		if err := catalog.Validate(); err != nil {
			return fmt.Errorf("catalog %s is invalid: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d activities, %d areas\n", path, len(catalog.Activities), len(catalog.Areas))
		return nil
	},
}

// renderCatalog prints activities in catalog order, then the area table by key
func renderCatalog(w io.Writer, catalog *model.Catalog) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Name", "URI", "Group", "Rule reference"})
	for i, a := range catalog.Activities {
		t.AppendRow(table.Row{i + 1, a.Name, a.URI, a.Group, a.RuleReference})
	}
	t.Render()

	if len(catalog.Areas) == 0 {
		return
	}

	keys := make([]string, 0, len(catalog.Areas))
	for k := range catalog.Areas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	areas := table.NewWriter()
	areas.SetOutputMirror(w)
	areas.SetStyle(table.StyleLight)
	areas.AppendHeader(table.Row{"Key", "Area"})
	for _, k := range keys {
		areas.AppendRow(table.Row{k, catalog.Areas[k]})
	}
	areas.Render()
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
}
