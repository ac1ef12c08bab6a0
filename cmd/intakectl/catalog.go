package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/northgate-advisors/intake-backend/internal/catalog"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the form catalog",
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Load a catalog file and list its forms",
	Long: `Load a form catalog YAML file the way the server does and list the
resulting forms. Without a file the built-in catalog is shown.

Example:
  intakectl catalog check forms.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := catalog.Default()
		if len(args) == 1 {
			var err error
			if reg, err = catalog.LoadFromFile(args[0]); err != nil {
				fail("Invalid catalog: %v", err)
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tFORM NAME\tRATE LIMITED\tCRM\tCONFIRMATION\tRECIPIENTS")
		for _, f := range reg.All() {
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%t\t%d\n", f.Slug, f.FormName, f.RateLimited, f.CRMSync, f.SendConfirmation, len(f.Recipients))
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
}
