package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
	"github.com/princespaghetti/certfetch/internal/registry"
)

var listJSON bool

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured certificate bundles",
	Long: `List the configured certificate bundles with their source URLs,
destination filenames, and pinned SHA-256 digests.

The table is fixed at build time; there is nothing to configure at
runtime.

Examples:
  certfetch list
  certfetch list --json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}

func runList(cmd *cobra.Command, args []string) error {
	descriptors := registry.All()

	if listJSON {
		if err := JSON(descriptors); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(certerrors.ExitGeneralError)
		}
		return nil
	}

	table := NewTable("NAME", "FILENAME", "URL")
	for _, d := range descriptors {
		table.AddRow(d.Name, d.Filename, d.URL)
	}
	table.Print()

	fmt.Println()
	for _, d := range descriptors {
		Field(d.Name, d.SHA256)
	}

	return nil
}
