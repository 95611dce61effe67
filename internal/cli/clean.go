package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
	"github.com/princespaghetti/certfetch/internal/registry"
	"github.com/princespaghetti/certfetch/internal/store"
)

var (
	cleanDir   string
	cleanForce bool
)

// cleanCmd represents the clean command.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove fetched bundles and the manifest",
	Long: `Remove all fetched bundles, the manifest, and any stray lock or
temporary files from the bundle directory. The directory itself is
left in place.

Use --force to skip the confirmation prompt.

Examples:
  certfetch clean
  certfetch clean --dir /etc/ssl/cloud --force`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&cleanDir, "dir", store.DefaultDir, "Directory holding fetched bundles")
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "Skip confirmation prompt")
}

func runClean(cmd *cobra.Command, args []string) error {
	st := store.NewStore(cleanDir)

	if !cleanForce {
		if !ConfirmPrompt(fmt.Sprintf("Remove all fetched bundles from %s?", st.Dir())) {
			Info("Aborted.")
			return nil
		}
	}

	removed := 0
	for _, d := range registry.All() {
		if !st.BundleExists(d.Filename) {
			continue
		}
		if err := st.Discard(d.Filename); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(certerrors.ExitGeneralError)
		}
		removed++
	}

	if err := st.RemoveManifest(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(certerrors.ExitGeneralError)
	}

	stray, err := st.CleanStray()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(certerrors.ExitGeneralError)
	}

	Success("Removed %d bundle(s) and %d stray file(s) from %s", removed, stray, st.Dir())

	return nil
}
