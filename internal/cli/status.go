package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
	"github.com/princespaghetti/certfetch/internal/registry"
	"github.com/princespaghetti/certfetch/internal/store"
)

var (
	statusDir  string
	statusJSON bool
)

// statusCmd represents the status command.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the state of the bundle directory",
	Long: `Display what has been fetched into the bundle directory without making
network connections.

Shows, per configured bundle: whether a file is present, its size, and
when it was last fetched according to the manifest.

Examples:
  certfetch status
  certfetch status --json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusDir, "dir", store.DefaultDir, "Directory holding fetched bundles")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
}

// BundleStatus describes the local state of one configured bundle.
type BundleStatus struct {
	Name      string    `json:"name"`
	Filename  string    `json:"filename"`
	Present   bool      `json:"present"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	SHA256    string    `json:"sha256,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// StatusOutput is the structured output of the status command.
type StatusOutput struct {
	Dir     string         `json:"dir"`
	Bundles []BundleStatus `json:"bundles"`
}

// collectStatus merges the registry, the manifest, and the files on disk.
// The manifest is advisory; a bundle present on disk but absent from the
// manifest is still reported as present.
func collectStatus(st *store.Store) StatusOutput {
	out := StatusOutput{Dir: st.Dir()}

	manifest, err := st.ReadManifest()
	if err != nil {
		manifest = store.NewManifest()
	}

	for _, d := range registry.All() {
		status := BundleStatus{
			Name:     d.Name,
			Filename: d.Filename,
			Present:  st.BundleExists(d.Filename),
		}
		if status.Present {
			status.SizeBytes = st.BundleSize(d.Filename)
		}
		if record, ok := manifest.Bundles[d.Name]; ok {
			status.SHA256 = record.SHA256
			status.FetchedAt = record.FetchedAt
		}
		out.Bundles = append(out.Bundles, status)
	}

	return out
}

func runStatus(cmd *cobra.Command, args []string) error {
	st := store.NewStore(statusDir)
	out := collectStatus(st)

	if statusJSON {
		if err := JSON(out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(certerrors.ExitGeneralError)
		}
		return nil
	}

	Info("Bundle directory: %s", out.Dir)
	fmt.Println()

	for _, b := range out.Bundles {
		if !b.Present {
			Info("%s %s: not fetched", StatusIcon("absent"), b.Name)
			continue
		}

		Info("%s %s", StatusIcon("ok"), b.Name)
		Field("file", b.Filename)
		Field("size", FormatBytes(b.SizeBytes))
		if !b.FetchedAt.IsZero() {
			Field("fetched", b.FetchedAt.Format("2006-01-02 15:04:05 MST"))
		}
		if b.SHA256 != "" {
			Field("sha256", b.SHA256)
		}
		fmt.Println()
	}

	return nil
}
