package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
	"github.com/princespaghetti/certfetch/internal/fetcher"
	"github.com/princespaghetti/certfetch/internal/registry"
	"github.com/princespaghetti/certfetch/internal/store"
)

var (
	verifyDir  string
	verifyJSON bool
)

// verifyCmd represents the verify command.
var verifyCmd = &cobra.Command{
	Use:   "verify [bundle...]",
	Short: "Re-verify bundles already on disk",
	Long: `Re-hash bundles in the output directory and compare them against the
pinned SHA-256 digests. No network connections are made.

Bundles that have not been fetched are reported as absent and do not
fail the check. A present bundle whose digest does not match its pin
fails the command with exit code 3.

Examples:
  certfetch verify
  certfetch verify aws-rds
  certfetch verify --dir /etc/ssl/cloud --json`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyDir, "dir", store.DefaultDir, "Directory holding fetched bundles")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Output in JSON format")
}

// Verification states for a bundle on disk.
const (
	VerifyOK       = "ok"
	VerifyAbsent   = "absent"
	VerifyMismatch = "mismatch"
)

// VerifyResult is the verification outcome for one bundle.
type VerifyResult struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// verifyBundles checks each descriptor's on-disk file against its pin.
func verifyBundles(st *store.Store, descriptors []registry.Descriptor) []VerifyResult {
	results := make([]VerifyResult, 0, len(descriptors))

	for _, d := range descriptors {
		result := VerifyResult{Name: d.Name, Filename: d.Filename}

		if !st.BundleExists(d.Filename) {
			result.Status = VerifyAbsent
			results = append(results, result)
			continue
		}

		data, err := st.ReadBundle(d.Filename)
		if err != nil {
			result.Status = VerifyMismatch
			result.Expected = d.SHA256
			results = append(results, result)
			continue
		}

		if err := fetcher.VerifyDigest(data, d.SHA256); err != nil {
			result.Status = VerifyMismatch
			result.Expected = d.SHA256
			var mismatch *fetcher.DigestMismatchError
			if errors.As(err, &mismatch) {
				result.Actual = mismatch.Actual
			}
			results = append(results, result)
			continue
		}

		result.Status = VerifyOK
		results = append(results, result)
	}

	return results
}

func runVerify(cmd *cobra.Command, args []string) error {
	descriptors, err := resolveDescriptors(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(certerrors.ExitConfigError)
	}

	st := store.NewStore(verifyDir)
	results := verifyBundles(st, descriptors)

	mismatches := 0
	for _, r := range results {
		if r.Status == VerifyMismatch {
			mismatches++
		}
	}

	if verifyJSON {
		if err := JSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(certerrors.ExitGeneralError)
		}
	} else {
		for _, r := range results {
			switch r.Status {
			case VerifyOK:
				Success("%s: verified (%s)", r.Name, st.BundlePath(r.Filename))
			case VerifyAbsent:
				Info("%s %s: not fetched", StatusIcon(r.Status), r.Name)
			case VerifyMismatch:
				Failure("%s: digest mismatch", r.Name)
				fmt.Fprintf(os.Stderr, "  expected: %s\n", r.Expected)
				if r.Actual != "" {
					fmt.Fprintf(os.Stderr, "  actual:   %s\n", r.Actual)
				}
			}
		}
	}

	if mismatches > 0 {
		fmt.Fprintf(os.Stderr, "%d bundle(s) failed verification.\n", mismatches)
		os.Exit(certerrors.ExitVerifyError)
	}

	return nil
}
