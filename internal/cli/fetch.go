package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
	"github.com/princespaghetti/certfetch/internal/fetcher"
	"github.com/princespaghetti/certfetch/internal/registry"
	"github.com/princespaghetti/certfetch/internal/store"
)

var (
	fetchDir     string
	fetchTimeout time.Duration
)

// fetchCmd represents the fetch command.
var fetchCmd = &cobra.Command{
	Use:   "fetch [bundle...]",
	Short: "Download and verify certificate bundles",
	Long: `Download certificate bundles from their provider URLs, verify each
against its pinned SHA-256 digest, and write verified bundles into the
output directory.

With no arguments all configured bundles are fetched. Bundle names can
be given to fetch a subset (see 'certfetch list').

Bundles are fetched sequentially. A bundle that fails to download or
does not match its pin is reported and skipped; any file already at its
destination is removed on a digest mismatch. The command succeeds when
at least one bundle was fetched and verified.

Examples:
  certfetch fetch
  certfetch fetch aws-rds
  certfetch fetch --dir /etc/ssl/cloud --timeout 10s`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchDir, "dir", store.DefaultDir, "Directory to write bundles into")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", fetcher.DefaultTimeout, "Per-bundle download timeout")
}

// BundleResult is the outcome of fetching a single bundle.
type BundleResult struct {
	Descriptor registry.Descriptor
	SizeBytes  int64
	Err        error

	// DownloadFailed distinguishes failures of the network transfer
	// itself (transport error, non-200 status, empty body) from
	// verification and persistence failures.
	DownloadFailed bool
}

// FetchReport aggregates the outcome of a fetch run.
type FetchReport struct {
	Results     []BundleResult
	ManifestErr error
}

// Succeeded returns how many bundles were fetched, verified, and written.
func (r *FetchReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// AllFailuresDownload reports whether every bundle in the run failed at
// the download step. False when anything succeeded, failed verification,
// or failed to persist.
func (r *FetchReport) AllFailuresDownload() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Err == nil || !res.DownloadFailed {
			return false
		}
	}
	return true
}

// fetchAll runs the sequential fetch loop over the given descriptors.
// The onResult hook, if non-nil, is invoked after each bundle completes.
// Successes are recorded in the store manifest; a manifest failure is
// reported on the FetchReport but does not fail any bundle, the files
// on disk are the source of truth.
func fetchAll(ctx context.Context, client fetcher.HTTPClient, st *store.Store, descriptors []registry.Descriptor, timeout time.Duration, onResult func(BundleResult)) *FetchReport {
	f := fetcher.NewFetcher(client)
	report := &FetchReport{}

	for _, d := range descriptors {
		result := fetchOne(ctx, f, st, d, timeout)
		report.Results = append(report.Results, result)
		if onResult != nil {
			onResult(result)
		}
	}

	if report.Succeeded() > 0 {
		report.ManifestErr = st.UpdateManifest(ctx, func(m *store.Manifest) error {
			now := time.Now().UTC()
			for _, res := range report.Results {
				if res.Err != nil {
					continue
				}
				m.Bundles[res.Descriptor.Name] = store.BundleRecord{
					Filename:  res.Descriptor.Filename,
					Source:    res.Descriptor.URL,
					SHA256:    res.Descriptor.SHA256,
					SizeBytes: res.SizeBytes,
					FetchedAt: now,
				}
			}
			return nil
		})
	}

	return report
}

// fetchOne downloads, verifies, and persists a single bundle.
func fetchOne(ctx context.Context, f *fetcher.Fetcher, st *store.Store, d registry.Descriptor, timeout time.Duration) BundleResult {
	result := BundleResult{Descriptor: d}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := f.Fetch(reqCtx, d.URL)
	if err != nil {
		// Nothing was written; nothing to clean up
		result.Err = &certerrors.FetchError{Op: "download bundle", Path: d.URL, Err: err}
		result.DownloadFailed = true
		return result
	}

	if err := fetcher.ValidatePEM(data); err != nil {
		_ = st.Discard(d.Filename)
		result.Err = &certerrors.FetchError{Op: "validate bundle", Path: d.URL, Err: err}
		return result
	}

	if err := fetcher.VerifyDigest(data, d.SHA256); err != nil {
		// Remove any stale or partial file at the destination
		_ = st.Discard(d.Filename)
		result.Err = &certerrors.FetchError{Op: "verify bundle", Path: d.URL, Err: err}
		return result
	}

	if err := st.Persist(d.Filename, data); err != nil {
		result.Err = err
		return result
	}

	result.SizeBytes = int64(len(data))
	return result
}

// resolveDescriptors maps command arguments to bundle descriptors,
// defaulting to the full table when no names are given.
func resolveDescriptors(args []string) ([]registry.Descriptor, error) {
	if len(args) == 0 {
		return registry.All(), nil
	}

	descriptors := make([]registry.Descriptor, 0, len(args))
	for _, name := range args {
		d, err := registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	descriptors, err := resolveDescriptors(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'certfetch list' to see the configured bundles\n")
		os.Exit(certerrors.ExitConfigError)
	}

	st := store.NewStore(fetchDir)
	ctx := context.Background()

	report := fetchAll(ctx, nil, st, descriptors, fetchTimeout, func(res BundleResult) {
		d := res.Descriptor
		if res.Err != nil {
			Failure("%s: %v", d.Name, res.Err)
			return
		}
		Success("%s → %s (%s)", d.Name, st.BundlePath(d.Filename), FormatBytes(res.SizeBytes))
	})

	if report.ManifestErr != nil {
		Warning("failed to update manifest: %v", report.ManifestErr)
	}

	succeeded := report.Succeeded()
	if succeeded == 0 {
		fmt.Fprintf(os.Stderr, "No certificate bundles were successfully fetched.\n")
		// A no-argument run always exits 1. For an explicitly named
		// subset where every failure was a download failure, exit with
		// the network code so callers can tell outage from bad pins.
		if len(args) > 0 && report.AllFailuresDownload() {
			os.Exit(certerrors.ExitNetworkError)
		}
		os.Exit(certerrors.ExitGeneralError)
	}

	fmt.Println()
	Info("Fetched %d of %d certificate bundles into %s", succeeded, len(descriptors), st.Dir())

	return nil
}
