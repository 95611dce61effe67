package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
	"github.com/princespaghetti/certfetch/internal/fetcher"
	"github.com/princespaghetti/certfetch/internal/registry"
	"github.com/princespaghetti/certfetch/internal/store"
)

// routingClient serves canned responses keyed by URL.
type routingClient struct {
	responses map[string]routedResponse
}

type routedResponse struct {
	status int
	body   []byte
	err    error
}

func (c *routingClient) Do(req *http.Request) (*http.Response, error) {
	resp, ok := c.responses[req.URL.String()]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(bytes.NewReader(nil)),
		}, nil
	}
	if resp.err != nil {
		return nil, resp.err
	}
	status := resp.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(resp.body)),
	}, nil
}

// pemBundle builds distinguishable PEM payloads for tests.
func pemBundle(marker string) []byte {
	return []byte("## " + marker + "\n-----BEGIN CERTIFICATE-----\ndGVzdGNlcnQ=\n-----END CERTIFICATE-----\n")
}

func testDescriptor(name, url string, data []byte) registry.Descriptor {
	return registry.Descriptor{
		Name:     name,
		URL:      url,
		Filename: name + ".pem",
		SHA256:   fetcher.ComputeSHA256(data),
	}
}

func TestFetchAll_AllSucceed(t *testing.T) {
	st := store.NewStore(t.TempDir())

	dataA := pemBundle("bundle a")
	dataB := pemBundle("bundle b")

	descA := testDescriptor("bundle-a", "https://example.com/a.pem", dataA)
	descB := testDescriptor("bundle-b", "https://example.com/b.pem", dataB)

	client := &routingClient{responses: map[string]routedResponse{
		descA.URL: {body: dataA},
		descB.URL: {body: dataB},
	}}

	report := fetchAll(context.Background(), client, st, []registry.Descriptor{descA, descB}, time.Second, nil)

	if got := report.Succeeded(); got != 2 {
		t.Fatalf("Succeeded() = %d, want 2", got)
	}
	if report.ManifestErr != nil {
		t.Errorf("ManifestErr = %v, want nil", report.ManifestErr)
	}

	// Round-trip: files exist with exactly the downloaded bytes
	for _, tc := range []struct {
		desc registry.Descriptor
		data []byte
	}{{descA, dataA}, {descB, dataB}} {
		written, err := st.ReadBundle(tc.desc.Filename)
		if err != nil {
			t.Fatalf("ReadBundle(%s) failed: %v", tc.desc.Filename, err)
		}
		if !bytes.Equal(written, tc.data) {
			t.Errorf("%s content does not equal downloaded bytes", tc.desc.Filename)
		}
	}

	// Manifest records both bundles
	manifest, err := st.ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest() failed: %v", err)
	}
	for _, name := range []string{"bundle-a", "bundle-b"} {
		record, ok := manifest.Bundles[name]
		if !ok {
			t.Errorf("manifest missing record for %s", name)
			continue
		}
		if record.FetchedAt.IsZero() {
			t.Errorf("manifest record for %s has zero FetchedAt", name)
		}
	}
}

func TestFetchAll_DigestMismatch_RemovesFile(t *testing.T) {
	st := store.NewStore(t.TempDir())

	pinned := pemBundle("expected contents")
	served := pemBundle("tampered contents")
	desc := testDescriptor("bundle", "https://example.com/bundle.pem", pinned)

	// Simulate a stale copy from an earlier run
	if err := st.Persist(desc.Filename, []byte("stale")); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}

	client := &routingClient{responses: map[string]routedResponse{
		desc.URL: {body: served},
	}}

	report := fetchAll(context.Background(), client, st, []registry.Descriptor{desc}, time.Second, nil)

	if got := report.Succeeded(); got != 0 {
		t.Fatalf("Succeeded() = %d, want 0", got)
	}
	if !certerrors.IsError(report.Results[0].Err, certerrors.ErrDigestMismatch) {
		t.Errorf("error should wrap ErrDigestMismatch, got: %v", report.Results[0].Err)
	}

	// No file may remain at the destination after a mismatch
	if st.BundleExists(desc.Filename) {
		t.Error("file must not remain after digest mismatch")
	}
}

func TestFetchAll_AllFail(t *testing.T) {
	dir := t.TempDir()
	st := store.NewStore(dir)

	descA := testDescriptor("bundle-a", "https://example.com/a.pem", pemBundle("a"))
	descB := testDescriptor("bundle-b", "https://example.com/b.pem", pemBundle("b"))

	client := &routingClient{responses: map[string]routedResponse{
		descA.URL: {status: http.StatusInternalServerError},
		descB.URL: {status: http.StatusForbidden},
	}}

	report := fetchAll(context.Background(), client, st, []registry.Descriptor{descA, descB}, time.Second, nil)

	if got := report.Succeeded(); got != 0 {
		t.Fatalf("Succeeded() = %d, want 0", got)
	}

	// No files, no manifest
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("bundle directory should be empty, found %d entries", len(entries))
	}
}

func TestFetchAll_PartialSuccess(t *testing.T) {
	st := store.NewStore(t.TempDir())

	goodData := pemBundle("good bundle")
	good := testDescriptor("good", "https://example.com/good.pem", goodData)
	bad := testDescriptor("bad", "https://example.com/bad.pem", pemBundle("bad bundle"))

	client := &routingClient{responses: map[string]routedResponse{
		good.URL: {body: goodData},
		bad.URL:  {status: http.StatusServiceUnavailable},
	}}

	report := fetchAll(context.Background(), client, st, []registry.Descriptor{good, bad}, time.Second, nil)

	if got := report.Succeeded(); got != 1 {
		t.Fatalf("Succeeded() = %d, want 1", got)
	}

	if !st.BundleExists(good.Filename) {
		t.Error("verified bundle should exist")
	}
	if st.BundleExists(bad.Filename) {
		t.Error("failed bundle should not exist")
	}

	manifest, err := st.ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest() failed: %v", err)
	}
	if len(manifest.Bundles) != 1 {
		t.Errorf("manifest has %d records, want 1", len(manifest.Bundles))
	}
}

func TestFetchAll_Idempotent(t *testing.T) {
	st := store.NewStore(t.TempDir())

	data := pemBundle("stable contents")
	desc := testDescriptor("bundle", "https://example.com/bundle.pem", data)

	client := &routingClient{responses: map[string]routedResponse{
		desc.URL: {body: data},
	}}

	for run := 0; run < 2; run++ {
		report := fetchAll(context.Background(), client, st, []registry.Descriptor{desc}, time.Second, nil)
		if got := report.Succeeded(); got != 1 {
			t.Fatalf("run %d: Succeeded() = %d, want 1", run, got)
		}

		written, err := st.ReadBundle(desc.Filename)
		if err != nil {
			t.Fatalf("run %d: ReadBundle() failed: %v", run, err)
		}
		if !bytes.Equal(written, data) {
			t.Errorf("run %d: content does not match", run)
		}
	}
}

func TestFetchAll_NetworkErrorContinues(t *testing.T) {
	st := store.NewStore(t.TempDir())

	okData := pemBundle("reachable")
	unreachable := testDescriptor("unreachable", "https://example.com/down.pem", pemBundle("down"))
	reachable := testDescriptor("reachable", "https://example.com/up.pem", okData)

	client := &routingClient{responses: map[string]routedResponse{
		unreachable.URL: {err: io.ErrUnexpectedEOF},
		reachable.URL:   {body: okData},
	}}

	// Failure of the first descriptor must not stop the second
	report := fetchAll(context.Background(), client, st, []registry.Descriptor{unreachable, reachable}, time.Second, nil)

	if got := report.Succeeded(); got != 1 {
		t.Fatalf("Succeeded() = %d, want 1", got)
	}
	if report.Results[0].Err == nil {
		t.Error("first result should carry the network error")
	}
	if report.Results[1].Err != nil {
		t.Errorf("second result should succeed, got: %v", report.Results[1].Err)
	}
}

func TestFetchAll_RejectsNonPEMPayload(t *testing.T) {
	st := store.NewStore(t.TempDir())

	errorPage := []byte("<html><body>maintenance</body></html>")
	desc := testDescriptor("bundle", "https://example.com/bundle.pem", errorPage)

	client := &routingClient{responses: map[string]routedResponse{
		desc.URL: {body: errorPage},
	}}

	// Even with a matching digest, a non-PEM payload is rejected
	report := fetchAll(context.Background(), client, st, []registry.Descriptor{desc}, time.Second, nil)

	if got := report.Succeeded(); got != 0 {
		t.Fatalf("Succeeded() = %d, want 0", got)
	}
	if !certerrors.IsError(report.Results[0].Err, certerrors.ErrNotPEM) {
		t.Errorf("error should wrap ErrNotPEM, got: %v", report.Results[0].Err)
	}
	if st.BundleExists(desc.Filename) {
		t.Error("non-PEM payload must not be persisted")
	}
}

func TestFetchAll_OnResultHook(t *testing.T) {
	st := store.NewStore(t.TempDir())

	data := pemBundle("hooked")
	desc := testDescriptor("bundle", "https://example.com/bundle.pem", data)

	client := &routingClient{responses: map[string]routedResponse{
		desc.URL: {body: data},
	}}

	var seen []string
	fetchAll(context.Background(), client, st, []registry.Descriptor{desc}, time.Second, func(res BundleResult) {
		seen = append(seen, res.Descriptor.Name)
	})

	if len(seen) != 1 || seen[0] != "bundle" {
		t.Errorf("onResult saw %v, want [bundle]", seen)
	}
}

func TestFetchOne_ClassifiesDownloadFailures(t *testing.T) {
	st := store.NewStore(t.TempDir())

	transport := testDescriptor("transport", "https://example.com/transport.pem", pemBundle("t"))
	badStatus := testDescriptor("bad-status", "https://example.com/status.pem", pemBundle("s"))
	mismatch := testDescriptor("mismatch", "https://example.com/mismatch.pem", pemBundle("pinned"))

	client := &routingClient{responses: map[string]routedResponse{
		transport.URL: {err: io.ErrUnexpectedEOF},
		badStatus.URL: {status: http.StatusBadGateway},
		mismatch.URL:  {body: pemBundle("served instead")},
	}}

	report := fetchAll(context.Background(), client, st, []registry.Descriptor{transport, badStatus, mismatch}, time.Second, nil)

	if !report.Results[0].DownloadFailed {
		t.Error("transport error should be classified as a download failure")
	}
	if !report.Results[1].DownloadFailed {
		t.Error("non-200 status should be classified as a download failure")
	}
	if report.Results[2].DownloadFailed {
		t.Error("digest mismatch should not be classified as a download failure")
	}
}

func TestFetchReport_AllFailuresDownload(t *testing.T) {
	st := store.NewStore(t.TempDir())

	downA := testDescriptor("down-a", "https://example.com/down-a.pem", pemBundle("a"))
	downB := testDescriptor("down-b", "https://example.com/down-b.pem", pemBundle("b"))
	pinned := testDescriptor("pinned", "https://example.com/pinned.pem", pemBundle("pinned"))
	okData := pemBundle("ok")
	ok := testDescriptor("ok", "https://example.com/ok.pem", okData)

	client := &routingClient{responses: map[string]routedResponse{
		downA.URL:  {err: io.ErrUnexpectedEOF},
		downB.URL:  {status: http.StatusServiceUnavailable},
		pinned.URL: {body: pemBundle("tampered")},
		ok.URL:     {body: okData},
	}}

	t.Run("every failure is a download failure", func(t *testing.T) {
		report := fetchAll(context.Background(), client, st, []registry.Descriptor{downA, downB}, time.Second, nil)
		if !report.AllFailuresDownload() {
			t.Error("AllFailuresDownload() = false, want true")
		}
	})

	t.Run("digest mismatch among failures", func(t *testing.T) {
		report := fetchAll(context.Background(), client, st, []registry.Descriptor{downA, pinned}, time.Second, nil)
		if report.AllFailuresDownload() {
			t.Error("AllFailuresDownload() = true with a verification failure in the run")
		}
	})

	t.Run("any success", func(t *testing.T) {
		report := fetchAll(context.Background(), client, st, []registry.Descriptor{downA, ok}, time.Second, nil)
		if report.AllFailuresDownload() {
			t.Error("AllFailuresDownload() = true with a success in the run")
		}
	})

	t.Run("empty report", func(t *testing.T) {
		report := &FetchReport{}
		if report.AllFailuresDownload() {
			t.Error("AllFailuresDownload() = true for empty report")
		}
	})
}

func TestResolveDescriptors(t *testing.T) {
	t.Run("no args selects full table", func(t *testing.T) {
		descriptors, err := resolveDescriptors(nil)
		if err != nil {
			t.Fatalf("resolveDescriptors(nil) failed: %v", err)
		}
		if len(descriptors) != len(registry.All()) {
			t.Errorf("got %d descriptors, want %d", len(descriptors), len(registry.All()))
		}
	})

	t.Run("named subset", func(t *testing.T) {
		descriptors, err := resolveDescriptors([]string{"aws-rds"})
		if err != nil {
			t.Fatalf("resolveDescriptors() failed: %v", err)
		}
		if len(descriptors) != 1 || descriptors[0].Name != "aws-rds" {
			t.Errorf("got %v, want aws-rds only", descriptors)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := resolveDescriptors([]string{"aws-rds", "bogus"})
		if err == nil {
			t.Fatal("resolveDescriptors() should fail on unknown name")
		}
		if !certerrors.IsError(err, certerrors.ErrUnknownBundle) {
			t.Errorf("error should wrap ErrUnknownBundle, got: %v", err)
		}
	})
}

func TestFetchCmd_Exists(t *testing.T) {
	if fetchCmd == nil {
		t.Fatal("fetchCmd is nil")
	}

	if fetchCmd.Use != "fetch [bundle...]" {
		t.Errorf("fetchCmd.Use = %q, want %q", fetchCmd.Use, "fetch [bundle...]")
	}
}

func TestFetchCmd_Flags(t *testing.T) {
	dirFlag := fetchCmd.Flags().Lookup("dir")
	if dirFlag == nil {
		t.Fatal("--dir flag not found")
	}
	if dirFlag.DefValue != store.DefaultDir {
		t.Errorf("--dir default = %q, want %q", dirFlag.DefValue, store.DefaultDir)
	}

	timeoutFlag := fetchCmd.Flags().Lookup("timeout")
	if timeoutFlag == nil {
		t.Fatal("--timeout flag not found")
	}
	if timeoutFlag.DefValue != "30s" {
		t.Errorf("--timeout default = %q, want %q", timeoutFlag.DefValue, "30s")
	}
}
