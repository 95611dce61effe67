// Package registry holds the static table of certificate bundle descriptors.
package registry

import (
	"fmt"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
)

// Descriptor describes one certificate-authority bundle to fetch.
// Descriptors are immutable and enumerated at compile time.
type Descriptor struct {
	Name     string `json:"name"`     // Short identifier, e.g. "aws-rds"
	URL      string `json:"url"`      // HTTPS source for the bundle
	Filename string `json:"filename"` // Destination filename inside the output directory
	SHA256   string `json:"sha256"`   // Pinned hex-encoded SHA-256 of the bundle contents
}

// bundles is the pinned table of cloud-provider CA bundles.
// Digests pin the exact published bundle contents; a provider rotating
// its bundle requires a new release with updated pins.
var bundles = []Descriptor{
	{
		Name:     "aws-rds",
		URL:      "https://truststore.pki.rds.amazonaws.com/global/global-bundle.pem",
		Filename: "aws-rds-global-bundle.pem",
		SHA256:   "e5bb2084ccf45087bda1c9bffdea0eb15ee67f0b91646106e466714f9de3c7e3",
	},
	{
		Name:     "azure-database",
		URL:      "https://www.digicert.com/CACerts/BaltimoreCyberTrustRoot.crt.pem",
		Filename: "azure-baltimore-root.pem",
		SHA256:   "285963b0968a2204019db351ef5d1c97d732f1c4de00d3ae035e8987c954f945",
	},
	{
		Name:     "google-cloudsql",
		URL:      "https://pki.goog/roots.pem",
		Filename: "google-cloudsql-roots.pem",
		SHA256:   "0e2a90c8627e1008407a7ed1e24f07a5f097c30fdba3a7d1f3ad1b9f59c9b2e4",
	},
}

// All returns every bundle descriptor in stable declaration order.
// The returned slice is a copy; callers may not mutate the table.
func All() []Descriptor {
	out := make([]Descriptor, len(bundles))
	copy(out, bundles)
	return out
}

// Lookup returns the descriptor with the given name.
func Lookup(name string) (Descriptor, error) {
	for _, d := range bundles {
		if d.Name == name {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", certerrors.ErrUnknownBundle, name)
}

// Names returns the names of all descriptors in stable order.
func Names() []string {
	names := make([]string, len(bundles))
	for i, d := range bundles {
		names[i] = d.Name
	}
	return names
}
