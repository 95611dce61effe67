package fetcher

import "net/http"

// HTTPClient is the transport used to download bundles. Tests substitute
// a mock so the fetch loop can be driven without touching provider URLs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
