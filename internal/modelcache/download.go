package modelcache

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
)

// httpClient forces HTTP/1.1. HuggingFace's CDN occasionally sends an
// HTTP/2 GOAWAY mid-transfer that wedges Go's h2 read loop; disabling
// H2 avoids it.
var httpClient = &http.Client{
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		TLSNextProto:    make(map[string]func(string, *tls.Conn) http.RoundTripper),
	},
}

// HTTPDownloader fetches model bytes over HTTP(S).
type HTTPDownloader struct{}

// NewHTTPDownloader returns the production Downloader.
func NewHTTPDownloader() *HTTPDownloader { return &HTTPDownloader{} }

// Download fetches url and returns the full response body. Callers
// verify size/checksum before installing it, so no progress streaming
// to disk is needed here.
func (d *HTTPDownloader) Download(url string) ([]byte, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("http get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http get %s: server returned %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", url, err)
	}
	return data, nil
}
