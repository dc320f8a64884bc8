package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// SourceOpener turns a staged image's local URI into its byte stream.
type SourceOpener func(ctx context.Context, localURI string) (io.ReadCloser, error)

// OpenLocalURI is the default SourceOpener. http(s) URIs are fetched over
// the network, everything else is treated as a filesystem path (with an
// optional file:// prefix). This mirrors the two ways a picker hands an
// image over: a blob URL or a file on disk.
func OpenLocalURI(ctx context.Context, localURI string) (io.ReadCloser, error) {
	if strings.HasPrefix(localURI, "http://") || strings.HasPrefix(localURI, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, localURI, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetching %s: unexpected status %s", localURI, resp.Status)
		}
		return resp.Body, nil
	}

	return os.Open(strings.TrimPrefix(localURI, "file://"))
}
