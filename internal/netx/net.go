package netx

import (
	"context"
	"io"
	"net/http"
)

// maxDrain bounds how much of a response body is read before closing so the
// connection can be reused.
const maxDrain = 4 << 10

// Status issues a bodyless request that bypasses caches and returns the
// response status code.
func Status(ctx context.Context, client *http.Client, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	_, _ = io.CopyN(io.Discard, resp.Body, maxDrain)
	return resp.StatusCode, nil
}
