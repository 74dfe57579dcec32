package parser

import (
	"bufio"
	"fmt"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// FetchFromURL downloads a newline-separated proxy list from a remote URL.
// The download is retried on transient failures; probes never are.
func FetchFromURL(url string, timeout time.Duration) ([]string, error) {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch proxy list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch proxy list: HTTP %d", resp.StatusCode)
	}

	out, err := scanLines(bufio.NewScanner(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}
	return out, nil
}
