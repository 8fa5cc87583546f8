// Package storage provides access to the binary object store holding uploaded
// candidate files. Files are addressed by URL; upload and deletion belong to
// an external collaborator.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default blob request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for blob requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; TalentTracker/1.0)"

// Blob holds fetched file content.
type Blob struct {
	URL         string
	Content     []byte
	ContentType string
}

// NotFoundError indicates the blob store has no object at the URL.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob not found: %s", e.URL)
}

// FetchError represents any other failure retrieving a blob.
type FetchError struct {
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Client fetches blobs over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	// UseBrowser enables headless-browser rendering when a fetched HTML page
	// carries too little static content.
	UseBrowser bool
	Verbose    bool
}

// NewClient creates a blob client with the given timeout (zero means default).
func NewClient(timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  DefaultUserAgent,
	}
}

// Fetch retrieves the blob at urlStr.
func (c *Client) Fetch(ctx context.Context, urlStr string) (*Blob, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &FetchError{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return nil, &FetchError{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, &NotFoundError{URL: urlStr}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	return &Blob{
		URL:         urlStr,
		Content:     content,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
