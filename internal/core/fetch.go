package core

// fetch.go downloads page text from the remote document.
//
// A run owns one Fetcher for its whole lifetime. Fetchers that implement
// io.Closer are closed when the run ends, whether it completed or aborted.
// Outbound requests share a token-bucket pacer so concurrent runs do not
// flood the document host.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"
)

// DefaultURLFormat is the published-CSV endpoint of a Google Sheets
// document. The first verb receives the document ID, the second the page.
const DefaultURLFormat = "https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s"

var (
	// ErrPageNotCSV is returned when the host answers with an HTML page,
	// which is what a private or missing document looks like.
	ErrPageNotCSV = errors.New("page is not csv")

	// ErrPageTooLarge is returned when a page exceeds the size limit.
	ErrPageTooLarge = errors.New("page too large")
)

// PageURL builds the download URL for one page of a document.
func PageURL(format, documentID, page string) string {
	return fmt.Sprintf(format, url.PathEscape(documentID), url.QueryEscape(page))
}

// Fetcher downloads the raw CSV text at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, url string) (string, error)

// Fetch implements Fetcher.
func (f FetchFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// FetchError is fatal to a run: the page could not be downloaded.
type FetchError struct {
	Page string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("download page %q: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPFetcherConfig configures an HTTPFetcher.
type HTTPFetcherConfig struct {
	// Timeout bounds each download (default: 30s).
	Timeout time.Duration

	// MaxBytes caps the page size (default: 32MB).
	MaxBytes int64

	// UserAgent is sent with every request.
	UserAgent string

	// Pacer throttles requests. Share one pacer across fetchers to pace
	// all runs together. Nil disables pacing.
	Pacer *rate.Limiter

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxPageBytes = 32 << 20
)

// HTTPFetcher downloads pages over HTTP.
type HTTPFetcher struct {
	cfg    HTTPFetcherConfig
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with its own client.
func NewHTTPFetcher(cfg HTTPFetcherConfig) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxPageBytes
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &HTTPFetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if f.cfg.Pacer != nil {
		if err := f.cfg.Pacer.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "text/html" {
		return "", ErrPageNotCSV
	}

	return readPage(resp.Body, f.cfg.MaxBytes)
}

// Close releases idle connections held by the fetcher's client.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// readPage reads a whole page body. A leading UTF-8 BOM is removed and
// invalid UTF-8 sequences are replaced with U+FFFD.
func readPage(r io.Reader, maxBytes int64) (string, error) {
	counter := &countingReader{reader: io.LimitReader(r, maxBytes+1)}
	decoded := transform.NewReader(counter, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	data, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if counter.bytesRead > maxBytes {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrPageTooLarge, maxBytes)
	}
	return string(data), nil
}

// countingReader tracks raw bytes read, before decoding changes lengths.
type countingReader struct {
	reader    io.Reader
	bytesRead int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)
	return n, err
}
