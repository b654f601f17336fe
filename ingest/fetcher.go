package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const maxRedirects = 5

// ErrContentTooLarge is returned when a page exceeds the configured
// size cap.
var ErrContentTooLarge = errors.New("fetched content exceeds size limit")

// FetchResult is one fetched page plus the caching headers needed for
// conditional re-fetches.
type FetchResult struct {
	Body         []byte
	ContentType  string
	ETag         string
	LastModified time.Time
	StatusCode   int
}

// NotModified reports whether the server answered a conditional fetch
// with 304.
func (r *FetchResult) NotModified() bool {
	return r.StatusCode == http.StatusNotModified
}

// Fetcher downloads reference pages. Every request, including each
// redirect hop, passes SSRF validation, and the dialer re-checks
// resolved addresses so a DNS answer cannot route the request into a
// private network.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewFetcher creates a fetcher with the given timeout, User-Agent, and
// payload size cap.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64) *Fetcher {
	transport := &http.Transport{
		DialContext:           guardedDial,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	client := &http.Client{
		Transport:     transport,
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
	}
	return &Fetcher{client: client, userAgent: userAgent, maxBytes: maxBytes}
}

// guardedDial resolves the host itself and refuses private addresses
// before connecting, closing the DNS rebinding window between URL
// validation and the actual dial.
func guardedDial(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}

	resolved, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, candidate := range resolved {
		if IsPrivateIP(candidate.IP) {
			return nil, fmt.Errorf("refusing to connect to private address %s", candidate.IP)
		}
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	var lastErr error
	for _, candidate := range resolved {
		conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(candidate.IP.String(), port))
		if dialErr == nil {
			return conn, nil
		}
		lastErr = dialErr
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no addresses for %s", host)
	}
	return nil, lastErr
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if err := ValidateURL(req.URL.String()); err != nil {
		return fmt.Errorf("redirect blocked: %w", err)
	}
	return nil
}

// Fetch retrieves a page.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	return f.FetchWithETag(ctx, rawURL, "")
}

// FetchWithETag retrieves a page, sending If-None-Match when etag is
// non-empty. A 304 answer returns a result with no body.
func (f *Fetcher) FetchWithETag(ctx context.Context, rawURL, etag string) (*FetchResult, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.Header.Get("ETag"),
		StatusCode:  resp.StatusCode,
	}
	if stamp := resp.Header.Get("Last-Modified"); stamp != "" {
		if parsed, parseErr := http.ParseTime(stamp); parseErr == nil {
			result.LastModified = parsed
		}
	}

	switch resp.StatusCode {
	case http.StatusNotModified:
		return result, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("fetch %s: HTTP %d %s", rawURL, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w (%d byte cap)", ErrContentTooLarge, f.maxBytes)
	}

	result.Body = body
	return result, nil
}
