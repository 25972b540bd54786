package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"

	"github.com/pngcrypt-go/internal/config"
)

var (
	// ErrTooLarge is returned once a source exceeds the fetch limit
	ErrTooLarge = errors.New("source exceeds size limit")
	// ErrBadURL is returned for anything but absolute http(s) URLs
	ErrBadURL = errors.New("source must be an http or https URL")
)

// StatusError reports a non-2xx response from the source
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// Client wraps http.Client with connection pooling and HTTP/2 support
type Client struct {
	*http.Client
}

// NewClient creates a new HTTP client with connection pooling
func NewClient(cfg config.FetchConfig) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     cfg.EnableHTTP2,
		MaxIdleConns:          cfg.MaxIdleConns,
		IdleConnTimeout:       time.Duration(cfg.IdleConnTimeout) * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	// Configure HTTP/2 if enabled
	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			log.Warn().Err(err).Msg("HTTP/2 transport setup failed, using HTTP/1.1")
		}
	}

	return &Client{
		Client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// Fetch GETs rawURL and returns its body. Reading more than limit bytes
// fails with ErrTooLarge; limit <= 0 means unlimited.
func (c *Client) Fetch(ctx context.Context, rawURL string, limit int64) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/png, application/octet-stream")

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: u.Redacted(), Code: resp.StatusCode}
	}
	if limit > 0 && resp.ContentLength > limit {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	log.Debug().
		Str("url", u.Redacted()).
		Str("proto", resp.Proto).
		Int64("length", resp.ContentLength).
		Msg("Fetched source")

	if limit <= 0 {
		return resp.Body, nil
	}
	return &limitedBody{body: resp.Body, r: io.LimitReader(resp.Body, limit+1), left: limit}, nil
}

// limitedBody turns the (limit+1)th byte into ErrTooLarge instead of a
// silent truncation
type limitedBody struct {
	body io.Closer
	r    io.Reader
	left int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.left -= int64(n)
	if b.left < 0 {
		return n + int(b.left), ErrTooLarge
	}
	return n, err
}

func (b *limitedBody) Close() error {
	return b.body.Close()
}
