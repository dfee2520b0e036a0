// Package fetch is the outbound HTTP transport used by the source collectors.
package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultTimeout     = 30 * time.Second
	DefaultDialTimeout = 10 * time.Second
	// DefaultMaxBodyBytes caps both the wire body and the decoded page.
	DefaultMaxBodyBytes = 8 << 20
)

var ErrBodyTooLarge = errors.New("response body too large")

// Response is what a collector needs from an HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher performs one GET. Implementations must not retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (Response, error)
}

type Options struct {
	UserAgent   string
	Timeout     time.Duration
	DialTimeout time.Duration
	// VerifyTLS turns certificate verification back on.
	VerifyTLS    bool
	MaxBodyBytes int64
}

// Client is the net/http implementation of Fetcher.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
}

func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: !opts.VerifyTLS},
		TLSHandshakeTimeout: opts.DialTimeout,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		// the Accept-Encoding header is set by hand, so decoding is ours too
		DisableCompression: true,
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout, Transport: transport},
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}
}

// Fetch sends a browser-like GET and returns the decoded body. Redirects are
// followed. A non-200 status is not an error here; the caller decides.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	raw, err := readAll(resp.Body, c.maxBody)
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}
	body, err := decode(resp.Header.Get("Content-Encoding"), raw, c.maxBody)
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("decode %s body: %w", resp.Header.Get("Content-Encoding"), err)
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// readAll reads r up to limit bytes and fails with ErrBodyTooLarge past it.
func readAll(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrBodyTooLarge
	}
	return b, nil
}

func decode(encoding string, raw []byte, limit int64) ([]byte, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return readAll(zr, limit)
	case "deflate":
		// servers disagree on whether deflate means zlib-wrapped or raw
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			body, err := readAll(zr, limit)
			zr.Close()
			if err == nil || errors.Is(err, ErrBodyTooLarge) {
				return body, err
			}
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		return readAll(fr, limit)
	default:
		return raw, nil
	}
}
