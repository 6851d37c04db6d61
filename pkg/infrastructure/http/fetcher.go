package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	DefaultUserAgent       = "DomainChecker/1.0"
	DefaultMaxResponseSize = 1 << 20
)

// Fetcher performs GET requests against DNS-over-HTTPS endpoints
type Fetcher struct {
	client          *http.Client
	maxResponseSize int64
	userAgent       string
}

// Config holds HTTP fetcher configuration
type Config struct {
	Timeout         time.Duration
	MaxResponseSize int64
	UserAgent       string
	// Transport overrides the default transport, e.g. with an instrumented one
	Transport http.RoundTripper
}

// Response is a fully read HTTP response
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewTransport creates the transport shared by resolver clients. Keep-alives
// stay enabled since every lookup hits the same few hosts.
func NewTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   256,
	}
}

// NewFetcher creates a new HTTP fetcher
func NewFetcher(config Config) *Fetcher {
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = DefaultMaxResponseSize
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	transport := config.Transport
	if transport == nil {
		transport = NewTransport(config.Timeout)
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		maxResponseSize: config.MaxResponseSize,
		userAgent:       config.UserAgent,
	}
}

// Get fetches url with the given Accept header and reads the whole body
func (f *Fetcher) Get(ctx context.Context, url, accept string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Limit response size
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxResponseSize))
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
