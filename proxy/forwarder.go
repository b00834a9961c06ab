package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// RiotTokenHeader carries the secret credential upstream.
	RiotTokenHeader = "X-Riot-Token"

	defaultTimeout = 10 * time.Second
)

var ErrUpstreamTimeout = errors.New("upstream timeout")

// RateLimitHeaders are copied from the upstream reply verbatim when present.
var RateLimitHeaders = []string{
	"X-App-Rate-Limit",
	"X-App-Rate-Limit-Count",
	"X-Method-Rate-Limit",
	"X-Method-Rate-Limit-Count",
	"Retry-After",
}

// Request is one forwarded GET. Path is already escaped and is sent as-is.
type Request struct {
	Host     string
	Path     string
	RawQuery string
}

// Response is the upstream reply, body untouched.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Upstream performs a forwarded call.
type Upstream interface {
	Forward(ctx context.Context, req Request) (*Response, error)
}

type Forwarder struct {
	client     *http.Client
	timeout    time.Duration
	header     string
	credential func() string
	resolve    func(host string) string
}

var _ Upstream = (*Forwarder)(nil)

type Option func(*Forwarder)

// WithHTTPClient replaces the http client used for upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Forwarder) {
		f.client = c
	}
}

// WithTimeout bounds every upstream call.
func WithTimeout(d time.Duration) Option {
	return func(f *Forwarder) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithHostResolver overrides how a host maps to a base URL (useful for testing).
func WithHostResolver(resolve func(host string) string) Option {
	return func(f *Forwarder) {
		f.resolve = resolve
	}
}

// NewRiotForwarder forwards to https://{host}.{domain} with the credential header attached.
func NewRiotForwarder(domain string, credential func() string, opts ...Option) *Forwarder {
	f := &Forwarder{
		client:     &http.Client{},
		timeout:    defaultTimeout,
		header:     RiotTokenHeader,
		credential: credential,
		resolve: func(host string) string {
			return "https://" + host + "." + domain
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewAssetForwarder forwards unauthenticated to a single fixed origin, the host is ignored.
func NewAssetForwarder(origin string, opts ...Option) *Forwarder {
	origin = strings.TrimSuffix(origin, "/")
	f := &Forwarder{
		client:  &http.Client{},
		timeout: defaultTimeout,
		resolve: func(string) string {
			return origin
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL builds the upstream url for req.
func (f *Forwarder) URL(req Request) string {
	u := f.resolve(req.Host) + "/" + strings.TrimPrefix(req.Path, "/")
	if req.RawQuery != "" {
		u += "?" + req.RawQuery
	}
	return u
}

// Forward issues the GET and returns status, content type, rate limit headers and body unchanged.
// No retry happens here.
func (f *Forwarder) Forward(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url := f.URL(req)
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request : %w", err)
	}
	if f.header != "" && f.credential != nil {
		hr.Header.Set(f.header, f.credential())
	}

	slog.Debug(fmt.Sprintf("[Forward] - GET %s%s", req.Host, logPath(req.Path)))
	res, err := f.client.Do(hr)
	if err != nil {
		return nil, classify(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, classify(err)
	}

	h := http.Header{}
	if ct := res.Header.Get("Content-Type"); ct != "" {
		h.Set("Content-Type", ct)
	}
	for _, name := range RateLimitHeaders {
		if v := res.Header.Get(name); v != "" {
			h.Set(name, v)
		}
	}
	return &Response{
		StatusCode: res.StatusCode,
		Status:     http.StatusText(res.StatusCode),
		Header:     h,
		Body:       body,
	}, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrUpstreamTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("upstream request failed : %w", err)
}

// logPath keeps identifiers out of the logs past the endpoint name.
func logPath(p string) string {
	if i := strings.LastIndex(p, "/"); i > 0 {
		return "/" + p[:i] + "/..."
	}
	return "/" + p
}
