package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Opener fetches a named read-only resource.
type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirOpener reads resources from a local directory.
type DirOpener struct {
	Dir string
}

// Open opens name relative to the directory.
func (d DirOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.Dir, filepath.FromSlash(name)))
	if err != nil {
		return nil, &UnavailableError{Resource: name, Err: err}
	}
	return f, nil
}

// HTTPOptions configures the HTTP opener.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	RatePerSec float64
}

// HTTPOpener fetches resources relative to a base URL. Requests are rate
// limited and never retried: a failed request surfaces as UnavailableError.
type HTTPOpener struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	opts    HTTPOptions
}

// NewHTTPOpener creates an HTTPOpener for the given base URL.
func NewHTTPOpener(baseURL string, opts HTTPOptions) (*HTTPOpener, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrap(err, "source: parse base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, eris.Errorf("source: unsupported scheme %q", u.Scheme)
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "city-explorer/1.0"
	}
	burst := int(opts.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	return &HTTPOpener{
		base: u,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), burst),
		opts:    opts,
	}, nil
}

// resolve joins name onto the base URL path.
func (h *HTTPOpener) resolve(name string) string {
	u := *h.base
	u.Path = path.Join("/", u.Path, name)
	return u.String()
}

// Open issues a GET for name and returns the body on a 2xx response.
func (h *HTTPOpener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "source: rate limiter wait")
	}

	target := h.resolve(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "source: create request")
	}
	req.Header.Set("User-Agent", h.opts.UserAgent)
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &UnavailableError{Resource: name, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		zap.L().Debug("source: non-success status",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &UnavailableError{Resource: name, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
