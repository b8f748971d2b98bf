package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Fetcher retrieves the raw bytes behind an identifier.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, src string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, src string) ([]byte, error) {
	return f(ctx, src)
}

// FileFetcher reads plain paths and file:// URLs. Relative paths are resolved
// against BasePath.
type FileFetcher struct {
	BasePath string
}

func (ff *FileFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := ff.Path(src)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return data, nil
}

// Path returns the file system path an identifier refers to.
func (ff *FileFetcher) Path(src string) string {
	p := StripQuery(src)
	if strings.HasPrefix(p, "file://") {
		if u, err := url.Parse(p); err == nil {
			// file://rel/path keeps "rel" in the host part
			p = u.Host + u.Path
		} else {
			p = strings.TrimPrefix(p, "file://")
		}
	}
	if !filepath.IsAbs(p) && ff.BasePath != "" {
		p = filepath.Join(ff.BasePath, p)
	}
	return filepath.Clean(p)
}

type HTTPOptions struct {
	// Timeout of a single attempt.
	Timeout time.Duration
	// RetryMax is the number of retries after the first attempt.
	RetryMax int
	// RequestsPerSecond limits outgoing requests; zero disables the limiter.
	RequestsPerSecond float64
}

// HTTPFetcher fetches http and https identifiers with retries.
type HTTPFetcher struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	c.RetryWaitMin = 50 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	c.Logger = leveledLogger{}

	hf := &HTTPFetcher{client: c}
	if opts.RequestsPerSecond > 0 {
		hf.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return hf
}

func (hf *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if hf.limiter != nil {
		if err := hf.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for '%s': %w", src, err)
	}
	resp, err := hf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch '%s': %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch '%s': %s", src, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of '%s': %w", src, err)
	}
	return data, nil
}

// Mux dispatches on the identifier scheme: http(s) goes to HTTP, everything else
// to File.
type Mux struct {
	File Fetcher
	HTTP Fetcher
}

func (m *Mux) Fetch(ctx context.Context, src string) ([]byte, error) {
	if IsRemote(src) {
		if m.HTTP == nil {
			return nil, fmt.Errorf("no http fetcher configured for '%s'", src)
		}
		return m.HTTP.Fetch(ctx, src)
	}
	if m.File == nil {
		return nil, fmt.Errorf("no file fetcher configured for '%s'", src)
	}
	return m.File.Fetch(ctx, src)
}

// IsRemote reports whether src is an http or https URL.
func IsRemote(src string) bool {
	s := strings.ToLower(src)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// StripQuery drops the query string and fragment of an identifier.
func StripQuery(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		return src[:i]
	}
	return src
}

// leveledLogger routes retryablehttp logs through the engine logger.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	core.Logger().Error(msg, keysAndValues...)
}

func (leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	core.Logger().Info(msg, keysAndValues...)
}

func (leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	core.Logger().Debug(msg, keysAndValues...)
}

func (leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	core.Logger().Warn(msg, keysAndValues...)
}
