package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hyperifyio/telebirr-verify/internal/failure"
	"github.com/hyperifyio/telebirr-verify/internal/guard"
)

// Page is a fetched receipt page.
type Page struct {
	HTML     string
	Status   int
	FinalURL string
}

// Fetcher retrieves a page. Failures are *failure.Error values carrying one of
// the fetch codes (launch, navigation, timeout, load, HTTP status).
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (Page, error)
}

// Client fetches server-rendered pages over plain HTTP. It serves the local
// stub, tests, and operator templates that do not need script execution.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Gate, when set, is re-checked on every redirect hop.
	Gate *guard.Gate
	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests. Zero means unlimited.
	MaxConcurrent int
	// MaxBodyBytes bounds the body read. Zero means 8 MiB.
	MaxBodyBytes int64

	limiter limiter
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

// Fetch issues one GET bounded by timeout. There is no retry: a caller that
// wants one re-runs the whole verification.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) (Page, error) {
	if err := c.limiter.acquire(ctx, c.MaxConcurrent); err != nil {
		return Page{}, failure.Wrap(failure.PageTimeout, err)
	}
	defer c.limiter.release()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, failure.Wrap(failure.Navigation, fmt.Errorf("new request: %w", err))
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return Page{}, classify(ctx, err, failure.Navigation)
	}
	defer resp.Body.Close()

	page := Page{Status: resp.StatusCode, FinalURL: resp.Request.URL.String()}
	if resp.StatusCode >= 400 {
		return page, failure.New(failure.HTTPStatus).WithDetails(map[string]any{"status": resp.StatusCode})
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isAllowedHTMLContentType(ct) {
		return page, failure.Wrap(failure.PageLoad, fmt.Errorf("unsupported content type: %s", ct))
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = 8 << 20
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return page, classify(ctx, fmt.Errorf("read body: %w", err), failure.PageLoad)
	}
	page.HTML = string(b)
	return page, nil
}

// classify maps a transport error onto a failure code, keeping classified
// errors (a gate rejection on redirect) as they are.
func classify(ctx context.Context, err error, fallback failure.Code) error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure.Wrap(failure.PageTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failure.Wrap(failure.PageTimeout, err)
	}
	return failure.Wrap(fallback, err)
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if c.Gate != nil && !c.Gate.Allowed(req.URL) {
			return failure.New(failure.HostNotAllowed).WithDetails(map[string]any{"redirect": req.URL.String()})
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
