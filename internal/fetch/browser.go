package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/telebirr-verify/internal/failure"
	"github.com/hyperifyio/telebirr-verify/internal/guard"
)

// Browser renders pages in a shared headless Chrome. The process is launched
// on first use and relaunched when a liveness probe finds it gone. Each Fetch
// runs in its own tab, released on every exit path.
type Browser struct {
	// ExecPath overrides Chrome discovery. Empty uses chromedp's default lookup.
	ExecPath  string
	UserAgent string
	// SettleDelay is waited after the document is ready, for late scripts.
	SettleDelay time.Duration
	// Gate, when set, is checked against the URL the tab ends up on.
	Gate *guard.Gate
	// MaxConcurrent limits concurrently open tabs. Zero means unlimited.
	MaxConcurrent int

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	limiter limiter
}

// probeTimeout bounds the liveness check on a cached browser.
const probeTimeout = 3 * time.Second

// session returns a live browser context, launching or relaunching Chrome
// when needed. Concurrent callers share one launch.
func (b *Browser) session() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx != nil {
		if b.aliveLocked() {
			return b.browserCtx, nil
		}
		log.Warn().Msg("browser session lost; relaunching")
		b.resetLocked()
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.DisableGPU, chromedp.NoSandbox)
	if b.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.ExecPath))
	}
	if b.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	// The first Run starts the process; it must not carry a deadline or the
	// browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, failure.Wrap(failure.BrowserLaunch, err)
	}
	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	log.Debug().Str("exec", b.ExecPath).Msg("browser launched")
	return browserCtx, nil
}

func (b *Browser) aliveLocked() bool {
	if b.browserCtx == nil || b.browserCtx.Err() != nil {
		return false
	}
	probe, cancel := context.WithTimeout(b.browserCtx, probeTimeout)
	defer cancel()
	var n int
	return chromedp.Run(probe, chromedp.Evaluate(`1`, &n)) == nil && n == 1
}

func (b *Browser) resetLocked() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.browserCancel = nil
	b.allocCancel = nil
}

// Close shuts the browser down. A later Fetch launches a new one.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
	return nil
}

// Fetch navigates a fresh tab to rawURL, waits for the body and the settle
// delay, and returns the serialized document.
func (b *Browser) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (Page, error) {
	if err := b.limiter.acquire(ctx, b.MaxConcurrent); err != nil {
		return Page{}, failure.Wrap(failure.PageTimeout, err)
	}
	defer b.limiter.release()

	browserCtx, err := b.session()
	if err != nil {
		return Page{}, err
	}
	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	page, err := b.render(runCtx, rawURL)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = failure.Wrap(failure.PageTimeout, err)
		}
		b.dropIfDead()
		return page, err
	}
	return page, nil
}

func (b *Browser) render(ctx context.Context, rawURL string) (Page, error) {
	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(rawURL))
	if err != nil {
		return Page{}, failure.Wrap(failure.Navigation, err)
	}
	page := Page{}
	if resp != nil {
		page.Status = int(resp.Status)
		if page.Status >= 400 {
			return page, failure.New(failure.HTTPStatus).WithDetails(map[string]any{"status": page.Status})
		}
	}
	var final, html string
	actions := []chromedp.Action{chromedp.WaitReady("body", chromedp.ByQuery)}
	if b.SettleDelay > 0 {
		actions = append(actions, chromedp.Sleep(b.SettleDelay))
	}
	actions = append(actions, chromedp.Location(&final), chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err := chromedp.Run(ctx, actions...); err != nil {
		return page, failure.Wrap(failure.PageLoad, err)
	}
	page.FinalURL = final
	if b.Gate != nil && final != "" {
		u, perr := url.Parse(final)
		if perr != nil || !b.Gate.Allowed(u) {
			return page, failure.New(failure.HostNotAllowed).WithDetails(map[string]any{"redirect": final})
		}
	}
	if strings.TrimSpace(html) == "" {
		return page, failure.Wrap(failure.PageLoad, fmt.Errorf("empty document at %s", final))
	}
	page.HTML = html
	return page, nil
}

// dropIfDead discards the cached session after a failed fetch if the browser
// itself is gone, so the next call relaunches.
func (b *Browser) dropIfDead() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx != nil && !b.aliveLocked() {
		log.Warn().Msg("browser unresponsive after failed fetch; dropping session")
		b.resetLocked()
	}
}
