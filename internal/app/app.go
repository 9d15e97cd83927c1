package app

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/telebirr-verify/internal/extract"
	"github.com/hyperifyio/telebirr-verify/internal/failure"
	"github.com/hyperifyio/telebirr-verify/internal/fetch"
	"github.com/hyperifyio/telebirr-verify/internal/guard"
	"github.com/hyperifyio/telebirr-verify/internal/receipt"
)

// App drives one verification: identifier checks, fetch, extraction,
// resolution and acceptance.
type App struct {
	cfg     Config
	gate    *guard.Gate
	fetcher fetch.Fetcher
	rules   receipt.Rules
}

// New builds an App. A nil fetcher is built from cfg.Fetcher.
func New(cfg Config, f fetch.Fetcher) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, gate: cfg.Gate(), fetcher: f, rules: receipt.DefaultRules}
	if a.fetcher == nil {
		a.fetcher = NewFetcher(cfg, a.gate)
	}
	log.Debug().Str("fetcher", cfg.Fetcher).Strs("allowedHosts", a.gate.AllowedHosts).Msg("app ready")
	return a, nil
}

// NewFetcher builds the configured fetch backend.
func NewFetcher(cfg Config, gate *guard.Gate) fetch.Fetcher {
	if cfg.Fetcher == FetcherHTTP {
		return &fetch.Client{
			HTTPClient:    newFetchHTTPClient(cfg.FetchTimeout),
			UserAgent:     cfg.UserAgent,
			Gate:          gate,
			MaxConcurrent: cfg.MaxConcurrent,
		}
	}
	return &fetch.Browser{
		ExecPath:      cfg.ChromePath,
		UserAgent:     cfg.UserAgent,
		SettleDelay:   cfg.SettleDelay,
		Gate:          gate,
		MaxConcurrent: cfg.MaxConcurrent,
	}
}

// Config returns the settings the App was built with.
func (a *App) Config() Config { return a.cfg }

// Close releases the fetch backend.
func (a *App) Close() error {
	if c, ok := a.fetcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ReceiptByTx verifies a transaction id against the operator's receipt page.
func (a *App) ReceiptByTx(ctx context.Context, tx string) (receipt.Receipt, error) {
	if err := guard.ValidateTransactionID(tx); err != nil {
		return receipt.Receipt{}, err
	}
	target := guard.BuildReceiptURL(a.cfg.ReceiptURLTemplate, tx)
	if _, err := a.gate.AssertAllowedURL(target); err != nil {
		return receipt.Receipt{}, err
	}

	start := time.Now()
	page, err := a.fetcher.Fetch(ctx, target, a.cfg.FetchTimeout)
	if err != nil {
		return receipt.Receipt{}, failure.As(err)
	}
	log.Debug().Str("tx", tx).Str("url", target).Int("status", page.Status).
		Int("bytes", len(page.HTML)).Dur("elapsed", time.Since(start)).Msg("fetched receipt page")

	r, err := a.Parse(page.HTML, tx)
	if err != nil {
		return receipt.Receipt{}, err
	}
	r.SourceURL = page.FinalURL
	if r.SourceURL == "" {
		r.SourceURL = target
	}
	return r, nil
}

// ReceiptByURL verifies a receipt link. The URL is gated before the
// identifier is taken out of it.
func (a *App) ReceiptByURL(ctx context.Context, raw string) (receipt.Receipt, error) {
	if _, err := a.gate.AssertAllowedURL(raw); err != nil {
		return receipt.Receipt{}, err
	}
	tx, ok := guard.ExtractTransactionIDFromURL(raw)
	if !ok {
		return receipt.Receipt{}, failure.New(failure.TxExtract).WithDetails(map[string]any{"url": raw})
	}
	return a.ReceiptByTx(ctx, tx)
}

// Parse runs the offline half of the pipeline on an already fetched page.
// It is safe for concurrent use.
func (a *App) Parse(html, tx string) (receipt.Receipt, error) {
	if err := receipt.CheckHTML(html); err != nil {
		return receipt.Receipt{}, err
	}
	doc, err := extract.FromHTML([]byte(html))
	if err != nil {
		return receipt.Receipt{}, failure.Wrap(failure.PageLoad, err)
	}
	if err := receipt.CheckNotFound(doc.Text); err != nil {
		return receipt.Receipt{}, err
	}
	pairs := extract.FilterJunk(doc.Pairs)
	log.Debug().Str("tx", tx).Int("pairs", doc.Pairs.Len()).Int("kept", pairs.Len()).Msg("extracted pairs")

	d := a.rules.Resolve(pairs, doc.Text, tx)
	r, err := receipt.Accept(d)
	if err != nil {
		log.Debug().Str("tx", tx).Interface("presence", receipt.PresenceOf(d)).Msg("receipt rejected")
		return receipt.Receipt{}, err
	}
	return r, nil
}

// Result is one entry of a batch verification.
type Result struct {
	TX      string           `json:"tx"`
	Receipt *receipt.Receipt `json:"receipt,omitempty"`
	Err     *failure.Error   `json:"error,omitempty"`
}

// ReceiptsByTx verifies txs with at most limit fetches in flight. Results keep
// input order and each stands alone: one failure never cancels the rest.
func (a *App) ReceiptsByTx(ctx context.Context, txs []string, limit int) []Result {
	results := make([]Result, len(txs))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, tx := range txs {
		i, tx := i, tx
		g.Go(func() error {
			r, err := a.ReceiptByTx(ctx, tx)
			results[i].TX = tx
			if err != nil {
				results[i].Err = failure.As(err)
				log.Warn().Str("tx", tx).Str("code", string(results[i].Err.Code)).Msg("verification failed")
				return nil
			}
			results[i].Receipt = &r
			return nil
		})
	}
	_ = g.Wait()
	return results
}
