// Package stub serves canned receipt pages in the operator's layout for local
// development and tests. Special transaction ids select failure scenarios.
package stub

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

//go:embed pages/*.html
var pages embed.FS

var receiptTmpl = template.Must(template.ParseFS(pages, "pages/receipt.html"))

// Scenario transaction ids. Any other id gets a complete receipt.
const (
	TxMissing = "NOTFOUND00" // operator "does not exist" page
	TxEmpty   = "EMPTY00000" // near-empty document
	TxPartial = "PARTIAL000" // receipt without the credited account row
	TxBroken  = "ERROR00000" // HTTP 500
	TxSlow    = "SLOW000000" // responds after Options.SlowDelay
)

// Options tunes the stub.
type Options struct {
	// SlowDelay is how long TxSlow waits before answering. Zero means 1 minute.
	SlowDelay time.Duration
	// Amount is the settled amount printed on complete receipts.
	Amount string
}

type receiptView struct {
	PayerName   string
	Invoice     string
	Amount      string
	WithAccount bool
}

// Handler serves GET /receipt/{tx}.
func Handler(opts Options) http.Handler {
	if opts.SlowDelay <= 0 {
		opts.SlowDelay = time.Minute
	}
	if opts.Amount == "" {
		opts.Amount = "1,234.50"
	}
	r := chi.NewRouter()
	r.Get("/receipt/{tx}", func(w http.ResponseWriter, r *http.Request) {
		tx := chi.URLParam(r, "tx")
		log.Debug().Str("tx", tx).Msg("stub receipt request")
		switch tx {
		case TxBroken:
			http.Error(w, "upstream failure", http.StatusInternalServerError)
			return
		case TxEmpty:
			writeHTML(w, []byte("<html><body></body></html>"))
			return
		case TxMissing:
			b, _ := pages.ReadFile("pages/missing.html")
			writeHTML(w, b)
			return
		case TxSlow:
			select {
			case <-time.After(opts.SlowDelay):
			case <-r.Context().Done():
				return
			}
		}
		var buf bytes.Buffer
		err := receiptTmpl.Execute(&buf, receiptView{
			PayerName:   "Abebe Kebede Tesfaye",
			Invoice:     strings.ToUpper(tx),
			Amount:      opts.Amount,
			WithAccount: tx != TxPartial,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeHTML(w, buf.Bytes())
	})
	return r
}

// Page renders the complete receipt for tx, for offline parsing tests.
func Page(tx string) string {
	var buf bytes.Buffer
	_ = receiptTmpl.Execute(&buf, receiptView{
		PayerName:   "Abebe Kebede Tesfaye",
		Invoice:     strings.ToUpper(tx),
		Amount:      "1,234.50",
		WithAccount: true,
	})
	return buf.String()
}

func writeHTML(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(b)
}
