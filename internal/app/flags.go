package app

import (
	"time"

	"github.com/peterbourgon/ff/v4"
)

// EnvPrefix maps flags to environment variables: --fetch-timeout-ms reads
// TELEBIRR_FETCH_TIMEOUT_MS.
const EnvPrefix = "TELEBIRR"

// BindFlags registers the shared configuration flags on fs. The returned
// function builds the Config once fs has been parsed: flags and prefixed env
// first, then the --config file for anything left at its default, then the
// conventional unprefixed env.
func BindFlags(fs *ff.FlagSet) func() (Config, error) {
	def := DefaultConfig()
	var (
		listen     = fs.StringLong("listen", def.ListenAddr, "HTTP listen address")
		template   = fs.StringLong("receipt-url", def.ReceiptURLTemplate, "receipt URL template; {tx} is replaced by the transaction id")
		allowed    = fs.StringLong("allowed-hosts", "", "comma-separated receipt hosts (default: the template host)")
		fetcher    = fs.StringLong("fetcher", def.Fetcher, "fetch backend: browser or http")
		timeoutMs  = fs.IntLong("fetch-timeout-ms", int(def.FetchTimeout/time.Millisecond), "per-fetch timeout in milliseconds")
		settleMs   = fs.IntLong("settle-delay-ms", int(def.SettleDelay/time.Millisecond), "wait after the page is ready, for late scripts")
		chrome     = fs.StringLong("chrome-path", "", "Chrome/Chromium executable (default: auto-detect)")
		userAgent  = fs.StringLong("user-agent", def.UserAgent, "User-Agent sent to the receipt host")
		maxConc    = fs.IntLong("max-concurrent", def.MaxConcurrent, "maximum concurrent fetches (0 = unlimited)")
		origins    = fs.StringLong("cors-origins", "", "comma-separated allowed CORS origins (default: any)")
		configPath = fs.StringLong("config", "", "YAML or JSON config file")
		verbose    = fs.Bool('v', "verbose", "verbose logging")
	)
	return func() (Config, error) {
		cfg := Config{
			ListenAddr:         *listen,
			ReceiptURLTemplate: *template,
			AllowedHosts:       SplitList(*allowed),
			Fetcher:            *fetcher,
			FetchTimeout:       time.Duration(*timeoutMs) * time.Millisecond,
			SettleDelay:        time.Duration(*settleMs) * time.Millisecond,
			ChromePath:         *chrome,
			UserAgent:          *userAgent,
			MaxConcurrent:      *maxConc,
			CORSOrigins:        SplitList(*origins),
			Verbose:            *verbose,
		}
		if *configPath != "" {
			fc, err := LoadConfigFile(*configPath)
			if err != nil {
				return cfg, err
			}
			ApplyFileConfig(&cfg, fc)
		}
		ApplyEnvToConfig(&cfg)
		return cfg, ValidateConfig(cfg)
	}
}
