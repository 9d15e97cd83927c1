package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hyperifyio/telebirr-verify/internal/guard"
)

// Fetcher kinds.
const (
	FetcherBrowser = "browser"
	FetcherHTTP    = "http"
)

// Config holds runtime configuration for the application.
type Config struct {
	ListenAddr string

	// Receipt source
	ReceiptURLTemplate string
	// AllowedHosts defaults to the template host when empty.
	AllowedHosts []string

	// Fetch
	Fetcher       string
	FetchTimeout  time.Duration
	SettleDelay   time.Duration
	ChromePath    string
	UserAgent     string
	MaxConcurrent int

	// HTTP surface
	CORSOrigins []string

	Verbose bool
}

const (
	defaultListenAddr    = ":8080"
	defaultFetchTimeout  = 30 * time.Second
	defaultSettleDelay   = 500 * time.Millisecond
	defaultUserAgent     = "telebirr-verify/1.0 (+https://github.com/hyperifyio/telebirr-verify)"
	defaultMaxConcurrent = 4
)

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         defaultListenAddr,
		ReceiptURLTemplate: guard.DefaultTemplate,
		Fetcher:            FetcherBrowser,
		FetchTimeout:       defaultFetchTimeout,
		SettleDelay:        defaultSettleDelay,
		UserAgent:          defaultUserAgent,
		MaxConcurrent:      defaultMaxConcurrent,
	}
}

// TemplateHost is the host receipt URLs are built against.
func (c Config) TemplateHost() string {
	u, err := url.Parse(guard.BuildReceiptURL(c.ReceiptURLTemplate, "0000000000"))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Gate builds the URL gate from the allow-list, falling back to the template
// host.
func (c Config) Gate() *guard.Gate {
	if len(c.AllowedHosts) > 0 {
		return guard.NewGate(c.AllowedHosts...)
	}
	return guard.NewGate(c.TemplateHost())
}

// ValidateConfig rejects settings that would make every verification fail.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ReceiptURLTemplate) == "" {
		return errors.New("config: receipt url template is required")
	}
	probe := guard.BuildReceiptURL(cfg.ReceiptURLTemplate, "0000000000")
	u, err := url.Parse(probe)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return fmt.Errorf("config: receipt url template %q must be an absolute http(s) url", cfg.ReceiptURLTemplate)
	}
	if _, err := cfg.Gate().AssertAllowedURL(probe); err != nil {
		return fmt.Errorf("config: template host %q is not in the allowed hosts", u.Hostname())
	}
	if cfg.FetchTimeout <= 0 {
		return errors.New("config: fetch timeout must be positive")
	}
	if cfg.SettleDelay < 0 || cfg.MaxConcurrent < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	switch cfg.Fetcher {
	case FetcherBrowser, FetcherHTTP:
	default:
		return fmt.Errorf("config: unknown fetcher %q (want %s or %s)", cfg.Fetcher, FetcherBrowser, FetcherHTTP)
	}
	return nil
}

// ApplyEnvToConfig fills unset fields from conventional, unprefixed
// environment variables used by container images and PaaS runtimes.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.ChromePath == "" {
		// chromedp images export CHROME_BIN; some distros use CHROME_PATH
		v := os.Getenv("CHROME_PATH")
		if v == "" {
			v = os.Getenv("CHROME_BIN")
		}
		cfg.ChromePath = v
	}
	if cfg.ListenAddr == "" || cfg.ListenAddr == defaultListenAddr {
		if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
			cfg.ListenAddr = ":" + p
		}
	}
}

// SplitList parses a comma-separated flag or env value.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return list
}
