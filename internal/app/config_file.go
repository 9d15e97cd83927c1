package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags/env.
type FileConfig struct {
	Listen string `yaml:"listen" json:"listen"`

	Receipt struct {
		URLTemplate  string   `yaml:"urlTemplate" json:"urlTemplate"`
		AllowedHosts []string `yaml:"allowedHosts" json:"allowedHosts"`
	} `yaml:"receipt" json:"receipt"`

	Fetch struct {
		Kind          string `yaml:"kind" json:"kind"`
		TimeoutMs     int    `yaml:"timeoutMs" json:"timeoutMs"`
		SettleDelayMs int    `yaml:"settleDelayMs" json:"settleDelayMs"`
		MaxConcurrent int    `yaml:"maxConcurrent" json:"maxConcurrent"`
		UserAgent     string `yaml:"userAgent" json:"userAgent"`
	} `yaml:"fetch" json:"fetch"`

	Browser struct {
		ChromePath string `yaml:"chromePath" json:"chromePath"`
	} `yaml:"browser" json:"browser"`

	CORS struct {
		Origins []string `yaml:"origins" json:"origins"`
	} `yaml:"cors" json:"cors"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still at their defaults. Flags and prefixed env have already
// been parsed; this lets the file supply values while preserving them.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	def := DefaultConfig()

	if (cfg.ListenAddr == "" || cfg.ListenAddr == def.ListenAddr) && fc.Listen != "" {
		cfg.ListenAddr = fc.Listen
	}
	if (cfg.ReceiptURLTemplate == "" || cfg.ReceiptURLTemplate == def.ReceiptURLTemplate) && fc.Receipt.URLTemplate != "" {
		cfg.ReceiptURLTemplate = fc.Receipt.URLTemplate
	}
	if len(cfg.AllowedHosts) == 0 && len(fc.Receipt.AllowedHosts) > 0 {
		cfg.AllowedHosts = append([]string{}, fc.Receipt.AllowedHosts...)
	}

	if (cfg.Fetcher == "" || cfg.Fetcher == def.Fetcher) && fc.Fetch.Kind != "" {
		cfg.Fetcher = fc.Fetch.Kind
	}
	if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == def.FetchTimeout) && fc.Fetch.TimeoutMs > 0 {
		cfg.FetchTimeout = time.Duration(fc.Fetch.TimeoutMs) * time.Millisecond
	}
	if (cfg.SettleDelay == 0 || cfg.SettleDelay == def.SettleDelay) && fc.Fetch.SettleDelayMs > 0 {
		cfg.SettleDelay = time.Duration(fc.Fetch.SettleDelayMs) * time.Millisecond
	}
	if (cfg.MaxConcurrent == 0 || cfg.MaxConcurrent == def.MaxConcurrent) && fc.Fetch.MaxConcurrent > 0 {
		cfg.MaxConcurrent = fc.Fetch.MaxConcurrent
	}
	if (cfg.UserAgent == "" || cfg.UserAgent == def.UserAgent) && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if cfg.ChromePath == "" && fc.Browser.ChromePath != "" {
		cfg.ChromePath = fc.Browser.ChromePath
	}
	if len(cfg.CORSOrigins) == 0 && len(fc.CORS.Origins) > 0 {
		cfg.CORSOrigins = append([]string{}, fc.CORS.Origins...)
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
