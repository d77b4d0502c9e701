// Package config holds the optional YAML comparison configuration: volatile
// fields to ignore in body diffs, infrastructure headers to drop, the call
// marker of the export format, and the static asset extensions skipped by
// HAR import.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// CallMarker overrides the invocation token scanned for in exports.
	CallMarker string `yaml:"call_marker"`

	// IgnoreFields and IgnorePatterns select body fields whose changes are
	// volatile noise (timestamps, generated IDs) rather than real drift.
	IgnoreFields   []string `yaml:"ignore_fields"`
	IgnorePatterns []string `yaml:"ignore_patterns"`

	// IgnoreHeaders lists headers excluded from header comparison. A
	// trailing * matches by prefix.
	IgnoreHeaders []string `yaml:"ignore_headers"`

	// StaticAssetExtensions are URL suffixes filtered out by HAR import.
	StaticAssetExtensions []string `yaml:"static_asset_extensions"`

	compiledPatterns []*regexp.Regexp
}

// Default returns the built-in configuration. Header and asset lists follow
// what browser captures typically carry as infrastructure noise.
func Default() *Config {
	cfg := &Config{
		CallMarker: "fetch",
		IgnoreFields: []string{
			"timestamp",
			"createdAt",
			"updatedAt",
			"requestId",
			"traceId",
			"spanId",
		},
		IgnorePatterns: []string{
			`(?i).*_at$`,
			`(?i).*timestamp.*`,
		},
		IgnoreHeaders: []string{
			"access-token", "authorization",
			"accept-encoding", "accept-language", "age", "alt-svc",
			"cache-control", "cf-*", "connection", "content-encoding",
			"content-length", "cookie", "date", "etag", "expect-ct",
			"expires", "host", "if-none-match", "keep-alive",
			"last-modified", "nel", "origin", "pragma", "priority",
			"referer", "referrer-policy", "report-to", "sec-ch-ua*",
			"sec-fetch-*", "server", "server-timing", "set-cookie",
			"strict-transport-security", "transfer-encoding", "user-agent",
			"vary", "via", "x-content-type-options", "x-frame-options",
			"x-powered-by", "x-ratelimit-*", "x-request-id", "x-runtime",
			"x-xss-protection",
		},
		StaticAssetExtensions: []string{
			".js", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg",
			".ico", ".woff", ".woff2", ".ttf", ".eot", ".map",
			".pdf", ".zip", ".tar", ".gz",
		},
	}

	if err := cfg.compile(); err != nil {
		// Built-in patterns are constants; a failure here is a bug.
		panic(err)
	}

	return cfg
}

// Load reads a YAML file and merges it over the defaults: list fields
// append, scalar fields replace when set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg := Default()
	if loaded.CallMarker != "" {
		cfg.CallMarker = loaded.CallMarker
	}
	cfg.IgnoreFields = append(cfg.IgnoreFields, loaded.IgnoreFields...)
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, loaded.IgnorePatterns...)
	cfg.IgnoreHeaders = append(cfg.IgnoreHeaders, loaded.IgnoreHeaders...)
	cfg.StaticAssetExtensions = append(cfg.StaticAssetExtensions, loaded.StaticAssetExtensions...)

	if err := cfg.compile(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// AddIgnores appends command-line supplied fields, patterns and headers.
func (c *Config) AddIgnores(fields, patterns, headers []string) error {
	c.IgnoreFields = append(c.IgnoreFields, fields...)
	c.IgnorePatterns = append(c.IgnorePatterns, patterns...)
	c.IgnoreHeaders = append(c.IgnoreHeaders, headers...)

	return c.compile()
}

func (c *Config) compile() error {
	c.compiledPatterns = c.compiledPatterns[:0]
	for _, pattern := range c.IgnorePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("ignore pattern %q: %w", pattern, err)
		}
		c.compiledPatterns = append(c.compiledPatterns, re)
	}

	return nil
}

// IgnoreField reports whether a body field name is volatile.
func (c *Config) IgnoreField(name string) bool {
	for _, f := range c.IgnoreFields {
		if strings.EqualFold(name, f) {
			return true
		}
	}

	for _, re := range c.compiledPatterns {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}

// IgnoreHeader reports whether a header is excluded from comparison.
// Entries ending in * match by prefix.
func (c *Config) IgnoreHeader(name string) bool {
	lower := strings.ToLower(name)

	for _, h := range c.IgnoreHeaders {
		if prefix, ok := strings.CutSuffix(h, "*"); ok {
			if strings.HasPrefix(lower, prefix) {
				return true
			}
			continue
		}
		if lower == h {
			return true
		}
	}

	return false
}

// IsStaticAsset reports whether a URL path points at a bundled asset rather
// than an API endpoint.
func (c *Config) IsStaticAsset(path string) bool {
	lower := strings.ToLower(path)

	for _, ext := range c.StaticAssetExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}
