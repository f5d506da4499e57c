// Package config provides configuration loading and validation for the crawler.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Portal endpoints. The search base is also the base used to resolve the
// relative document links embedded in the results pages.
const (
	DefaultHomepageURL   = "https://www.gsccca.org/"
	DefaultLoginURL      = "https://apps.gsccca.org/login.asp"
	DefaultLienSearchURL = "https://search.gsccca.org/Lien/namesearch.asp"
	DefaultLienBaseURL   = "https://search.gsccca.org/Lien/"
)

// userAgents maps an OS name to the user agent presented to the portal.
var userAgents = map[string]string{
	"macos":   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"linux":   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"windows": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
}

// Crawler holds everything the pipeline needs to drive a run. Values come
// from a JSON config file, environment variables, or CLI flags, merged in
// that order of increasing precedence.
type Crawler struct {
	// Credentials for the portal login form.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// Browser behavior.
	Headless   bool   `json:"headless,omitempty"`
	OSName     string `json:"os_name,omitempty"`    // selects the user agent: macos, linux, windows
	Resolution string `json:"resolution,omitempty"` // viewport, e.g. "1366x900"

	// Portal endpoints; defaults target the production portal, tests override.
	HomepageURL string `json:"homepage_url,omitempty"`
	LoginURL    string `json:"login_url,omitempty"`
	SearchURL   string `json:"search_url,omitempty"`
	SearchBase  string `json:"search_base,omitempty"`

	// Filesystem layout.
	OutputDir string `json:"output_dir,omitempty"` // run output root, default "output"
	StateFile string `json:"state_file,omitempty"` // browser session state, default "cookies.json"

	// Pacing bounds (milliseconds) for the randomized human-like delay
	// inserted between interactions.
	PaceMinMs int `json:"pace_min_ms,omitempty"`
	PaceMaxMs int `json:"pace_max_ms,omitempty"`

	// NavTimeoutSec bounds every page navigation wait.
	NavTimeoutSec int `json:"nav_timeout_sec,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// FromEnv builds a Crawler from environment variables, applying defaults for
// everything unset. godotenv is loaded by the CLI entry point beforehand.
func FromEnv() *Crawler {
	cfg := &Crawler{
		Username:   os.Getenv("GSCCCA_USERNAME"),
		Password:   os.Getenv("GSCCCA_PASSWORD"),
		OSName:     os.Getenv("OS_NAME"),
		Resolution: os.Getenv("RES"),
	}
	headless := strings.ToLower(os.Getenv("HEADLESS"))
	cfg.Headless = headless == "true" || headless == "yes" || headless == "1"
	cfg.ApplyDefaults()
	return cfg
}

// LoadFile loads a Crawler from a JSON config file.
func LoadFile(path string) (*Crawler, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Crawler
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with the crawl defaults.
func (c *Crawler) ApplyDefaults() {
	if c.HomepageURL == "" {
		c.HomepageURL = DefaultHomepageURL
	}
	if c.LoginURL == "" {
		c.LoginURL = DefaultLoginURL
	}
	if c.SearchURL == "" {
		c.SearchURL = DefaultLienSearchURL
	}
	if c.SearchBase == "" {
		c.SearchBase = DefaultLienBaseURL
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.StateFile == "" {
		c.StateFile = "cookies.json"
	}
	if c.Resolution == "" {
		c.Resolution = "1366x900"
	}
	if c.OSName == "" {
		c.OSName = "windows"
	}
	if c.PaceMinMs == 0 {
		c.PaceMinMs = 1000
	}
	if c.PaceMaxMs == 0 {
		c.PaceMaxMs = 3000
	}
	if c.NavTimeoutSec == 0 {
		c.NavTimeoutSec = 60
	}
}

// Validate checks the configuration for values that would break a run.
func (c *Crawler) Validate() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("config error: portal credentials are required (GSCCCA_USERNAME / GSCCCA_PASSWORD)")
	}
	if _, _, err := c.Viewport(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.PaceMinMs > c.PaceMaxMs {
		return fmt.Errorf("config error: pace_min_ms %d exceeds pace_max_ms %d", c.PaceMinMs, c.PaceMaxMs)
	}
	if _, ok := userAgents[c.OSName]; !ok {
		return fmt.Errorf("config error: unknown os_name %q (want macos, linux or windows)", c.OSName)
	}
	return nil
}

// UserAgent returns the user agent string for the configured OS name.
func (c *Crawler) UserAgent() string {
	if ua, ok := userAgents[c.OSName]; ok {
		return ua
	}
	return userAgents["windows"]
}

// Viewport parses the Resolution field into width and height.
func (c *Crawler) Viewport() (width, height int, err error) {
	parts := strings.Split(c.Resolution, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("resolution %q is not WIDTHxHEIGHT", c.Resolution)
	}
	width, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("resolution width %q: %w", parts[0], err)
	}
	height, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("resolution height %q: %w", parts[1], err)
	}
	return width, height, nil
}

// LienOutputDir is the root for lien run artifacts (checkpoints, documents,
// result files), one subfolder per search.
func (c *Crawler) LienOutputDir() string {
	return filepath.Join(c.OutputDir, "lien")
}
