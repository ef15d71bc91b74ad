// Package config loads the YAML run configuration. All settings reach
// components as explicit values passed into constructors; nothing is
// read from ambient state.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes one listing source. BaseURL is the page URL
// prefix the page number is appended to.
type SourceConfig struct {
	Type      string            `yaml:"type"` // moshtix | eventbrite
	Name      string            `yaml:"name"` // source tag; defaults to Type
	BaseURL   string            `yaml:"base_url"`
	Headers   map[string]string `yaml:"headers"`
	FirstPage *int              `yaml:"first_page"` // unset means 1; 0 for sources that index from 0
	PageBound int               `yaml:"page_bound"` // fixed operator-supplied bound; 0 = discover
}

// DedupeConfig selects the duplicate tie-break policy.
type DedupeConfig struct {
	Keep          string `yaml:"keep"` // first | last
	TitleTieBreak bool   `yaml:"title_tie_break"`
}

// NormalizeConfig selects case styling for display fields.
type NormalizeConfig struct {
	TitleStyle  string `yaml:"title_style"`
	VenueStyle  string `yaml:"venue_style"`
	SuburbStyle string `yaml:"suburb_style"`
}

// VenueLookupConfig points the fallback venue resolution at its search
// site.
type VenueLookupConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FilterConfig narrows the final event list. All criteria are optional;
// From and To are YYYY-MM-DD.
type FilterConfig struct {
	From         string   `yaml:"from"`
	To           string   `yaml:"to"`
	Titles       []string `yaml:"titles"`
	Venues       []string `yaml:"venues"`
	Suburbs      []string `yaml:"suburbs"`
	States       []string `yaml:"states"`
	Genres       []string `yaml:"genres"`
	WeekendsOnly bool     `yaml:"weekends_only"`
	MaxPrice     float64  `yaml:"max_price"`
}

// Config is the full run configuration.
type Config struct {
	VenuesPath   string        `yaml:"venues_path"`
	OutputPath   string        `yaml:"output_path"`
	CalendarPath string        `yaml:"calendar_path"` // optional iCalendar output
	WindowDays   int           `yaml:"window_days"`   // 0 disables the date window filter
	Workers      int           `yaml:"workers"`       // in-flight requests per source
	Timeout      time.Duration `yaml:"timeout"`       // per-request
	Retries      int           `yaml:"retries"`       // extra attempts per page; -1 disables retry
	Backoff      time.Duration `yaml:"backoff"`       // initial retry delay
	UserAgent    string        `yaml:"user_agent"`

	Sources   []SourceConfig    `yaml:"sources"`
	Dedupe    DedupeConfig      `yaml:"dedupe"`
	Normalize NormalizeConfig   `yaml:"normalize"`
	Venues    VenueLookupConfig `yaml:"venue_lookup"`
	Filter    FilterConfig      `yaml:"filter"`
}

// Defaults chosen to respect target-site load while still finishing a
// multi-source run quickly.
const (
	DefaultWorkers   = 6
	DefaultTimeout   = 12 * time.Second
	DefaultRetries   = 2
	DefaultBackoff   = 500 * time.Millisecond
	DefaultUserAgent = "gigs/1.0 (github.com/mintydevdaz/gigs)"
)

// Load reads and validates a YAML config file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	// An omitted retries key decodes to 0, so 0 means "use the
	// default"; disabling retry is spelled -1.
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	} else if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Dedupe.Keep == "" {
		c.Dedupe.Keep = "first"
	}
	for i := range c.Sources {
		if c.Sources[i].Name == "" {
			c.Sources[i].Name = c.Sources[i].Type
		}
		if c.Sources[i].FirstPage == nil {
			one := 1
			c.Sources[i].FirstPage = &one
		}
	}
}

func (c *Config) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no sources configured")
	}
	for _, s := range c.Sources {
		if s.Type == "" {
			return errors.New("source missing type")
		}
		if s.BaseURL == "" {
			return fmt.Errorf("source %q missing base_url", s.Name)
		}
		if s.FirstPage != nil && *s.FirstPage < 0 {
			return fmt.Errorf("source %q first_page must be 0 or greater", s.Name)
		}
	}
	if c.Dedupe.Keep != "first" && c.Dedupe.Keep != "last" {
		return fmt.Errorf("dedupe.keep must be first or last, got %q", c.Dedupe.Keep)
	}
	if c.OutputPath == "" {
		return errors.New("output_path is required")
	}
	if c.VenuesPath == "" {
		return errors.New("venues_path is required")
	}
	return nil
}
