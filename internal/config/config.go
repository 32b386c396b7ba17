// Package config loads scraper settings from defaults, a YAML file, .env,
// TIKTOK_* environment variables and command line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	tiktok "github.com/RavensCloud/tiktok-metrics"
)

// Config holds every tunable of a scrape run.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Feed      FeedConfig      `yaml:"feed"`
	Pacing    PacingConfig    `yaml:"pacing"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Selectors SelectorsConfig `yaml:"selectors"`
}

// BrowserConfig selects and configures the automation engine.
type BrowserConfig struct {
	Engine        string        `yaml:"engine"`
	Headless      bool          `yaml:"headless"`
	Proxy         string        `yaml:"proxy"`
	UserAgent     string        `yaml:"user_agent"`
	BlockMedia    bool          `yaml:"block_media"`
	ActionTimeout time.Duration `yaml:"action_timeout"`
}

// FeedConfig tunes the scroll loop that loads a profile's feed.
type FeedConfig struct {
	InitialWait       time.Duration `yaml:"initial_wait"`
	NoChangeThreshold int           `yaml:"no_change_threshold"`
	MaxAttempts       int           `yaml:"max_attempts"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	NudgeDistance     int           `yaml:"nudge_distance"`
	NudgeDelay        time.Duration `yaml:"nudge_delay"`
	TopDelay          time.Duration `yaml:"top_delay"`
}

// Range is a min/max pause.
type Range struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// PacingConfig holds the randomized pauses around browser actions.
type PacingConfig struct {
	AfterNavigate   Range `yaml:"after_navigate"`
	BeforeClick     Range `yaml:"before_click"`
	AfterLoad       Range `yaml:"after_load"`
	BeforeBack      Range `yaml:"before_back"`
	BetweenItems    Range `yaml:"between_items"`
	BetweenProfiles Range `yaml:"between_profiles"`
}

// ScrapeConfig bounds the work done per profile.
type ScrapeConfig struct {
	// MaxVideos caps videos per profile; 0 means all.
	MaxVideos     int           `yaml:"max_videos"`
	LookupProfile bool          `yaml:"lookup_profile"`
	LookupDelay   time.Duration `yaml:"lookup_delay"`
}

// OutputConfig says where and how CSV files are written.
type OutputConfig struct {
	Dir  string `yaml:"dir"`
	Mode string `yaml:"mode"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// SelectorsConfig replaces built-in CSS selectors. Empty lists keep the
// defaults. Metric keys are views, likes, bookmarks and comments.
type SelectorsConfig struct {
	FeedItems []string            `yaml:"feed_items"`
	FeedViews []string            `yaml:"feed_views"`
	Primary   map[string][]string `yaml:"primary"`
	Fallback  map[string][]string `yaml:"fallback"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	feed := tiktok.DefaultFeedOptions()
	pacing := tiktok.DefaultPacing()
	browser := tiktok.DefaultBrowserOptions()
	return &Config{
		Browser: BrowserConfig{
			Engine:        browser.Engine,
			Headless:      browser.Headless,
			UserAgent:     browser.UserAgent,
			BlockMedia:    browser.BlockMedia,
			ActionTimeout: browser.ActionTimeout,
		},
		Feed: FeedConfig{
			InitialWait:       5 * time.Second,
			NoChangeThreshold: feed.NoChangeThreshold,
			MaxAttempts:       feed.MaxAttempts,
			SettleDelay:       feed.SettleDelay,
			NudgeDistance:     feed.NudgeDistance,
			NudgeDelay:        feed.NudgeDelay,
			TopDelay:          feed.TopDelay,
		},
		Pacing: PacingConfig{
			AfterNavigate:   Range(pacing.AfterNavigate),
			BeforeClick:     Range(pacing.BeforeClick),
			AfterLoad:       Range(pacing.AfterLoad),
			BeforeBack:      Range(pacing.BeforeBack),
			BetweenItems:    Range(pacing.BetweenItems),
			BetweenProfiles: Range(pacing.BetweenProfile),
		},
		Scrape: ScrapeConfig{
			LookupDelay: 1 * time.Second,
		},
		Output: OutputConfig{
			Dir:  tiktok.DefaultOutputDir,
			Mode: string(tiktok.ModePerProfile),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the default locations, and finding nothing there is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches for a config file in the standard locations.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".tiktok-metrics.yaml",
		".tiktok-metrics.yml",
	}
	if home != "" {
		locations = append(locations,
			filepath.Join(home, ".config", "tiktok-metrics", "config.yaml"),
			filepath.Join(home, ".config", "tiktok-metrics", "config.yml"),
		)
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// LoadFromEnv overrides settings from TIKTOK_* environment variables.
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	setBool := func(key string, dst *bool) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	setString("TIKTOK_ENGINE", &c.Browser.Engine)
	setBool("TIKTOK_HEADLESS", &c.Browser.Headless)
	setString("TIKTOK_PROXY", &c.Browser.Proxy)
	setString("TIKTOK_USER_AGENT", &c.Browser.UserAgent)
	setInt("TIKTOK_MAX_VIDEOS", &c.Scrape.MaxVideos)
	setBool("TIKTOK_LOOKUP_PROFILE", &c.Scrape.LookupProfile)
	setString("TIKTOK_OUTPUT_DIR", &c.Output.Dir)
	setString("TIKTOK_OUTPUT_MODE", &c.Output.Mode)
	setString("TIKTOK_LOG_LEVEL", &c.Logging.Level)
	setString("TIKTOK_LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// MergeFlags applies command line flags. Only flags present in the map are
// applied, so the caller passes just the ones the user set.
func (c *Config) MergeFlags(flags map[string]any) {
	if v, ok := flags["engine"].(string); ok && v != "" {
		c.Browser.Engine = v
	}
	if v, ok := flags["headful"].(bool); ok {
		c.Browser.Headless = !v
	}
	if v, ok := flags["proxy"].(string); ok {
		c.Browser.Proxy = v
	}
	if v, ok := flags["max-videos"].(int); ok {
		c.Scrape.MaxVideos = v
	}
	if v, ok := flags["lookup-profile"].(bool); ok {
		c.Scrape.LookupProfile = v
	}
	if v, ok := flags["output-dir"].(string); ok && v != "" {
		c.Output.Dir = v
	}
	if v, ok := flags["combined"].(bool); ok {
		if v {
			c.Output.Mode = string(tiktok.ModeCombined)
		} else {
			c.Output.Mode = string(tiktok.ModePerProfile)
		}
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	switch c.Browser.Engine {
	case tiktok.EngineRod, tiktok.EngineChromedp:
	default:
		errs = append(errs, fmt.Errorf("browser.engine must be %q or %q, got %q",
			tiktok.EngineRod, tiktok.EngineChromedp, c.Browser.Engine))
	}
	if c.Browser.ActionTimeout <= 0 {
		errs = append(errs, errors.New("browser.action_timeout must be positive"))
	}

	if c.Feed.NoChangeThreshold <= 0 {
		errs = append(errs, errors.New("feed.no_change_threshold must be positive"))
	}
	if c.Feed.MaxAttempts <= 0 {
		errs = append(errs, errors.New("feed.max_attempts must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"feed.initial_wait": c.Feed.InitialWait,
		"feed.settle_delay": c.Feed.SettleDelay,
		"feed.nudge_delay":  c.Feed.NudgeDelay,
		"feed.top_delay":    c.Feed.TopDelay,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative", name))
		}
	}

	for name, r := range map[string]Range{
		"pacing.after_navigate":   c.Pacing.AfterNavigate,
		"pacing.before_click":     c.Pacing.BeforeClick,
		"pacing.after_load":       c.Pacing.AfterLoad,
		"pacing.before_back":      c.Pacing.BeforeBack,
		"pacing.between_items":    c.Pacing.BetweenItems,
		"pacing.between_profiles": c.Pacing.BetweenProfiles,
	} {
		if r.Min < 0 || r.Max < r.Min {
			errs = append(errs, fmt.Errorf("%s: need 0 <= min <= max, got %v..%v", name, r.Min, r.Max))
		}
	}

	if c.Scrape.MaxVideos < 0 {
		errs = append(errs, errors.New("scrape.max_videos cannot be negative"))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	if _, err := tiktok.ParseOutputMode(c.Output.Mode); err != nil {
		errs = append(errs, fmt.Errorf("output.mode: %w", err))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	for _, group := range []map[string][]string{c.Selectors.Primary, c.Selectors.Fallback} {
		for key := range group {
			if !knownMetric(key) {
				errs = append(errs, fmt.Errorf("selectors: unknown metric %q", key))
			}
		}
	}

	return errors.Join(errs...)
}

// Load loads configuration from all sources with proper precedence:
// flags > environment (including .env) > config file > defaults.
func Load(configPath string, flags map[string]any) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	cfg.MergeFlags(flags)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// BrowserOptions converts the browser section for tiktok.NewLauncher.
func (c *Config) BrowserOptions(log zerolog.Logger) tiktok.BrowserOptions {
	return tiktok.BrowserOptions{
		Engine:        c.Browser.Engine,
		Headless:      c.Browser.Headless,
		Proxy:         c.Browser.Proxy,
		UserAgent:     c.Browser.UserAgent,
		BlockMedia:    c.Browser.BlockMedia,
		ActionTimeout: c.Browser.ActionTimeout,
		Logger:        log,
	}
}

// OrchestratorOptions converts the feed, pacing, scrape and selector
// sections. Lookup is left for the caller to set.
func (c *Config) OrchestratorOptions(log zerolog.Logger) tiktok.OrchestratorOptions {
	return tiktok.OrchestratorOptions{
		MaxVideos:   c.Scrape.MaxVideos,
		InitialWait: c.Feed.InitialWait,
		Pacing:      c.PacingOptions(),
		Feed: tiktok.FeedOptions{
			NoChangeThreshold: c.Feed.NoChangeThreshold,
			MaxAttempts:       c.Feed.MaxAttempts,
			SettleDelay:       c.Feed.SettleDelay,
			NudgeDistance:     c.Feed.NudgeDistance,
			NudgeDelay:        c.Feed.NudgeDelay,
			TopDelay:          c.Feed.TopDelay,
		},
		Selectors: c.SelectorSet(),
		Logger:    log,
	}
}

// PacingOptions converts the pacing section.
func (c *Config) PacingOptions() tiktok.PacingOptions {
	return tiktok.PacingOptions{
		AfterNavigate:  tiktok.Range(c.Pacing.AfterNavigate),
		BeforeClick:    tiktok.Range(c.Pacing.BeforeClick),
		AfterLoad:      tiktok.Range(c.Pacing.AfterLoad),
		BeforeBack:     tiktok.Range(c.Pacing.BeforeBack),
		BetweenItems:   tiktok.Range(c.Pacing.BetweenItems),
		BetweenProfile: tiktok.Range(c.Pacing.BetweenProfiles),
	}
}

// SelectorSet returns the default selectors with configured lists swapped in.
func (c *Config) SelectorSet() tiktok.Selectors {
	sel := tiktok.DefaultSelectors()
	if len(c.Selectors.FeedItems) > 0 {
		sel.FeedItems = cascade("feed-items", c.Selectors.FeedItems)
	}
	if len(c.Selectors.FeedViews) > 0 {
		sel.FeedViews = cascade("feed-views", c.Selectors.FeedViews)
	}
	for key, list := range c.Selectors.Primary {
		if len(list) > 0 {
			sel.Primary[tiktok.Metric(key)] = cascade(key, list)
		}
	}
	for key, list := range c.Selectors.Fallback {
		if len(list) > 0 {
			sel.Fallback[tiktok.Metric(key)] = cascade(key+"-fallback", list)
		}
	}
	return sel
}

// Mode returns the parsed output mode.
func (c *Config) Mode() tiktok.OutputMode {
	m, err := tiktok.ParseOutputMode(c.Output.Mode)
	if err != nil {
		return tiktok.ModePerProfile
	}
	return m
}

func cascade(prefix string, selectors []string) tiktok.Cascade {
	out := make(tiktok.Cascade, 0, len(selectors))
	for i, s := range selectors {
		out = append(out, tiktok.Locator{Name: fmt.Sprintf("%s-%d", prefix, i+1), Selector: s})
	}
	return out
}

func knownMetric(key string) bool {
	for _, m := range tiktok.Metrics {
		if string(m) == key {
			return true
		}
	}
	return false
}
