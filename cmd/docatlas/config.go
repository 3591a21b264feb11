package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jsliwa/docatlas"
	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the default settings file name, looked up in
// the current directory and then the home directory.
const DefaultSettingsFile = ".docatlas"

// Settings is the YAML settings file shape. Absent fields keep their
// defaults; command-line flags override whatever the file says.
type Settings struct {
	DefaultDepth          int     `yaml:"default_depth"`
	MinDepth              int     `yaml:"min_depth"`
	MaxDepth              int     `yaml:"max_depth"`
	FollowExternalLinks   bool    `yaml:"follow_external_links"`
	RespectRobotsTxt      *bool   `yaml:"respect_robots_txt"`
	MaxPagesPerDomain     int     `yaml:"max_pages_per_domain"`
	RequestDelaySeconds   float64 `yaml:"request_delay_seconds"`
	Concurrency           int     `yaml:"concurrency"`
	FetchTimeoutSeconds   float64 `yaml:"fetch_timeout_seconds"`
	AnalyzeTimeoutSeconds float64 `yaml:"analyze_timeout_seconds"`
}

// DefaultSettings returns settings mirroring the package defaults.
func DefaultSettings() Settings {
	return Settings{
		DefaultDepth:          docatlas.DefaultMaxDepth,
		MinDepth:              docatlas.MinDepthFloor,
		MaxDepth:              docatlas.MaxDepthCeiling,
		MaxPagesPerDomain:     docatlas.DefaultMaxPagesPerDomain,
		RequestDelaySeconds:   docatlas.DefaultRequestDelay.Seconds(),
		Concurrency:           docatlas.DefaultConcurrency,
		FetchTimeoutSeconds:   docatlas.DefaultFetchTimeout.Seconds(),
		AnalyzeTimeoutSeconds: docatlas.DefaultAnalyzeTimeout.Seconds(),
	}
}

// LoadSettings reads settings from path, layered over the defaults. An
// empty path means "search for the default file"; no file at all is not
// an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	resolved := findSettingsFile(path)
	if resolved == "" {
		if path != "" {
			return s, docatlas.Errorf(docatlas.ENOTFOUND, "settings file %q not found", path)
		}
		return s, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, docatlas.Errorf(docatlas.EINVALID, "invalid settings file %s: %v", resolved, err)
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate enforces the depth ordering floor <= min <= default <= max <= ceiling.
func (s *Settings) Validate() error {
	if s.MinDepth < docatlas.MinDepthFloor {
		return docatlas.Errorf(docatlas.EINVALID, "min_depth %d below floor %d", s.MinDepth, docatlas.MinDepthFloor)
	}
	if s.MaxDepth > docatlas.MaxDepthCeiling {
		return docatlas.Errorf(docatlas.EINVALID, "max_depth %d above ceiling %d", s.MaxDepth, docatlas.MaxDepthCeiling)
	}
	if s.MinDepth > s.MaxDepth {
		return docatlas.Errorf(docatlas.EINVALID, "min_depth %d exceeds max_depth %d", s.MinDepth, s.MaxDepth)
	}
	if s.DefaultDepth < s.MinDepth || s.DefaultDepth > s.MaxDepth {
		return docatlas.Errorf(docatlas.EINVALID, "default_depth %d outside [%d, %d]", s.DefaultDepth, s.MinDepth, s.MaxDepth)
	}
	return nil
}

// ClampDepth bounds a requested depth to the configured [min, max] range.
func (s *Settings) ClampDepth(depth int) int {
	if depth < s.MinDepth {
		return s.MinDepth
	}
	if depth > s.MaxDepth {
		return s.MaxDepth
	}
	return depth
}

// CrawlConfig builds the crawl configuration for one session, applying
// any flags the user actually passed over the file settings.
func (s *Settings) CrawlConfig(cmd *CrawlCmd) docatlas.CrawlConfig {
	cfg := docatlas.CrawlConfig{
		MaxDepth:            s.DefaultDepth,
		FollowExternalLinks: s.FollowExternalLinks,
		MaxPagesPerDomain:   s.MaxPagesPerDomain,
		RequestDelay:        secondsToDuration(s.RequestDelaySeconds),
		RespectRobots:       true,
		Concurrency:         s.Concurrency,
		FetchTimeout:        secondsToDuration(s.FetchTimeoutSeconds),
		AnalyzeTimeout:      secondsToDuration(s.AnalyzeTimeoutSeconds),
	}
	if s.RespectRobotsTxt != nil {
		cfg.RespectRobots = *s.RespectRobotsTxt
	}

	if cmd.Depth != nil {
		cfg.MaxDepth = *cmd.Depth
	}
	cfg.MaxDepth = s.ClampDepth(cfg.MaxDepth)
	if cmd.External != nil {
		cfg.FollowExternalLinks = *cmd.External
	}
	if cmd.MaxPages != nil {
		cfg.MaxPagesPerDomain = *cmd.MaxPages
	}
	if cmd.Delay != nil {
		cfg.RequestDelay = secondsToDuration(*cmd.Delay)
	}
	if cmd.Robots != nil {
		cfg.RespectRobots = *cmd.Robots
	}
	if cmd.Concurrency != nil {
		cfg.Concurrency = *cmd.Concurrency
	}
	return cfg
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// findSettingsFile resolves the settings file path: an explicit path
// wins, then .docatlas in the current directory, then in home.
func findSettingsFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultSettingsFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultSettingsFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
