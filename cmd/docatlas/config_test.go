package main_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jsliwa/docatlas"
	main "github.com/jsliwa/docatlas/cmd/docatlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSettings(t *testing.T) {
	t.Parallel()

	t.Run("FileOverridesDefaults", func(t *testing.T) {
		t.Parallel()

		path := writeSettings(t, `
default_depth: 3
max_pages_per_domain: 10
request_delay_seconds: 2.5
respect_robots_txt: false
`)
		s, err := main.LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, 3, s.DefaultDepth)
		assert.Equal(t, 10, s.MaxPagesPerDomain)
		assert.InDelta(t, 2.5, s.RequestDelaySeconds, 0.001)
		require.NotNil(t, s.RespectRobotsTxt)
		assert.False(t, *s.RespectRobotsTxt)
		// Untouched fields keep their defaults.
		assert.Equal(t, docatlas.DefaultConcurrency, s.Concurrency)
	})

	t.Run("ExplicitMissingPathIsError", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Equal(t, docatlas.ENOTFOUND, docatlas.ErrorCode(err))
	})

	t.Run("RejectsDepthOrderingViolation", func(t *testing.T) {
		t.Parallel()

		path := writeSettings(t, "min_depth: 3\ndefault_depth: 2\nmax_depth: 4\n")
		_, err := main.LoadSettings(path)
		require.Error(t, err)
		assert.Equal(t, docatlas.EINVALID, docatlas.ErrorCode(err))
	})

	t.Run("RejectsDepthAboveCeiling", func(t *testing.T) {
		t.Parallel()

		path := writeSettings(t, "max_depth: 99\n")
		_, err := main.LoadSettings(path)
		require.Error(t, err)
		assert.Equal(t, docatlas.EINVALID, docatlas.ErrorCode(err))
	})
}

func TestSettings_ClampDepth(t *testing.T) {
	t.Parallel()

	s := main.DefaultSettings()
	assert.Equal(t, s.MinDepth, s.ClampDepth(0))
	assert.Equal(t, 3, s.ClampDepth(3))
	assert.Equal(t, s.MaxDepth, s.ClampDepth(99))
}

func TestSettings_CrawlConfig(t *testing.T) {
	t.Parallel()

	t.Run("FlagsOverrideFile", func(t *testing.T) {
		t.Parallel()

		s := main.DefaultSettings()
		s.DefaultDepth = 3
		s.RequestDelaySeconds = 2

		depth := 4
		delay := 0.5
		robots := false
		cmd := &main.CrawlCmd{Depth: &depth, Delay: &delay, Robots: &robots}

		cfg := s.CrawlConfig(cmd)
		assert.Equal(t, 4, cfg.MaxDepth)
		assert.Equal(t, 500*time.Millisecond, cfg.RequestDelay)
		assert.False(t, cfg.RespectRobots)
		require.NoError(t, cfg.Validate())
	})

	t.Run("UnsetFlagsFallBackToSettings", func(t *testing.T) {
		t.Parallel()

		s := main.DefaultSettings()
		s.FollowExternalLinks = true
		s.MaxPagesPerDomain = 7

		cfg := s.CrawlConfig(&main.CrawlCmd{})
		assert.Equal(t, s.DefaultDepth, cfg.MaxDepth)
		assert.True(t, cfg.FollowExternalLinks)
		assert.Equal(t, 7, cfg.MaxPagesPerDomain)
		assert.True(t, cfg.RespectRobots)
	})

	t.Run("DepthClampedToConfiguredRange", func(t *testing.T) {
		t.Parallel()

		s := main.DefaultSettings()
		s.MaxDepth = 3

		depth := 5
		cfg := s.CrawlConfig(&main.CrawlCmd{Depth: &depth})
		assert.Equal(t, 3, cfg.MaxDepth)
	})
}
