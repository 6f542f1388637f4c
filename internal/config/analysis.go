package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

const (
	EnvAnalysisWindowMonths = "VERNE_ANALYSIS_WINDOW_MONTHS"
	EnvAnalysisMinMonths    = "VERNE_ANALYSIS_MIN_MONTHS"
	EnvAnalysisTopSeries    = "VERNE_ANALYSIS_TOP_SERIES"
	EnvAnalysisZeroMean     = "VERNE_ANALYSIS_ZERO_MEAN"
	EnvAnalysisResultTTL    = "VERNE_ANALYSIS_RESULT_TTL"
	EnvAnalysisMaxMonths    = "VERNE_ANALYSIS_MAX_MONTHS"
)

// AnalysisConfig holds classification run parameters.
type AnalysisConfig struct {
	WindowMonths int    `toml:"window_months"`
	MinMonths    int    `toml:"min_months"`
	MaxMonths    int    `toml:"max_months"`
	TopSeries    int    `toml:"top_series"`
	ZeroMean     string `toml:"zero_mean"`
	ResultTTL    string `toml:"result_ttl"`
}

// Options returns the engine options derived from the config.
func (c *AnalysisConfig) Options() abcxyz.Options {
	zero, _ := abcxyz.ParseZeroMean(c.ZeroMean)
	return abcxyz.Options{ZeroMean: zero, TopSeries: c.TopSeries}
}

// ResultTTLDuration returns ResultTTL as a time.Duration.
func (c *AnalysisConfig) ResultTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.ResultTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.WindowMonths != 0 {
		c.WindowMonths = overlay.WindowMonths
	}
	if overlay.MinMonths != 0 {
		c.MinMonths = overlay.MinMonths
	}
	if overlay.MaxMonths != 0 {
		c.MaxMonths = overlay.MaxMonths
	}
	if overlay.TopSeries != 0 {
		c.TopSeries = overlay.TopSeries
	}
	if overlay.ZeroMean != "" {
		c.ZeroMean = overlay.ZeroMean
	}
	if overlay.ResultTTL != "" {
		c.ResultTTL = overlay.ResultTTL
	}
}

func (c *AnalysisConfig) loadDefaults() {
	if c.WindowMonths == 0 {
		c.WindowMonths = 12
	}
	if c.MinMonths == 0 {
		c.MinMonths = 3
	}
	if c.MaxMonths == 0 {
		c.MaxMonths = abcxyz.DefaultMaxMonths
	}
	if c.TopSeries == 0 {
		c.TopSeries = 3
	}
	if c.ZeroMean == "" {
		c.ZeroMean = string(abcxyz.ZeroMeanStable)
	}
	if c.ResultTTL == "" {
		c.ResultTTL = "1h"
	}
}

func (c *AnalysisConfig) loadEnv() {
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(EnvAnalysisWindowMonths, &c.WindowMonths)
	setInt(EnvAnalysisMinMonths, &c.MinMonths)
	setInt(EnvAnalysisMaxMonths, &c.MaxMonths)
	setInt(EnvAnalysisTopSeries, &c.TopSeries)

	if v := os.Getenv(EnvAnalysisZeroMean); v != "" {
		c.ZeroMean = v
	}
	if v := os.Getenv(EnvAnalysisResultTTL); v != "" {
		c.ResultTTL = v
	}
}

func (c *AnalysisConfig) validate() error {
	if c.WindowMonths < 1 {
		return fmt.Errorf("window_months must be positive: %d", c.WindowMonths)
	}
	if c.MinMonths < 1 || c.MinMonths > c.WindowMonths {
		return fmt.Errorf("min_months must be between 1 and window_months: %d", c.MinMonths)
	}
	if c.MaxMonths < c.WindowMonths {
		return fmt.Errorf("max_months must be at least window_months: %d", c.MaxMonths)
	}
	if c.TopSeries < 0 {
		return fmt.Errorf("top_series must not be negative: %d", c.TopSeries)
	}
	if _, err := abcxyz.ParseZeroMean(c.ZeroMean); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.ResultTTL); err != nil {
		return fmt.Errorf("invalid result_ttl: %w", err)
	}
	return nil
}
