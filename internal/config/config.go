// Package config loads application settings from an optional YAML file
// with environment-variable overrides (PROXYCHECK_*). The core treats
// everything here as plain parameters.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	AppName    string `yaml:"app_name"`
	Version    string `yaml:"version"`
	ListenAddr string `yaml:"listen_addr"`

	// TestURL is the identity/geolocation endpoint probed through each
	// proxy.
	TestURL string `yaml:"test_url"`

	// DefaultTimeoutSec and DefaultMaxConcurrent apply when a request does
	// not specify its own values.
	DefaultTimeoutSec    int `yaml:"default_timeout"`
	DefaultMaxConcurrent int `yaml:"default_max_concurrent"`

	// Request validation bounds for the HTTP API.
	MinTimeoutSec    int `yaml:"min_timeout"`
	MaxTimeoutSec    int `yaml:"max_timeout"`
	MaxBatchSize     int `yaml:"max_batch_size"`
	MaxConcurrentCap int `yaml:"max_concurrent_cap"`

	// GeoIPDB optionally points at a local MaxMind City database used to
	// fill in geolocation the identity endpoint did not provide.
	GeoIPDB string `yaml:"geoip_db"`

	Verbose bool `yaml:"verbose"`
}

func Defaults() Settings {
	return Settings{
		AppName:              "Proxy Checker API",
		Version:              "1.0.0",
		ListenAddr:           "0.0.0.0:8000",
		TestURL:              "http://ip-api.com/json/",
		DefaultTimeoutSec:    10,
		DefaultMaxConcurrent: 10,
		MinTimeoutSec:        1,
		MaxTimeoutSec:        60,
		MaxBatchSize:         100,
		MaxConcurrentCap:     50,
	}
}

// Load builds Settings from defaults, then the YAML file at path (when
// non-empty), then PROXYCHECK_* environment variables.
func Load(path string) (Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&s)

	if err := s.validate(); err != nil {
		return s, err
	}
	return s, nil
}

func applyEnv(s *Settings) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("PROXYCHECK_LISTEN_ADDR", &s.ListenAddr)
	setString("PROXYCHECK_TEST_URL", &s.TestURL)
	setString("PROXYCHECK_GEOIP_DB", &s.GeoIPDB)
	setInt("PROXYCHECK_DEFAULT_TIMEOUT", &s.DefaultTimeoutSec)
	setInt("PROXYCHECK_DEFAULT_MAX_CONCURRENT", &s.DefaultMaxConcurrent)
	setInt("PROXYCHECK_MAX_BATCH_SIZE", &s.MaxBatchSize)

	if v, ok := os.LookupEnv("PROXYCHECK_VERBOSE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Verbose = b
		}
	}
}

func (s Settings) validate() error {
	if s.TestURL == "" {
		return fmt.Errorf("test_url must not be empty")
	}
	if s.DefaultTimeoutSec < s.MinTimeoutSec || s.DefaultTimeoutSec > s.MaxTimeoutSec {
		return fmt.Errorf("default_timeout %d outside %d-%d", s.DefaultTimeoutSec, s.MinTimeoutSec, s.MaxTimeoutSec)
	}
	if s.DefaultMaxConcurrent < 1 || s.DefaultMaxConcurrent > s.MaxConcurrentCap {
		return fmt.Errorf("default_max_concurrent %d outside 1-%d", s.DefaultMaxConcurrent, s.MaxConcurrentCap)
	}
	if s.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be >= 1")
	}
	return nil
}

// DefaultTimeout returns the default per-probe timeout as a duration.
func (s Settings) DefaultTimeout() time.Duration {
	return time.Duration(s.DefaultTimeoutSec) * time.Second
}
