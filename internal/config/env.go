package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Environment variables recognised on top of the config file.
const (
	EnvBaseURL      = "SEQUENCE_LIBRARIES_URL"
	EnvMaxAttempts  = "SEQDASH_MAX_ATTEMPTS"
	EnvRetryBackoff = "SEQDASH_RETRY_BACKOFF_SECONDS"
	EnvConcurrency  = "SEQDASH_CONCURRENCY"
	EnvListen       = "SEQDASH_LISTEN"
)

// applyEnv overlays environment values. lookup is os.LookupEnv outside tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		c.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup(EnvMaxAttempts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxAttempts, err)
		}
		c.MaxAttempts = n
	}
	if v, ok := lookup(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConcurrency, err)
		}
		c.Concurrency = n
	}
	if v, ok := lookup(EnvRetryBackoff); ok && v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRetryBackoff, err)
		}
		c.RetryBackoff = time.Duration(secs * float64(time.Second))
	}
	return nil
}
