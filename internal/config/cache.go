package config

import (
    "time"

    "github.com/spf13/viper"
)

// CacheConfig bounds how stale ticket reads may be and how patiently the
// remote store and file store are called.
type CacheConfig struct {
    TTL              time.Duration // lifetime of a ticket snapshot
    RemoteTimeout    time.Duration // per remote call
    RetryMaxAttempts int           // attempts per remote read, upload or status write
    RetryBackoff     time.Duration // first pause between attempts, doubled after each
}

func setCacheDefaults(v *viper.Viper) {
    v.SetDefault("CACHE_TTL", "60s")
    v.SetDefault("REMOTE_TIMEOUT", "15s")
    v.SetDefault("RETRY_MAX_ATTEMPTS", 3)
    v.SetDefault("RETRY_BACKOFF", "500ms")
}

func loadCache(v *viper.Viper) CacheConfig {
    c := CacheConfig{
        TTL:              v.GetDuration("CACHE_TTL"),
        RemoteTimeout:    v.GetDuration("REMOTE_TIMEOUT"),
        RetryMaxAttempts: v.GetInt("RETRY_MAX_ATTEMPTS"),
        RetryBackoff:     v.GetDuration("RETRY_BACKOFF"),
    }
    if c.TTL <= 0 {
        c.TTL = 60 * time.Second
    }
    if c.RemoteTimeout <= 0 {
        c.RemoteTimeout = 15 * time.Second
    }
    if c.RetryMaxAttempts < 1 {
        c.RetryMaxAttempts = 1
    }
    return c
}
