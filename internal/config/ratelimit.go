package config

import (
    "time"

    "github.com/spf13/viper"
)

// RateLimitConfig tunes the per-scanner token bucket in front of the scan
// and check-in endpoints.  Each door device gets Capacity requests per
// action, topped up by RefillTokens every RefillInterval.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    // TTL is how long an idle scanner's bucket is kept in Redis.
    TTL time.Duration
    // DeviceHeader names the request header carrying the scanner's device
    // id.  Requests without it are bucketed by client IP.
    DeviceHeader string
    Prefix       string
}

func LoadRateLimitConfig() RateLimitConfig {
    return loadRateLimit(newViper())
}

func loadRateLimit(v *viper.Viper) RateLimitConfig {
    v.SetDefault("RATE_LIMIT_ENABLED", true)
    v.SetDefault("RATE_LIMIT_CAPACITY", 30)
    v.SetDefault("RATE_LIMIT_REFILL_TOKENS", 1)
    v.SetDefault("RATE_LIMIT_REFILL_INTERVAL", "1s")
    v.SetDefault("RATE_LIMIT_TTL", "30m")
    v.SetDefault("RATE_LIMIT_DEVICE_HEADER", "X-Door-Device")
    v.SetDefault("RATE_LIMIT_PREFIX", "door")

    cfg := RateLimitConfig{
        Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
        Capacity:       v.GetInt("RATE_LIMIT_CAPACITY"),
        RefillTokens:   v.GetInt("RATE_LIMIT_REFILL_TOKENS"),
        RefillInterval: v.GetDuration("RATE_LIMIT_REFILL_INTERVAL"),
        TTL:            v.GetDuration("RATE_LIMIT_TTL"),
        DeviceHeader:   v.GetString("RATE_LIMIT_DEVICE_HEADER"),
        Prefix:         v.GetString("RATE_LIMIT_PREFIX"),
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // An expired bucket comes back full, so keep it at least as long as a
    // full refill takes.
    if full := time.Duration(cfg.Capacity/cfg.RefillTokens+1) * cfg.RefillInterval; cfg.TTL < full {
        cfg.TTL = full
    }
    return cfg
}
