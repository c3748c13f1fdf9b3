package config

// Redis backs the rate limiter only.  When the server cannot be reached at
// startup the limiter is disabled and requests pass through.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/spf13/viper"
)

// RedisConfig holds the connection settings.  REDIS_HOST and REDIS_PORT take
// precedence over the REDIS_ADDR shorthand.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

func LoadRedisConfig() RedisConfig {
    return loadRedis(newViper())
}

func loadRedis(v *viper.Viper) RedisConfig {
    v.SetDefault("REDIS_ADDR", "localhost:6379")
    v.SetDefault("REDIS_DB", 0)
    addr := v.GetString("REDIS_ADDR")
    if host, port := v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:     addr,
        Password: v.GetString("REDIS_PASSWORD"),
        DB:       v.GetInt("REDIS_DB"),
        TLS:      v.GetBool("REDIS_TLS"),
    }
}

// NewRedisClient connects and pings.  It returns nil when the server does
// not answer within two seconds.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
