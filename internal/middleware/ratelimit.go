package middleware

import (
    "math"
    "net/http"
    "path"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/config"
)

// doorBucketScript takes one token from the bucket at KEYS[1] after topping
// it up for the whole refill steps elapsed since the last top-up.
// ARGV: now_ms, capacity, refill_tokens, refill_ms, ttl_ms.
// Returns {allowed, tokens_left, wait_ms}.
var doorBucketScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local step = tonumber(ARGV[4])

local b = redis.call('HMGET', KEYS[1], 'left', 'at')
local left = tonumber(b[1]) or capacity
local at = tonumber(b[2]) or now

local steps = math.floor(math.max(0, now - at) / step)
if steps > 0 then
  left = math.min(capacity, left + steps * refill)
  at = at + steps * step
end

local allowed, wait = 0, step - (now - at)
if left > 0 then
  allowed, left, wait = 1, left - 1, 0
end

redis.call('HSET', KEYS[1], 'left', left, 'at', at)
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {allowed, left, wait}
`)

// bucketVerdict is the decoded reply of doorBucketScript.
type bucketVerdict struct {
    allowed bool
    left    int64
    wait    time.Duration
}

// NewDoorLimiter throttles each door scanner separately.  A bucket is kept
// per scanner and per action (scan or checkin), so a scanner stuck
// re-posting the same QR code is slowed down without affecting the other
// doors.  With limiting disabled or no Redis client every request passes,
// and a Redis error lets the request through rather than blocking the door.
func NewDoorLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    return newDoorLimiter(cfg, rdb, time.Now)
}

func newDoorLimiter(cfg config.RateLimitConfig, rdb *redis.Client, now func() time.Time) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := doorKey(cfg, c)
            reply, err := doorBucketScript.Run(c.Request().Context(), rdb, []string{key}, bucketArgs(cfg, now())...).Result()
            if err != nil {
                c.Logger().Warnf("ratelimit: redis unavailable for %s, letting request through: %v", key, err)
                return next(c)
            }
            v, ok := decodeVerdict(reply)
            if !ok {
                c.Logger().Warnf("ratelimit: unexpected reply for %s: %#v", key, reply)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.left, 10))
            if v.allowed {
                return next(c)
            }
            secs := int(math.Ceil(v.wait.Seconds()))
            if secs < 1 {
                secs = 1
            }
            h.Set("Retry-After", strconv.Itoa(secs))
            c.Logger().Infof("ratelimit: throttled %s for %ds", key, secs)
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "scanner is sending too fast, wait before scanning again",
                "retry_after": secs,
            })
        }
    }
}

func bucketArgs(cfg config.RateLimitConfig, now time.Time) []interface{} {
    return []interface{}{
        now.UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        cfg.TTL.Milliseconds(),
    }
}

func decodeVerdict(reply interface{}) (bucketVerdict, bool) {
    arr, ok := reply.([]interface{})
    if !ok || len(arr) != 3 {
        return bucketVerdict{}, false
    }
    var n [3]int64
    for i, x := range arr {
        if n[i], ok = x.(int64); !ok {
            return bucketVerdict{}, false
        }
    }
    return bucketVerdict{allowed: n[0] == 1, left: n[1], wait: time.Duration(n[2]) * time.Millisecond}, true
}

// doorKey names the bucket of one scanner and action, e.g.
// "door:checkin:staff-7/gate-a".  The scanner is the caller's token subject
// plus the device header; a request without the header falls back to the
// client IP in place of the device.
func doorKey(cfg config.RateLimitConfig, c echo.Context) string {
    action := path.Base(c.Path())
    if action == "." || action == "/" {
        action = "root"
    }
    device := ""
    if cfg.DeviceHeader != "" {
        device = sanitizeKeyPart(c.Request().Header.Get(cfg.DeviceHeader))
    }
    if device == "" {
        device = "ip-" + sanitizeKeyPart(c.RealIP())
    }
    caller, _ := c.Get("user_id").(string)
    if caller = sanitizeKeyPart(caller); caller == "" {
        caller = "anon"
    }
    return cfg.Prefix + ":" + action + ":" + caller + "/" + device
}

// sanitizeKeyPart trims a client supplied id and keeps it from reshaping
// the key.
func sanitizeKeyPart(s string) string {
    s = strings.TrimSpace(s)
    if len(s) > 64 {
        s = s[:64]
    }
    return strings.Map(func(r rune) rune {
        if r == ':' || r == '/' || r <= ' ' {
            return '_'
        }
        return r
    }, s)
}
