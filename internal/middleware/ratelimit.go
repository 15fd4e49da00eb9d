package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/interatlas/management-system/internal/config"
    "github.com/interatlas/management-system/internal/i18n"
)

// bucketScript refills and takes one token atomically.  It returns
// {allowed, tokens_left, retry_after_ms}.
var bucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])
    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + intervals * refill_tokens)
        last_refill = last_refill + intervals * interval_ms
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)
    return { allowed, tokens, retry_after_ms }
`)

// bucketResult is the decoded reply of bucketScript.
type bucketResult struct {
    Allowed   bool
    Remaining int64
    RetryMs   int64
}

func parseBucketResult(v any) (bucketResult, bool) {
    arr, ok := v.([]any)
    if !ok || len(arr) != 3 {
        return bucketResult{}, false
    }
    return bucketResult{
        Allowed:   asInt64(arr[0]) == 1,
        Remaining: asInt64(arr[1]),
        RetryMs:   asInt64(arr[2]),
    }, true
}

// NewTokenBucket limits attempts on the credential endpoints (login,
// forgot password, invite) with a Redis token bucket.  With the limiter
// disabled or Redis absent it passes everything through, and a Redis error
// during a request lets that request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.SugaredLogger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            args := []any{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }
            vals, err := bucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
            if err != nil {
                log.Warnw("ratelimit: redis error", "key", key, "err", err)
                return next(c)
            }
            res, ok := parseBucketResult(vals)
            if !ok {
                log.Warnw("ratelimit: unexpected script result", "key", key, "result", vals)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
            if res.Allowed {
                return next(c)
            }

            secs := int(math.Ceil(float64(res.RetryMs) / 1000.0))
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                log.Debugw("ratelimit: blocked", "key", key, "retry_ms", res.RetryMs)
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too_many_requests",
                "message":     i18n.T("error_rate_limited", Lang(c)),
                "retry_after": secs,
            })
        }
    }
}

func asInt64(v any) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        n, _ := strconv.ParseInt(t, 10, 64)
        return n
    }
    return 0
}

// rateKey builds the bucket key.  Strategies: "ip", "route", "user" and
// "ip_route" (default).  The language segment is not part of the route, so
// /api/en/auth/login and /api/lt/auth/login share a bucket.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "route":
        parts = append(parts, "route", route)
    case "user":
        parts = append(parts, "user", currentUserID(c))
    default:
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}

func currentUserID(c echo.Context) string {
    if id := UserID(c); id > 0 {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
