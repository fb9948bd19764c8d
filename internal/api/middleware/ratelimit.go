package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/m04kA/SMC-ScheduleService/internal/api/handlers"
)

const msgTooManyRequests = "слишком много запросов, повторите позже"

// RateLimitConfig параметры token bucket
type RateLimitConfig struct {
	Capacity       int           // размер корзины
	RefillTokens   int           // сколько токенов добавляется за интервал
	RefillInterval time.Duration // интервал пополнения
	TTL            time.Duration // время жизни неиспользуемого ключа
	Prefix         string        // префикс ключей в redis
}

// Decision результат проверки лимита
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter проверяет, можно ли пропустить запрос с ключом key
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// tokenBucketScript атомарно пополняет корзину и списывает токен
var tokenBucketScript = redis.NewScript(`
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

if interval_ms > 0 and refill_tokens > 0 then
  local elapsed = math.max(0, now_ms - last_refill)
  local intervals = math.floor(elapsed / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + (intervals * refill_tokens))
    last_refill = last_refill + (intervals * interval_ms)
  end
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

// RedisLimiter распределенный token bucket на redis
type RedisLimiter struct {
	client *redis.Client
	cfg    RateLimitConfig
}

// NewRedisLimiter создает лимитер поверх клиента redis
func NewRedisLimiter(client *redis.Client, cfg RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	args := []interface{}{
		time.Now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		int64(l.cfg.TTL / time.Second),
	}

	vals, err := tokenBucketScript.Run(ctx, l.client, []string{l.cfg.Prefix + ":" + key}, args...).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: run script: %w", err)
	}
	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
	}

	return Decision{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// LocalLimiter token bucket в памяти процесса, по одному rate.Limiter на ключ
type LocalLimiter struct {
	mu       sync.Mutex
	cfg      RateLimitConfig
	limiters map[string]*localEntry
	now      func() time.Time
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Порог, после которого из карты вычищаются давно неиспользуемые ключи
const localSweepThreshold = 10000

// NewLocalLimiter создает лимитер в памяти
func NewLocalLimiter(cfg RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{
		cfg:      cfg,
		limiters: make(map[string]*localEntry),
		now:      time.Now,
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= localSweepThreshold {
			l.sweep(now)
		}
		every := l.cfg.RefillInterval / time.Duration(max(l.cfg.RefillTokens, 1))
		entry = &localEntry{limiter: rate.NewLimiter(rate.Every(every), max(l.cfg.Capacity, 1))}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	if entry.limiter.AllowN(now, 1) {
		return Decision{Allowed: true, Remaining: int64(entry.limiter.TokensAt(now))}, nil
	}

	reservation := entry.limiter.ReserveN(now, 1)
	retryAfter := reservation.DelayFrom(now)
	reservation.CancelAt(now)

	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.cfg.TTL {
			delete(l.limiters, key)
		}
	}
}

// FallbackLimiter использует primary, а при его ошибке - fallback
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	logger   Logger
}

// NewFallbackLimiter создает лимитер с запасным вариантом
func NewFallbackLimiter(primary, fallback Limiter, logger Logger) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, fallback: fallback, logger: logger}
}

func (l *FallbackLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	decision, err := l.primary.Allow(ctx, key)
	if err == nil {
		return decision, nil
	}
	l.logger.Warn("RateLimit: primary limiter failed, using local: %v", err)
	return l.fallback.Allow(ctx, key)
}

// RateLimit отклоняет запросы сверх лимита с кодом 429
// Ключ - IP клиента и шаблон маршрута. При ошибке лимитера запрос пропускается
func RateLimit(limiter Limiter, capacity int, metrics RateLimitMetrics, logger Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.Method + " " + routeTemplate(r)

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("RateLimit: limiter failed for key=%s: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(capacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

			if !decision.Allowed {
				secs := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 0)))
				if metrics != nil {
					metrics.IncRateLimited()
				}
				logger.Warn("RateLimit: blocked key=%s, retry after %ds", key, secs)
				handlers.RespondTooManyRequests(w, msgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
