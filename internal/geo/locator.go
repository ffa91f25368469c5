package geo

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKey = "geo:public_ip_info"

// ipResolver is what Locator needs from a Resolver.
type ipResolver interface {
	Resolve(ctx context.Context) (*IPInfo, error)
}

// Locator holds the current public IP location. Reads hit memory first,
// then redis, then the lookup services; Refresh forces a new lookup.
// Safe for concurrent use.
type Locator struct {
	resolver ipResolver
	cache    *redis.Client
	ttl      time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	current *IPInfo
}

// NewLocator builds a Locator. cache may be nil to run without redis.
func NewLocator(resolver ipResolver, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Locator {
	return &Locator{resolver: resolver, cache: cache, ttl: ttl, logger: logger}
}

// Current returns the cached public IP info, resolving it on first use.
func (l *Locator) Current(ctx context.Context) (*IPInfo, error) {
	l.mu.RLock()
	info := l.current
	l.mu.RUnlock()
	if info != nil {
		return info, nil
	}

	if info := l.fromRedis(ctx); info != nil {
		l.mu.Lock()
		l.current = info
		l.mu.Unlock()
		return info, nil
	}
	return l.Refresh(ctx)
}

// Location returns the "City, Region, Country" form of Current.
func (l *Locator) Location(ctx context.Context) (string, error) {
	info, err := l.Current(ctx)
	if err != nil {
		return "", err
	}
	return info.Location(), nil
}

// Refresh resolves the public IP info anew and replaces both caches.
// On resolver failure the previous value, if any, is kept.
func (l *Locator) Refresh(ctx context.Context) (*IPInfo, error) {
	info, err := l.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = info
	l.mu.Unlock()
	l.toRedis(ctx, info)

	l.logger.Info("public location refreshed",
		zap.String("location", info.Location()),
		zap.Float64("lat", info.Latitude),
		zap.Float64("lon", info.Longitude))
	return info, nil
}

func (l *Locator) fromRedis(ctx context.Context) *IPInfo {
	if l.cache == nil {
		return nil
	}
	raw, err := l.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn("reading cached ip info", zap.Error(err))
		}
		return nil
	}
	var info IPInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		l.logger.Warn("decoding cached ip info", zap.Error(err))
		return nil
	}
	return &info
}

func (l *Locator) toRedis(ctx context.Context, info *IPInfo) {
	if l.cache == nil {
		return
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := l.cache.Set(ctx, cacheKey, raw, l.ttl).Err(); err != nil {
		l.logger.Warn("caching ip info", zap.Error(err))
	}
}
