package services

import (
	"context"
	"strconv"
	"time"

	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

const rateLimitWindow = time.Minute

// RateLimitService counts requests per subject in fixed one minute windows.
// Without a cache every request is allowed.
type RateLimitService struct {
	logger *gecho.Logger
	cfg    *structs.RateLimitConfig
	cache  *CacheService
}

func NewRateLimitService(logger *gecho.Logger, cfg *structs.Config, cache *CacheService) *RateLimitService {
	return &RateLimitService{
		logger: logger,
		cfg:    cfg.RateLimit,
		cache:  cache,
	}
}

func (rs *RateLimitService) allow(ctx context.Context, subject, scope string, limit int) bool {
	if rs.cache == nil || !rs.cfg.Enabled || limit <= 0 {
		return true
	}

	count, err := rs.cache.IncrementRateLimit(ctx, subject, scope, rateLimitWindow)
	if err != nil {
		// fail open, a cache outage must not block customers
		rs.logger.Warn("Rate limit check failed", gecho.Field("error", err), gecho.Field("scope", scope))
		return true
	}
	return count <= limit
}

// AllowBotUpdate throttles chat updates per user
func (rs *RateLimitService) AllowBotUpdate(ctx context.Context, userID int64) bool {
	return rs.allow(ctx, strconv.FormatInt(userID, 10), "bot", rs.cfg.BotPerMinute)
}

// AllowHTTP throttles API requests per client address
func (rs *RateLimitService) AllowHTTP(ctx context.Context, clientIP string) bool {
	return rs.allow(ctx, clientIP, "http", rs.cfg.HTTPPerMinute)
}
