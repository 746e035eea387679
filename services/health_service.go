package services

import (
	"context"
	"runtime"
	"time"

	"karma_server/database"

	"github.com/MonkyMars/gecho"
)

var uptimeStart = time.Now()

type serverHealthStatus struct {
	Uptime       float64   `json:"uptime"` // in seconds
	CurrentTime  time.Time `json:"current_time"`
	ServiceAlive bool      `json:"service_alive"`
	Goroutines   int       `json:"goroutines"`
	RamStats     *RamStats `json:"ram_stats"`
}

type RamStats struct {
	TotalMB     uint64 `json:"total_mb"`
	UsedMB      uint64 `json:"used_mb"`
	FreeMB      uint64 `json:"free_mb"`
	UsedPercent uint64 `json:"used_percent"`
}

type dependencyHealthStatus struct {
	Connected      bool           `json:"connected"`
	LastChecked    time.Time      `json:"last_checked"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	Driver         string         `json:"driver,omitempty"`
	Stats          map[string]any `json:"stats,omitempty"`
}

type HealthService struct {
	logger *gecho.Logger
	db     *database.DB
	cache  *CacheService
}

// NewHealthService takes an optional cache, nil when Redis is disabled
func NewHealthService(logger *gecho.Logger, db *database.DB, cache *CacheService) *HealthService {
	return &HealthService{
		logger: logger,
		db:     db,
		cache:  cache,
	}
}

func getRamStats() *RamStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	totalMB := m.Sys / 1024 / 1024
	usedMB := m.Alloc / 1024 / 1024
	freeMB := totalMB - usedMB
	usedPercent := uint64(0)
	if totalMB > 0 {
		usedPercent = (usedMB * 100) / totalMB
	}

	return &RamStats{
		TotalMB:     totalMB,
		UsedMB:      usedMB,
		FreeMB:      freeMB,
		UsedPercent: usedPercent,
	}
}

func (hs *HealthService) GetServerHealthStatus() serverHealthStatus {
	return serverHealthStatus{
		Uptime:       time.Since(uptimeStart).Seconds(),
		CurrentTime:  time.Now(),
		ServiceAlive: true,
		Goroutines:   runtime.NumGoroutine(),
		RamStats:     getRamStats(),
	}
}

func (hs *HealthService) GetDatabaseHealthStatus(ctx context.Context) (dependencyHealthStatus, error) {
	start := time.Now()
	err := hs.db.Health(ctx)

	stats := hs.db.GetStats()
	status := dependencyHealthStatus{
		Connected:      err == nil,
		LastChecked:    time.Now(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Driver:         hs.db.Driver(),
		Stats: map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
		},
	}

	if err != nil {
		hs.logger.Error("Database health check failed", gecho.Field("error", err))
	}
	return status, err
}

// GetCacheHealthStatus reports Redis health, ok with Connected=false when the cache is disabled
func (hs *HealthService) GetCacheHealthStatus(ctx context.Context) (dependencyHealthStatus, error) {
	if hs.cache == nil {
		return dependencyHealthStatus{LastChecked: time.Now()}, nil
	}

	start := time.Now()
	err := hs.cache.Ping(ctx)
	status := dependencyHealthStatus{
		Connected:      err == nil,
		LastChecked:    time.Now(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Stats:          hs.cache.GetConnectionStats(),
	}

	if err != nil {
		hs.logger.Error("Cache health check failed", gecho.Field("error", err))
	}
	return status, err
}
