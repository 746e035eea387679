package services

import (
	"context"
	"fmt"

	"karma_server/database"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

type ServiceManager struct {
	AuthService      *AuthService
	EmailService     *EmailService
	CacheService     *CacheService // nil when Redis is disabled
	HealthService    *HealthService
	CatalogService   *CatalogService
	SettingsService  *SettingsService
	OrderService     *OrderService
	PaymentService   *PaymentService
	CheckoutService  *CheckoutService
	AdminService     *AdminService
	RateLimitService *RateLimitService
}

// NewServiceManager wires every service. The gateway is passed in so tests
// can swap the real payment provider.
func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, db *database.DB, gateway PaymentGateway) (*ServiceManager, error) {
	var (
		cacheService *CacheService
		sessions     SessionStore
	)
	if cfg.Cache.Enabled {
		cacheService = NewCacheService(logger, NewRedisClient(cfg.Cache))
		sessions = NewRedisSessionStore(cacheService, cfg.Cache.SessionTTL)
	} else {
		sessions = NewMemorySessionStore()
	}

	orderService, err := NewOrderService(logger, cfg, db)
	if err != nil {
		return nil, err
	}

	if gateway == nil {
		gateway = NewYooKassaGateway(logger, cfg)
	}

	authService := NewAuthService(cfg, logger)
	emailService := NewEmailService(logger, cfg)
	catalogService := NewCatalogService(logger, cfg, db)
	settingsService := NewSettingsService(logger, db)
	paymentService := NewPaymentService(logger, cfg, gateway, orderService, emailService)

	return &ServiceManager{
		AuthService:      authService,
		EmailService:     emailService,
		CacheService:     cacheService,
		HealthService:    NewHealthService(logger, db, cacheService),
		CatalogService:   catalogService,
		SettingsService:  settingsService,
		OrderService:     orderService,
		PaymentService:   paymentService,
		CheckoutService:  NewCheckoutService(logger, cfg, catalogService, orderService, paymentService, sessions),
		AdminService:     NewAdminService(logger, authService, catalogService, orderService, settingsService),
		RateLimitService: NewRateLimitService(logger, cfg, cacheService),
	}, nil
}

// Ping checks the optional Redis connection at startup
func (sm *ServiceManager) Ping(ctx context.Context) error {
	if sm.CacheService == nil {
		return nil
	}
	if err := sm.CacheService.Ping(ctx); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	return nil
}

func (sm *ServiceManager) Close() error {
	if sm.CacheService != nil {
		return sm.CacheService.Close()
	}
	return nil
}
