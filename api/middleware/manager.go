package middleware

import (
	"karma_server/services"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

type Middleware struct {
	logger      *gecho.Logger
	cfg         *structs.Config
	authService *services.AuthService
	rateLimit   *services.RateLimitService
}

func NewMiddleware(cfg *structs.Config, logger *gecho.Logger, sm *services.ServiceManager) *Middleware {
	return &Middleware{
		logger:      logger,
		cfg:         cfg,
		authService: sm.AuthService,
		rateLimit:   sm.RateLimitService,
	}
}
