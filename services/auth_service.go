package services

import (
	"fmt"
	"slices"
	"time"

	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

// AuthService owns the administrator allow-list and the admin API tokens
type AuthService struct {
	logger   *gecho.Logger
	cfg      *structs.AuthConfig
	adminIDs []int64
}

func NewAuthService(cfg *structs.Config, logger *gecho.Logger) *AuthService {
	return &AuthService{
		logger:   logger,
		cfg:      cfg.Auth,
		adminIDs: slices.Clone(cfg.Bot.AdminIDs),
	}
}

// IsAdmin reports whether the chat identity is allow-listed
func (as *AuthService) IsAdmin(userID int64) bool {
	return slices.Contains(as.adminIDs, userID)
}

// Authorize returns ErrForbidden for identities outside the allow-list
func (as *AuthService) Authorize(userID int64, operation string) error {
	if as.IsAdmin(userID) {
		return nil
	}
	as.logger.Warn("Rejected admin operation", gecho.Field("user_id", userID), gecho.Field("operation", operation))
	return fmt.Errorf("%w: %s", lib.ErrForbidden, operation)
}

// GetAccessTokenExpiration returns the expiration time for access tokens
func (as *AuthService) GetAccessTokenExpiration() time.Time {
	return time.Now().Add(as.cfg.AccessTokenExpiry)
}

// GenerateAccessToken mints a bearer token for the HTTP admin API
func (as *AuthService) GenerateAccessToken(adminID int64) (*structs.TokenResponse, error) {
	if err := as.Authorize(adminID, "issue token"); err != nil {
		return nil, err
	}
	if as.cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("%w: admin API tokens are disabled", lib.ErrForbidden)
	}

	token, exp, err := lib.GenerateAccessToken(adminID, structs.RoleAdmin, as.cfg.AccessTokenSecret, as.cfg.AccessTokenExpiry)
	if err != nil {
		as.logger.Error("Failed to generate access token", gecho.Field("error", err), gecho.Field("user_id", adminID))
		return nil, err
	}

	as.logger.Info("Admin token issued", gecho.Field("user_id", adminID), gecho.Field("expires_at", exp))
	return &structs.TokenResponse{AccessToken: token, ExpiresAt: exp}, nil
}

// ValidateAccessToken parses a bearer token and checks the subject is still allow-listed
func (as *AuthService) ValidateAccessToken(token string) (*structs.AuthClaims, error) {
	if as.cfg.AccessTokenSecret == "" {
		return nil, lib.ErrInvalidToken
	}

	claims, err := lib.ParseToken(token, as.cfg.AccessTokenSecret)
	if err != nil {
		return nil, err
	}
	if claims.Role != structs.RoleAdmin {
		return nil, fmt.Errorf("%w: role %q", lib.ErrForbidden, claims.Role)
	}
	if err := as.Authorize(claims.Sub, "api access"); err != nil {
		return nil, err
	}
	return claims, nil
}
