package structs

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server     *ServerConfig
	Cors       *CorsConfig
	Database   *DatabaseConfig
	Cache      *CacheConfig
	Auth       *AuthConfig
	Bot        *BotConfig
	Shop       *ShopConfig
	Payment    *PaymentConfig
	Email      *EmailConfig
	RateLimit  *RateLimitConfig
	Encryption *EncryptionConfig
}

type ServerConfig struct {
	AppName        string        // Karma
	Environment    string        // development, production
	Port           string        // :8082
	LogLevel       string        // debug, info, warn, error
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int // in bytes
	MaxBodyBytes   int64
}

type CorsConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposedHeaders   []string
	AllowCredentials bool
}

type DatabaseConfig struct {
	Driver       string // postgres, sqlite
	DSN          string // used as-is for sqlite, overrides host/port/... for postgres when set
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int
	MinConns     int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
	SlowQuery    time.Duration
	SeedSizes    bool
	QueryTimeout time.Duration
}

type CacheConfig struct {
	Enabled      bool
	Address      string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SessionTTL   time.Duration
}

type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
}

type BotConfig struct {
	Token       string
	PollTimeout int // seconds
	ManagerURL  string
	AdminIDs    []int64
	Debug       bool
}

// DeliveryMethod is one row of the delivery price table
type DeliveryMethod struct {
	Code  string          `json:"code"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

type ShopConfig struct {
	Name                   string
	Currency               string
	DiscountPercent        decimal.Decimal
	DeliveryMethods        []DeliveryMethod
	PageSize               int
	CollectCustomerDetails bool
	MultiItemCart          bool
	LegacyAutoLink         bool
}

// DeliveryMethod looks a method up by code
func (s *ShopConfig) DeliveryMethod(code string) (DeliveryMethod, bool) {
	for _, m := range s.DeliveryMethods {
		if m.Code == code {
			return m, true
		}
	}
	return DeliveryMethod{}, false
}

type PaymentConfig struct {
	ShopID            string
	SecretKey         string
	BaseURL           string
	ReturnURL         string
	Timeout           time.Duration // per attempt
	MaxAttempts       int
	RetryDelay        time.Duration
	ReconcileEnabled  bool
	ReconcileInterval time.Duration
	ReconcileMaxAge   time.Duration
}

type EmailConfig struct {
	ApiKey     string
	From       string
	Recipients []string
}

type RateLimitConfig struct {
	Enabled       bool
	BotPerMinute  int
	HTTPPerMinute int
}

type EncryptionConfig struct {
	Key string // 32 bytes for AES-256, empty disables encryption
}
