package config

import (
	"sync"
	"time"

	"karma_server/structs"

	"github.com/shopspring/decimal"
)

var (
	configInstance *structs.Config
	configOnce     sync.Once
)

// DefaultSQLiteDSN is used when no DB_DSN is configured
const DefaultSQLiteDSN = "file:karma.db?cache=shared"

var defaultDeliveryMethods = []structs.DeliveryMethod{
	{Code: "post", Label: "Почта России", Price: decimal.NewFromInt(510)},
	{Code: "cdek", Label: "СДЭК", Price: decimal.NewFromInt(700)},
	{Code: "pickup", Label: "Самовывоз", Price: decimal.Zero},
}

func GetConfig() *structs.Config {
	configOnce.Do(func() {
		configInstance = &structs.Config{
			Server: &structs.ServerConfig{
				AppName:        getEnvAsString("APP_NAME", "Karma"),
				Environment:    getEnvAsString("APP_ENV", "development"),
				Port:           getEnvAsString("APP_PORT", ":8082"),
				LogLevel:       getEnvAsString("LOG_LEVEL", ""),
				ReadTimeout:    getEnvAsTimeDuration("SERVER_READ_TIME_OUT", 15*time.Second),
				WriteTimeout:   getEnvAsTimeDuration("SERVER_WRITE_TIME_OUT", 15*time.Second),
				IdleTimeout:    getEnvAsTimeDuration("SERVER_IDLE_TIME_OUT", 60*time.Second),
				MaxHeaderBytes: getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
				MaxBodyBytes:   int64(getEnvAsInt("SERVER_MAX_BODY_BYTES", 1<<20)),
			},
			Cors: &structs.CorsConfig{
				AllowOrigins:     getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
				AllowMethods:     getEnvAsSlice("CORS_ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
				AllowHeaders:     getEnvAsSlice("CORS_ALLOW_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
				AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
				ExposedHeaders:   getEnvAsSlice("CORS_EXPOSED_HEADERS", []string{"Content-Length"}),
			},
			Database: &structs.DatabaseConfig{
				Driver:       getEnvAsString("DB_DRIVER", "sqlite"),
				DSN:          getEnvAsString("DB_DSN", DefaultSQLiteDSN),
				Host:         getEnvAsString("DB_HOST", "localhost"),
				Port:         getEnvAsInt("DB_PORT", 5432),
				User:         getEnvAsString("DB_USER", "postgres"),
				Password:     getEnvAsString("DB_PASSWORD", "password"),
				Name:         getEnvAsString("DB_NAME", "karma_db"),
				SSLMode:      getEnvAsString("DB_SSL_MODE", "disable"),
				MaxConns:     getEnvAsInt("DB_MAX_CONNS", 10),
				MinConns:     getEnvAsInt("DB_MIN_CONNS", 2),
				MaxLifetime:  getEnvAsTimeDuration("DB_MAX_LIFETIME", 30*time.Minute),
				MaxIdleTime:  getEnvAsTimeDuration("DB_MAX_IDLE_TIME", 5*time.Minute),
				SlowQuery:    getEnvAsTimeDuration("DB_SLOW_QUERY", time.Second),
				SeedSizes:    getEnvAsBool("SEED_DEFAULT_SIZES", false),
				QueryTimeout: getEnvAsTimeDuration("DB_QUERY_TIMEOUT", 5*time.Second),
			},
			Cache: &structs.CacheConfig{
				Enabled:      getEnvAsBool("REDIS_ENABLED", false),
				Address:      getEnvAsString("REDIS_ADDR", "localhost:6379"),
				Password:     getEnvAsString("REDIS_PASSWORD", ""),
				DB:           getEnvAsInt("REDIS_DB", 0),
				PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
				DialTimeout:  getEnvAsTimeDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
				ReadTimeout:  getEnvAsTimeDuration("REDIS_READ_TIMEOUT", 3*time.Second),
				WriteTimeout: getEnvAsTimeDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
				SessionTTL:   getEnvAsTimeDuration("SESSION_TTL", 24*time.Hour),
			},
			Auth: &structs.AuthConfig{
				AccessTokenSecret: getEnvAsString("AUTH_ACCESS_TOKEN_SECRET", "default_access_secret"),
				AccessTokenExpiry: getEnvAsTimeDuration("AUTH_ACCESS_TOKEN_EXPIRY", 12*time.Hour),
			},
			Bot: &structs.BotConfig{
				Token:       getEnvAsString("BOT_TOKEN", ""),
				PollTimeout: getEnvAsInt("BOT_POLL_TIMEOUT", 30),
				ManagerURL:  getEnvAsString("MANAGER_URL", ""),
				AdminIDs:    getEnvAsInt64Slice("ADMIN_IDS", nil),
				Debug:       getEnvAsBool("BOT_DEBUG", false),
			},
			Shop: &structs.ShopConfig{
				Name:                   getEnvAsString("SHOP_NAME", "Karma"),
				Currency:               getEnvAsString("SHOP_CURRENCY", "RUB"),
				DiscountPercent:        getEnvAsDecimal("DISCOUNT_PERCENT", decimal.NewFromInt(10)),
				DeliveryMethods:        getEnvAsDeliveryMethods("DELIVERY_METHODS", defaultDeliveryMethods),
				PageSize:               getEnvAsInt("PAGE_SIZE", 10),
				CollectCustomerDetails: getEnvAsBool("COLLECT_CUSTOMER_DETAILS", true),
				MultiItemCart:          getEnvAsBool("MULTI_ITEM_CART", false),
				LegacyAutoLink:         getEnvAsBool("LEGACY_AUTOLINK", false),
			},
			Payment: &structs.PaymentConfig{
				ShopID:            getEnvAsString("YOOKASSA_SHOP_ID", ""),
				SecretKey:         getEnvAsString("YOOKASSA_SECRET_KEY", ""),
				BaseURL:           getEnvAsString("YOOKASSA_BASE_URL", "https://api.yookassa.ru/v3"),
				ReturnURL:         getEnvAsString("PAYMENT_RETURN_URL", "https://t.me"),
				Timeout:           getEnvAsTimeDuration("PAYMENT_TIMEOUT", 10*time.Second),
				MaxAttempts:       getEnvAsInt("PAYMENT_MAX_ATTEMPTS", 2),
				RetryDelay:        getEnvAsTimeDuration("PAYMENT_RETRY_DELAY", 500*time.Millisecond),
				ReconcileEnabled:  getEnvAsBool("PAYMENT_RECONCILE_ENABLED", false),
				ReconcileInterval: getEnvAsTimeDuration("PAYMENT_RECONCILE_INTERVAL", 5*time.Minute),
				ReconcileMaxAge:   getEnvAsTimeDuration("PAYMENT_RECONCILE_MAX_AGE", 72*time.Hour),
			},
			Email: &structs.EmailConfig{
				ApiKey:     getEnvAsString("RESEND_API_KEY", ""),
				From:       getEnvAsString("EMAIL_FROM", "Karma <orders@example.com>"),
				Recipients: getEnvAsSlice("EMAIL_OPERATORS", nil),
			},
			RateLimit: &structs.RateLimitConfig{
				Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
				BotPerMinute:  getEnvAsInt("RATE_LIMIT_BOT_PER_MINUTE", 60),
				HTTPPerMinute: getEnvAsInt("RATE_LIMIT_HTTP_PER_MINUTE", 120),
			},
			Encryption: &structs.EncryptionConfig{
				Key: getEnvAsString("ENCRYPTION_KEY", ""),
			},
		}
	})
	return configInstance
}

func GetLogLevel() string {
	cfg := GetConfig()
	if cfg.Server.LogLevel != "" {
		return cfg.Server.LogLevel
	}
	if cfg.Server.Environment == "production" {
		return "info"
	}
	return "debug"
}

func IsProduction() bool {
	return GetConfig().Server.Environment == "production"
}
