package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"karma_server/structs"

	"github.com/shopspring/decimal"
)

func getEnvAsString(key string, defaultVal string) string {
	if value, exists := lookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if valueStr, exists := lookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}

// getEnvAsTimeDuration accepts Go duration strings ("15s", "5m") or plain seconds
func getEnvAsTimeDuration(key string, defaultVal time.Duration) time.Duration {
	if valueStr, exists := lookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
		if value, err := strconv.Atoi(valueStr); err == nil {
			return time.Duration(value) * time.Second
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if valueStr, exists := lookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string) []string {
	if valueStr, exists := lookupEnv(key); exists {
		return splitList(valueStr)
	}
	return defaultVal
}

func getEnvAsInt64Slice(key string, defaultVal []int64) []int64 {
	valueStr, exists := lookupEnv(key)
	if !exists {
		return defaultVal
	}
	result := make([]int64, 0)
	for _, part := range splitList(valueStr) {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			result = append(result, id)
		}
	}
	return result
}

func getEnvAsDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if valueStr, exists := lookupEnv(key); exists {
		if value, err := decimal.NewFromString(strings.TrimSpace(valueStr)); err == nil {
			return value
		}
	}
	return defaultVal
}

// getEnvAsDeliveryMethods parses "code:Label:price" entries separated by commas.
// Malformed entries are skipped; an empty result falls back to the default.
func getEnvAsDeliveryMethods(key string, defaultVal []structs.DeliveryMethod) []structs.DeliveryMethod {
	valueStr, exists := lookupEnv(key)
	if !exists {
		return defaultVal
	}
	methods := parseDeliveryMethods(valueStr)
	if len(methods) == 0 {
		return defaultVal
	}
	return methods
}

func parseDeliveryMethods(raw string) []structs.DeliveryMethod {
	var methods []structs.DeliveryMethod
	for _, entry := range splitList(raw) {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
		if err != nil || price.IsNegative() {
			continue
		}
		methods = append(methods, structs.DeliveryMethod{
			Code:  strings.TrimSpace(parts[0]),
			Label: strings.TrimSpace(parts[1]),
			Price: price,
		})
	}
	return methods
}

func splitList(valueStr string) []string {
	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, v := range parts {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}
