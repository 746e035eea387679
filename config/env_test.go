package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeliveryMethods(t *testing.T) {
	methods := parseDeliveryMethods("post:Почта России:510, cdek:СДЭК:700,broken,pickup:Самовывоз:0,neg:X:-1")
	require.Len(t, methods, 3)
	assert.Equal(t, "post", methods[0].Code)
	assert.Equal(t, "Почта России", methods[0].Label)
	assert.True(t, methods[0].Price.Equal(decimal.NewFromInt(510)))
	assert.Equal(t, "pickup", methods[2].Code)
	assert.True(t, methods[2].Price.IsZero())
}

func TestGetEnvAsDeliveryMethodsFallsBack(t *testing.T) {
	t.Setenv("TEST_DELIVERY", "nonsense")
	methods := getEnvAsDeliveryMethods("TEST_DELIVERY", defaultDeliveryMethods)
	assert.Equal(t, defaultDeliveryMethods, methods)
}

func TestGetEnvAsInt64Slice(t *testing.T) {
	t.Setenv("TEST_ADMINS", "42, 7,abc,,1001")
	assert.Equal(t, []int64{42, 7, 1001}, getEnvAsInt64Slice("TEST_ADMINS", nil))
	assert.Nil(t, getEnvAsInt64Slice("TEST_ADMINS_UNSET", nil))
}

func TestGetEnvAsTimeDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvAsTimeDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "15")
	assert.Equal(t, 15*time.Second, getEnvAsTimeDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvAsTimeDuration("TEST_DURATION", time.Second))
}

func TestGetEnvAsDecimal(t *testing.T) {
	t.Setenv("TEST_PERCENT", "12.5")
	assert.Equal(t, "12.5", getEnvAsDecimal("TEST_PERCENT", decimal.Zero).String())
}
