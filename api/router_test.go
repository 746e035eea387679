package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"karma_server/database"
	"karma_server/lib"
	"karma_server/services"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID int64 = 7

type stubGateway struct{}

func (stubGateway) CreatePayment(_ context.Context, _ decimal.Decimal, _ string, key string) (*structs.Payment, error) {
	return &structs.Payment{ID: "pay-" + key, Status: structs.PaymentStatusPending, ConfirmationURL: "https://pay.example"}, nil
}

func (stubGateway) GetPaymentStatus(_ context.Context, _ string) (structs.PaymentStatus, error) {
	return structs.PaymentStatusPending, nil
}

func testConfig() *structs.Config {
	return &structs.Config{
		Server:   &structs.ServerConfig{AppName: "Karma", Environment: "test", LogLevel: "error", MaxBodyBytes: 1 << 20},
		Cors:     &structs.CorsConfig{AllowOrigins: []string{"*"}, AllowMethods: []string{"GET", "POST", "PUT", "DELETE"}},
		Database: &structs.DatabaseConfig{Driver: database.DriverSQLite},
		Cache:    &structs.CacheConfig{SessionTTL: time.Hour},
		Auth:     &structs.AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour},
		Bot:      &structs.BotConfig{AdminIDs: []int64{adminID}},
		Shop: &structs.ShopConfig{
			Currency:        "RUB",
			DiscountPercent: decimal.Zero,
			DeliveryMethods: []structs.DeliveryMethod{{Code: "pickup", Label: "Самовывоз", Price: decimal.Zero}},
			PageSize:        5,
		},
		Payment:    &structs.PaymentConfig{MaxAttempts: 1},
		Email:      &structs.EmailConfig{},
		RateLimit:  &structs.RateLimitConfig{},
		Encryption: &structs.EncryptionConfig{},
	}
}

func newTestRouter(t *testing.T) (chi.Router, *services.ServiceManager) {
	t.Helper()
	logger := gecho.NewLogger(gecho.NewConfig(gecho.WithLogLevel(gecho.ParseLogLevel("error"))))
	cfg := testConfig()

	db, err := database.Open(&structs.DatabaseConfig{
		Driver: database.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.CreateSchema(context.Background(), db))

	sm, err := services.NewServiceManager(logger, cfg, db, stubGateway{})
	require.NoError(t, err)

	return App(logger, cfg, sm), sm
}

func bearer(t *testing.T, sub int64) string {
	t.Helper()
	token, _, err := lib.GenerateAccessToken(sub, structs.RoleAdmin, "test-secret", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(router http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/admin/categories", "", `{"name":"Букеты"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(router, http.MethodPost, "/admin/categories", "Bearer garbage", `{"name":"Букеты"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRejectRemovedAdmin(t *testing.T) {
	router, sm := newTestRouter(t)

	// a validly signed token whose subject is not on the allow-list
	rec := do(router, http.MethodPost, "/admin/categories", bearer(t, 999), `{"name":"Букеты"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	categories, err := sm.CatalogService.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestAdminCatalogLifecycle(t *testing.T) {
	router, sm := newTestRouter(t)
	auth := bearer(t, adminID)
	ctx := context.Background()

	rec := do(router, http.MethodPost, "/admin/categories", auth, `{"name":"Букеты"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	categories, err := sm.CatalogService.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	rec = do(router, http.MethodPost, "/admin/categories", auth, `{"name":"Букеты"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(router, http.MethodPost, "/admin/titles", auth, fmt.Sprintf(`{"name":"Весна","category_id":%d}`, categories[0].ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	titles, err := sm.CatalogService.ListTitles(ctx, categories[0].ID)
	require.NoError(t, err)
	require.Len(t, titles, 1)

	rec = do(router, http.MethodPost, "/admin/sizes", auth, `{"name":"25см","price":"2490"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, http.MethodPost, "/admin/sizes", auth, `{"name":"35см","price":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/admin/products", auth, fmt.Sprintf(`{"name":"Тюльпаны","title_id":%d}`, titles[0].ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, http.MethodGet, fmt.Sprintf("/catalog/titles/%d/products", titles[0].ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Тюльпаны")

	page, err := sm.CatalogService.ListActiveProducts(ctx, titles[0].ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	rec = do(router, http.MethodGet, fmt.Sprintf("/catalog/products/%d/sizes", page.Products[0].ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "25см")

	rec = do(router, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", categories[0].ID), auth, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, fmt.Sprintf("/catalog/products/%d/sizes", page.Products[0].ID), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRejectsUnknownFields(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/admin/categories", bearer(t, adminID), `{"name":"Букеты","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminOrderStatusValidation(t *testing.T) {
	router, _ := newTestRouter(t)
	auth := bearer(t, adminID)

	rec := do(router, http.MethodPut, "/admin/orders/1/status", auth, `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPut, "/admin/orders/1/status", auth, `{"status":"shipped"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/admin/orders?limit=0", auth, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/admin/stats", auth, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminSettings(t *testing.T) {
	router, sm := newTestRouter(t)
	auth := bearer(t, adminID)

	rec := do(router, http.MethodPut, "/admin/settings", auth, `{"description_text":"Свежие цветы","photo_ref":"photo-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	settings, err := sm.SettingsService.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Свежие цветы", settings.DescriptionText)
	assert.Equal(t, "photo-1", settings.PhotoRef)

	rec = do(router, http.MethodPut, "/admin/settings", auth, `{"photo_ref":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	settings, err = sm.SettingsService.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, settings.PhotoRef)
	assert.Equal(t, "Свежие цветы", settings.DescriptionText)
}

func TestCatalogValidatesIDs(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/catalog/categories/abc/titles", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/catalog/titles/1/products?page=0", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/catalog/categories", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookAcknowledgesUnknownPayment(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"type":"notification","event":"payment.succeeded","object":{"id":"missing","status":"succeeded","amount":{"value":"10.00","currency":"RUB"}}}`
	rec := do(router, http.MethodPost, "/payments/webhook", "", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPost, "/payments/webhook", "", `{"object":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
