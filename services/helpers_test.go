package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"karma_server/database"
	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testAdminID int64 = 42

func testLogger() *gecho.Logger {
	return gecho.NewLogger(gecho.NewConfig(gecho.WithLogLevel(gecho.ParseLogLevel("error"))))
}

func testConfig() *structs.Config {
	return &structs.Config{
		Server:   &structs.ServerConfig{Environment: "test"},
		Database: &structs.DatabaseConfig{Driver: database.DriverSQLite},
		Cache:    &structs.CacheConfig{SessionTTL: time.Hour},
		Auth:     &structs.AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour},
		Bot:      &structs.BotConfig{AdminIDs: []int64{testAdminID}},
		Shop: &structs.ShopConfig{
			Name:            "Karma",
			Currency:        "RUB",
			DiscountPercent: decimal.NewFromInt(10),
			DeliveryMethods: []structs.DeliveryMethod{
				{Code: "post", Label: "Почта России", Price: decimal.NewFromInt(510)},
				{Code: "pickup", Label: "Самовывоз", Price: decimal.Zero},
			},
			PageSize:               2,
			CollectCustomerDetails: true,
		},
		Payment: &structs.PaymentConfig{
			Timeout:         time.Second,
			MaxAttempts:     2,
			RetryDelay:      time.Millisecond,
			ReconcileMaxAge: time.Hour,
		},
		Email:      &structs.EmailConfig{},
		RateLimit:  &structs.RateLimitConfig{},
		Encryption: &structs.EncryptionConfig{},
	}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open(&structs.DatabaseConfig{
		Driver: database.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateSchema(context.Background(), db))
	return db
}

// fakeGateway records created payments and answers with preset statuses
type fakeGateway struct {
	mu        sync.Mutex
	statuses  map[string]structs.PaymentStatus
	keys      []string
	amounts   []decimal.Decimal
	createErr error
	statusErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: make(map[string]structs.PaymentStatus)}
}

func (fg *fakeGateway) CreatePayment(_ context.Context, amount decimal.Decimal, _ string, idempotencyKey string) (*structs.Payment, error) {
	fg.mu.Lock()
	defer fg.mu.Unlock()

	if fg.createErr != nil {
		return nil, fg.createErr
	}
	fg.keys = append(fg.keys, idempotencyKey)
	fg.amounts = append(fg.amounts, amount)

	id := fmt.Sprintf("pay-%d", len(fg.keys))
	fg.statuses[id] = structs.PaymentStatusPending
	return &structs.Payment{
		ID:              id,
		Status:          structs.PaymentStatusPending,
		ConfirmationURL: "https://pay.example/" + id,
	}, nil
}

func (fg *fakeGateway) GetPaymentStatus(_ context.Context, paymentID string) (structs.PaymentStatus, error) {
	fg.mu.Lock()
	defer fg.mu.Unlock()

	if fg.statusErr != nil {
		return "", fg.statusErr
	}
	status, ok := fg.statuses[paymentID]
	if !ok {
		return "", fmt.Errorf("%w: payment %s", lib.ErrNotFound, paymentID)
	}
	return status, nil
}

func (fg *fakeGateway) setStatus(paymentID string, status structs.PaymentStatus) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.statuses[paymentID] = status
}

type testEnv struct {
	cfg      *structs.Config
	db       *database.DB
	gateway  *fakeGateway
	services *ServiceManager
}

func newTestEnv(t *testing.T, configure ...func(*structs.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, fn := range configure {
		fn(cfg)
	}

	db := openTestDB(t)
	gateway := newFakeGateway()
	sm, err := NewServiceManager(testLogger(), cfg, db, gateway)
	require.NoError(t, err)

	return &testEnv{cfg: cfg, db: db, gateway: gateway, services: sm}
}

// seedCatalog creates one category, title and product with two sizes
func (env *testEnv) seedCatalog(t *testing.T) (productID int64, sizeIDs []int64) {
	t.Helper()
	ctx := context.Background()
	catalog := env.services.CatalogService

	small, err := catalog.CreateSize(ctx, "25см", decimal.NewFromInt(2490))
	require.NoError(t, err)
	large, err := catalog.CreateSize(ctx, "35см", decimal.NewFromInt(4790))
	require.NoError(t, err)

	category, err := catalog.CreateCategory(ctx, "Аниме")
	require.NoError(t, err)
	title, err := catalog.CreateTitle(ctx, category.ID, "Наруто")
	require.NoError(t, err)
	product, err := catalog.CreateProduct(ctx, title.ID, "Какаши", "photo-1")
	require.NoError(t, err)

	return product.ID, []int64{small.ID, large.ID}
}
