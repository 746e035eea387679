package services

import (
	"context"
	"testing"

	"karma_server/database"
	"karma_server/lib"
	"karma_server/structs/tables"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strangerID int64 = 666

func TestAdminRejectsStrangersWithoutMutation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.services.AdminService
	productID, sizeIDs := env.seedCatalog(t)

	product, err := env.services.CatalogService.GetProduct(ctx, productID)
	require.NoError(t, err)
	title, err := env.services.CatalogService.GetTitle(ctx, product.TitleID)
	require.NoError(t, err)

	calls := map[string]func() error{
		"create category": func() error { _, err := admin.CreateCategory(ctx, strangerID, "Новое"); return err },
		"rename category": func() error { return admin.RenameCategory(ctx, strangerID, title.CategoryID, "X") },
		"delete category": func() error { return admin.DeleteCategory(ctx, strangerID, title.CategoryID) },
		"create title":    func() error { _, err := admin.CreateTitle(ctx, strangerID, title.CategoryID, "X"); return err },
		"delete title":    func() error { return admin.DeleteTitle(ctx, strangerID, title.ID) },
		"create product":  func() error { _, err := admin.CreateProduct(ctx, strangerID, title.ID, "X", ""); return err },
		"rename product":  func() error { return admin.RenameProduct(ctx, strangerID, productID, "X") },
		"photo":           func() error { return admin.SetProductPhoto(ctx, strangerID, productID, "p") },
		"toggle":          func() error { _, err := admin.ToggleProductActive(ctx, strangerID, productID); return err },
		"delete product":  func() error { return admin.DeleteProduct(ctx, strangerID, productID) },
		"create size":     func() error { _, err := admin.CreateSize(ctx, strangerID, "XL", decimal.NewFromInt(1)); return err },
		"price":           func() error { return admin.UpdateSizePrice(ctx, strangerID, sizeIDs[0], decimal.NewFromInt(1)) },
		"delete size":     func() error { return admin.DeleteSize(ctx, strangerID, sizeIDs[0]) },
		"unlink":          func() error { return admin.UnlinkProductSize(ctx, strangerID, productID, sizeIDs[0]) },
		"seed":            func() error { _, err := admin.SeedDefaultSizes(ctx, strangerID); return err },
		"orders":          func() error { _, err := admin.ListOrders(ctx, strangerID, 10); return err },
		"stats":           func() error { _, err := admin.Stats(ctx, strangerID); return err },
		"description":     func() error { _, err := admin.UpdateDescription(ctx, strangerID, "X"); return err },
		"token":           func() error { _, err := admin.IssueToken(strangerID); return err },
	}
	for name, call := range calls {
		assert.ErrorIs(t, call(), lib.ErrForbidden, name)
	}

	categories, err := database.CountAll[tables.Category](ctx, env.db)
	require.NoError(t, err)
	assert.Equal(t, 1, categories)

	stored, err := env.services.CatalogService.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "Какаши", stored.Name)
	assert.True(t, stored.IsActive)

	size, err := env.services.CatalogService.GetSize(ctx, sizeIDs[0])
	require.NoError(t, err)
	assert.True(t, size.Price.Equal(decimal.NewFromInt(2490)))

	links, err := database.CountAll[tables.ProductSize](ctx, env.db)
	require.NoError(t, err)
	assert.Equal(t, 2, links)

	settings, err := env.services.SettingsService.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultDescription, settings.DescriptionText)
}

func TestAdminMutations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.services.AdminService

	category, err := admin.CreateCategory(ctx, testAdminID, "Аниме")
	require.NoError(t, err)
	title, err := admin.CreateTitle(ctx, testAdminID, category.ID, "Наруто")
	require.NoError(t, err)
	product, err := admin.CreateProduct(ctx, testAdminID, title.ID, "Какаши", "")
	require.NoError(t, err)
	size, err := admin.CreateSize(ctx, testAdminID, "25см", decimal.NewFromInt(2490))
	require.NoError(t, err)

	err = admin.LinkProductSize(ctx, testAdminID, product.ID, size.ID)
	assert.ErrorIs(t, err, lib.ErrDuplicate)

	require.NoError(t, admin.UpdateSizePrice(ctx, testAdminID, size.ID, decimal.NewFromInt(2590)))
	require.NoError(t, admin.SetProductPhoto(ctx, testAdminID, product.ID, "file-id"))

	active, err := admin.ToggleProductActive(ctx, testAdminID, product.ID)
	require.NoError(t, err)
	assert.False(t, active)

	settings, err := admin.UpdateDescription(ctx, testAdminID, "Новое описание")
	require.NoError(t, err)
	assert.Equal(t, "Новое описание", settings.DescriptionText)

	settings, err = admin.SetDescriptionVideo(ctx, testAdminID, "video-id")
	require.NoError(t, err)
	assert.Equal(t, "video-id", settings.VideoRef)

	require.NoError(t, admin.DeleteCategory(ctx, testAdminID, category.ID))
	stats, err := admin.Stats(ctx, testAdminID)
	require.NoError(t, err)
	assert.Zero(t, stats.Products)
	assert.Equal(t, 1, stats.Sizes)
}

func TestIssueAndValidateToken(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.services.AdminService.IssueToken(testAdminID)
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)

	claims, err := env.services.AuthService.ValidateAccessToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testAdminID, claims.Sub)

	// a token minted for someone later removed from the allow-list stops working
	forged, _, err := lib.GenerateAccessToken(strangerID, "admin", env.cfg.Auth.AccessTokenSecret, env.cfg.Auth.AccessTokenExpiry)
	require.NoError(t, err)
	_, err = env.services.AuthService.ValidateAccessToken(forged)
	assert.ErrorIs(t, err, lib.ErrForbidden)

	_, err = env.services.AuthService.ValidateAccessToken("garbage")
	assert.ErrorIs(t, err, lib.ErrInvalidToken)
}
