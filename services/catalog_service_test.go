package services

import (
	"context"
	"testing"

	"karma_server/database"
	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkedSizeIDs(t *testing.T, env *testEnv, productID int64) []int64 {
	t.Helper()
	options, err := env.services.CatalogService.ListProductSizes(context.Background(), productID)
	require.NoError(t, err)
	ids := make([]int64, 0, len(options))
	for _, o := range options {
		ids = append(ids, o.SizeID)
	}
	return ids
}

func TestNewProductIsLinkedToEverySize(t *testing.T) {
	env := newTestEnv(t)
	productID, sizeIDs := env.seedCatalog(t)

	assert.ElementsMatch(t, sizeIDs, linkedSizeIDs(t, env, productID))
}

func TestNewSizeIsLinkedToEveryProduct(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	productID, _ := env.seedCatalog(t)

	size, err := env.services.CatalogService.CreateSize(ctx, "50см", decimal.NewFromInt(6390))
	require.NoError(t, err)

	assert.Contains(t, linkedSizeIDs(t, env, productID), size.ID)
}

func TestProductSizesAreOrderedByPrice(t *testing.T) {
	env := newTestEnv(t)
	productID, _ := env.seedCatalog(t)

	options, err := env.services.CatalogService.ListProductSizes(context.Background(), productID)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.True(t, options[0].Price.LessThan(options[1].Price))
}

func TestDeleteCategoryCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.services.CatalogService
	productID, _ := env.seedCatalog(t)

	product, err := catalog.GetProduct(ctx, productID)
	require.NoError(t, err)
	title, err := catalog.GetTitle(ctx, product.TitleID)
	require.NoError(t, err)

	// a second category must survive
	other, err := catalog.CreateCategory(ctx, "Игры")
	require.NoError(t, err)
	otherTitle, err := catalog.CreateTitle(ctx, other.ID, "Ведьмак")
	require.NoError(t, err)
	otherProduct, err := catalog.CreateProduct(ctx, otherTitle.ID, "Геральт", "")
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteCategory(ctx, title.CategoryID))

	titles, err := database.Query[tables.Title](env.db).Where("category_id", title.CategoryID).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, titles)

	_, err = catalog.GetProduct(ctx, productID)
	assert.ErrorIs(t, err, lib.ErrNotFound)

	links, err := database.Query[tables.ProductSize](env.db).Where("product_id", productID).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, links)

	assert.Len(t, linkedSizeIDs(t, env, otherProduct.ID), 2)
}

func TestDeleteMissingCategory(t *testing.T) {
	env := newTestEnv(t)
	err := env.services.CatalogService.DeleteCategory(context.Background(), 999)
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestDuplicateNamesAreRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.services.CatalogService

	_, err := catalog.CreateCategory(ctx, "Аниме")
	require.NoError(t, err)
	_, err = catalog.CreateCategory(ctx, "  Аниме ")
	assert.ErrorIs(t, err, lib.ErrDuplicate)

	_, err = catalog.CreateSize(ctx, "25см", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = catalog.CreateSize(ctx, "25см", decimal.NewFromInt(200))
	assert.ErrorIs(t, err, lib.ErrDuplicate)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.services.CatalogService

	_, err := catalog.CreateCategory(ctx, "   ")
	assert.ErrorIs(t, err, lib.ErrValidation)

	_, err = catalog.CreateSize(ctx, "XL", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, lib.ErrValidation)

	_, err = catalog.CreateTitle(ctx, 999, "Сироты")
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestLinkAndUnlink(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.services.CatalogService
	productID, sizeIDs := env.seedCatalog(t)

	err := catalog.LinkProductSize(ctx, productID, sizeIDs[0])
	assert.ErrorIs(t, err, lib.ErrDuplicate)

	require.NoError(t, catalog.UnlinkProductSize(ctx, productID, sizeIDs[0]))
	assert.Equal(t, []int64{sizeIDs[1]}, linkedSizeIDs(t, env, productID))

	err = catalog.UnlinkProductSize(ctx, productID, sizeIDs[0])
	assert.ErrorIs(t, err, lib.ErrNotFound)

	require.NoError(t, catalog.LinkProductSize(ctx, productID, sizeIDs[0]))
	assert.ElementsMatch(t, sizeIDs, linkedSizeIDs(t, env, productID))
}

func TestDeleteSizeRemovesLinks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.services.CatalogService
	productID, sizeIDs := env.seedCatalog(t)

	require.NoError(t, catalog.DeleteSize(ctx, sizeIDs[0]))

	links, err := database.Query[tables.ProductSize](env.db).Where("size_id", sizeIDs[0]).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, links)
	assert.Equal(t, []int64{sizeIDs[1]}, linkedSizeIDs(t, env, productID))
}

func TestListActiveProductsHidesInactiveAndPaginates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.services.CatalogService

	category, err := catalog.CreateCategory(ctx, "Аниме")
	require.NoError(t, err)
	title, err := catalog.CreateTitle(ctx, category.ID, "Наруто")
	require.NoError(t, err)

	var ids []int64
	for _, name := range []string{"Какаши", "Итачи", "Гаара", "Саске"} {
		p, err := catalog.CreateProduct(ctx, title.ID, name, "")
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	active, err := catalog.ToggleProductActive(ctx, ids[3])
	require.NoError(t, err)
	assert.False(t, active)

	page, err := catalog.ListActiveProducts(ctx, title.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Products, 2)
	// newest first
	assert.Equal(t, ids[2], page.Products[0].ID)

	page, err = catalog.ListActiveProducts(ctx, title.ID, 2)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, ids[0], page.Products[0].ID)

	_, err = catalog.GetActiveProduct(ctx, ids[3])
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestLegacyAutoLink(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) { cfg.Shop.LegacyAutoLink = true })
	catalog := env.services.CatalogService
	productID, sizeIDs := env.seedCatalog(t)

	for _, id := range sizeIDs {
		require.NoError(t, catalog.UnlinkProductSize(ctx, productID, id))
	}

	assert.ElementsMatch(t, sizeIDs, linkedSizeIDs(t, env, productID))
}

func TestSeedDefaultSizesOnlyAddsMissing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.services.CatalogService

	_, err := catalog.CreateSize(ctx, DefaultSizes[0].Name, decimal.NewFromInt(1))
	require.NoError(t, err)

	created, err := catalog.SeedDefaultSizes(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultSizes)-1, created)

	created, err = catalog.SeedDefaultSizes(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
}
