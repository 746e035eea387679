package services

import (
	"context"

	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/shopspring/decimal"
)

// AdminService is the only entry point for catalog mutations and order
// reporting. Every call checks the actor against the allow-list before
// touching storage.
type AdminService struct {
	logger   *gecho.Logger
	auth     *AuthService
	catalog  *CatalogService
	orders   *OrderService
	settings *SettingsService
}

func NewAdminService(logger *gecho.Logger, auth *AuthService, catalog *CatalogService, orders *OrderService, settings *SettingsService) *AdminService {
	return &AdminService{
		logger:   logger,
		auth:     auth,
		catalog:  catalog,
		orders:   orders,
		settings: settings,
	}
}

func (as *AdminService) IsAdmin(actorID int64) bool {
	return as.auth.IsAdmin(actorID)
}

func (as *AdminService) IssueToken(actorID int64) (*structs.TokenResponse, error) {
	return as.auth.GenerateAccessToken(actorID)
}

// --- Categories ---

func (as *AdminService) CreateCategory(ctx context.Context, actorID int64, name string) (*tables.Category, error) {
	if err := as.auth.Authorize(actorID, "create category"); err != nil {
		return nil, err
	}
	category, err := as.catalog.CreateCategory(ctx, name)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "create category"), gecho.Field("category_id", category.ID))
	return category, nil
}

func (as *AdminService) RenameCategory(ctx context.Context, actorID, id int64, name string) error {
	if err := as.auth.Authorize(actorID, "rename category"); err != nil {
		return err
	}
	if err := as.catalog.RenameCategory(ctx, id, name); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "rename category"), gecho.Field("category_id", id))
	return nil
}

func (as *AdminService) DeleteCategory(ctx context.Context, actorID, id int64) error {
	if err := as.auth.Authorize(actorID, "delete category"); err != nil {
		return err
	}
	if err := as.catalog.DeleteCategory(ctx, id); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "delete category"), gecho.Field("category_id", id))
	return nil
}

// --- Titles ---

func (as *AdminService) CreateTitle(ctx context.Context, actorID, categoryID int64, name string) (*tables.Title, error) {
	if err := as.auth.Authorize(actorID, "create title"); err != nil {
		return nil, err
	}
	title, err := as.catalog.CreateTitle(ctx, categoryID, name)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "create title"), gecho.Field("title_id", title.ID))
	return title, nil
}

func (as *AdminService) RenameTitle(ctx context.Context, actorID, id int64, name string) error {
	if err := as.auth.Authorize(actorID, "rename title"); err != nil {
		return err
	}
	if err := as.catalog.RenameTitle(ctx, id, name); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "rename title"), gecho.Field("title_id", id))
	return nil
}

func (as *AdminService) DeleteTitle(ctx context.Context, actorID, id int64) error {
	if err := as.auth.Authorize(actorID, "delete title"); err != nil {
		return err
	}
	if err := as.catalog.DeleteTitle(ctx, id); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "delete title"), gecho.Field("title_id", id))
	return nil
}

// --- Products ---

func (as *AdminService) ListProducts(ctx context.Context, actorID, titleID int64) ([]tables.Product, error) {
	if err := as.auth.Authorize(actorID, "list products"); err != nil {
		return nil, err
	}
	return as.catalog.ListProducts(ctx, titleID)
}

func (as *AdminService) CreateProduct(ctx context.Context, actorID, titleID int64, name, photoRef string) (*tables.Product, error) {
	if err := as.auth.Authorize(actorID, "create product"); err != nil {
		return nil, err
	}
	product, err := as.catalog.CreateProduct(ctx, titleID, name, photoRef)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "create product"), gecho.Field("product_id", product.ID))
	return product, nil
}

func (as *AdminService) RenameProduct(ctx context.Context, actorID, id int64, name string) error {
	if err := as.auth.Authorize(actorID, "rename product"); err != nil {
		return err
	}
	if err := as.catalog.RenameProduct(ctx, id, name); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "rename product"), gecho.Field("product_id", id))
	return nil
}

func (as *AdminService) SetProductPhoto(ctx context.Context, actorID, id int64, photoRef string) error {
	if err := as.auth.Authorize(actorID, "set product photo"); err != nil {
		return err
	}
	if err := as.catalog.SetProductPhoto(ctx, id, photoRef); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "set product photo"), gecho.Field("product_id", id))
	return nil
}

// ToggleProductActive flips visibility and returns the new value
func (as *AdminService) ToggleProductActive(ctx context.Context, actorID, id int64) (bool, error) {
	if err := as.auth.Authorize(actorID, "toggle product"); err != nil {
		return false, err
	}
	active, err := as.catalog.ToggleProductActive(ctx, id)
	if err != nil {
		return false, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "toggle product"), gecho.Field("product_id", id), gecho.Field("active", active))
	return active, nil
}

func (as *AdminService) DeleteProduct(ctx context.Context, actorID, id int64) error {
	if err := as.auth.Authorize(actorID, "delete product"); err != nil {
		return err
	}
	if err := as.catalog.DeleteProduct(ctx, id); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "delete product"), gecho.Field("product_id", id))
	return nil
}

// --- Sizes ---

func (as *AdminService) ListSizes(ctx context.Context, actorID int64) ([]tables.Size, error) {
	if err := as.auth.Authorize(actorID, "list sizes"); err != nil {
		return nil, err
	}
	return as.catalog.ListSizes(ctx)
}

func (as *AdminService) CreateSize(ctx context.Context, actorID int64, name string, price decimal.Decimal) (*tables.Size, error) {
	if err := as.auth.Authorize(actorID, "create size"); err != nil {
		return nil, err
	}
	size, err := as.catalog.CreateSize(ctx, name, price)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "create size"), gecho.Field("size_id", size.ID))
	return size, nil
}

func (as *AdminService) RenameSize(ctx context.Context, actorID, id int64, name string) error {
	if err := as.auth.Authorize(actorID, "rename size"); err != nil {
		return err
	}
	if err := as.catalog.RenameSize(ctx, id, name); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "rename size"), gecho.Field("size_id", id))
	return nil
}

func (as *AdminService) UpdateSizePrice(ctx context.Context, actorID, id int64, price decimal.Decimal) error {
	if err := as.auth.Authorize(actorID, "update size price"); err != nil {
		return err
	}
	if err := as.catalog.UpdateSizePrice(ctx, id, price); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "update size price"), gecho.Field("size_id", id), gecho.Field("price", price.String()))
	return nil
}

func (as *AdminService) DeleteSize(ctx context.Context, actorID, id int64) error {
	if err := as.auth.Authorize(actorID, "delete size"); err != nil {
		return err
	}
	if err := as.catalog.DeleteSize(ctx, id); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "delete size"), gecho.Field("size_id", id))
	return nil
}

func (as *AdminService) SeedDefaultSizes(ctx context.Context, actorID int64) (int, error) {
	if err := as.auth.Authorize(actorID, "seed sizes"); err != nil {
		return 0, err
	}
	created, err := as.catalog.SeedDefaultSizes(ctx)
	if err != nil {
		return 0, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "seed sizes"), gecho.Field("created", created))
	return created, nil
}

// --- Links ---

func (as *AdminService) LinkProductSize(ctx context.Context, actorID, productID, sizeID int64) error {
	if err := as.auth.Authorize(actorID, "link size"); err != nil {
		return err
	}
	if err := as.catalog.LinkProductSize(ctx, productID, sizeID); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "link size"), gecho.Field("product_id", productID), gecho.Field("size_id", sizeID))
	return nil
}

func (as *AdminService) UnlinkProductSize(ctx context.Context, actorID, productID, sizeID int64) error {
	if err := as.auth.Authorize(actorID, "unlink size"); err != nil {
		return err
	}
	if err := as.catalog.UnlinkProductSize(ctx, productID, sizeID); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "unlink size"), gecho.Field("product_id", productID), gecho.Field("size_id", sizeID))
	return nil
}

// --- Orders ---

func (as *AdminService) ListOrders(ctx context.Context, actorID int64, limit int) ([]tables.Order, error) {
	if err := as.auth.Authorize(actorID, "list orders"); err != nil {
		return nil, err
	}
	return as.orders.ListRecent(ctx, limit)
}

func (as *AdminService) GetOrder(ctx context.Context, actorID, id int64) (*tables.Order, error) {
	if err := as.auth.Authorize(actorID, "get order"); err != nil {
		return nil, err
	}
	return as.orders.GetByID(ctx, id)
}

func (as *AdminService) UpdateOrderStatus(ctx context.Context, actorID, id int64, status tables.OrderStatus) error {
	if err := as.auth.Authorize(actorID, "update order status"); err != nil {
		return err
	}
	if err := as.orders.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "update order status"), gecho.Field("order_id", id), gecho.Field("status", status))
	return nil
}

func (as *AdminService) Stats(ctx context.Context, actorID int64) (*structs.Stats, error) {
	if err := as.auth.Authorize(actorID, "stats"); err != nil {
		return nil, err
	}
	stats := &structs.Stats{}
	if err := as.catalog.Counts(ctx, stats); err != nil {
		return nil, err
	}
	if err := as.orders.Stats(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// --- Settings ---

func (as *AdminService) GetSettings(ctx context.Context, actorID int64) (*tables.Settings, error) {
	if err := as.auth.Authorize(actorID, "get settings"); err != nil {
		return nil, err
	}
	return as.settings.Get(ctx)
}

func (as *AdminService) UpdateDescription(ctx context.Context, actorID int64, text string) (*tables.Settings, error) {
	if err := as.auth.Authorize(actorID, "update description"); err != nil {
		return nil, err
	}
	settings, err := as.settings.UpdateText(ctx, text)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "update description"))
	return settings, nil
}

func (as *AdminService) SetDescriptionPhoto(ctx context.Context, actorID int64, photoRef string) (*tables.Settings, error) {
	if err := as.auth.Authorize(actorID, "set description photo"); err != nil {
		return nil, err
	}
	settings, err := as.settings.SetPhoto(ctx, photoRef)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "set description photo"))
	return settings, nil
}

func (as *AdminService) SetDescriptionVideo(ctx context.Context, actorID int64, videoRef string) (*tables.Settings, error) {
	if err := as.auth.Authorize(actorID, "set description video"); err != nil {
		return nil, err
	}
	settings, err := as.settings.SetVideo(ctx, videoRef)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "set description video"))
	return settings, nil
}

func (as *AdminService) ClearDescriptionMedia(ctx context.Context, actorID int64) (*tables.Settings, error) {
	if err := as.auth.Authorize(actorID, "clear description media"); err != nil {
		return nil, err
	}
	settings, err := as.settings.ClearMedia(ctx)
	if err != nil {
		return nil, err
	}
	as.logger.Info("Admin mutation", gecho.Field("admin_id", actorID), gecho.Field("operation", "clear description media"))
	return settings, nil
}
