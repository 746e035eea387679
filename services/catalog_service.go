package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"karma_server/database"
	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

const (
	maxNameLength       = 200
	productSizeConflict = "CONFLICT (product_id, size_id) DO NOTHING"
)

// DefaultSizes is the standard size list seeded on request
var DefaultSizes = []struct {
	Name  string
	Price int64
}{
	{"Стандарт 20см на пластиковой подставке", 1990},
	{"Стандарт 25см на пластиковой подставке", 2490},
	{"Премиум 25см на деревянной подставке", 3490},
	{"Премиум 30см на деревянной подставке", 4390},
	{"Настенная панель 30см", 4490},
	{"Настенная панель 35см", 4790},
	{"Настенная панель 40см", 5390},
	{"Настенная панель 45см", 5890},
	{"Настенная панель 50см", 6390},
	{"Настенная панель 55см", 7090},
}

// CatalogService owns categories, titles, products, sizes and their links.
// Mutations are meant to be reached through AdminService only.
type CatalogService struct {
	logger *gecho.Logger
	db     *database.DB
	cfg    *structs.ShopConfig
}

func NewCatalogService(logger *gecho.Logger, cfg *structs.Config, db *database.DB) *CatalogService {
	return &CatalogService{
		logger: logger,
		db:     db,
		cfg:    cfg.Shop,
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", lib.ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", fmt.Errorf("%w: name is longer than %d characters", lib.ErrValidation, maxNameLength)
	}
	return name, nil
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", lib.ErrNotFound, entity, id)
}

// findOne wraps database.FindByID with an entity name for the error message
func findOne[T any](ctx context.Context, db bun.IDB, entity string, id int64) (*T, error) {
	record, err := database.FindByID[T](ctx, db, id)
	if errors.Is(err, lib.ErrNotFound) {
		return nil, notFound(entity, id)
	}
	return record, err
}

// --- Reads ---

func (cs *CatalogService) ListCategories(ctx context.Context) ([]tables.Category, error) {
	return database.Query[tables.Category](cs.db).OrderBy("id", database.ASC).All(ctx)
}

func (cs *CatalogService) GetCategory(ctx context.Context, id int64) (*tables.Category, error) {
	return findOne[tables.Category](ctx, cs.db, "category", id)
}

// ListTitles returns the titles of a category, failing when the category is gone
func (cs *CatalogService) ListTitles(ctx context.Context, categoryID int64) ([]tables.Title, error) {
	if _, err := cs.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return database.Query[tables.Title](cs.db).
		Where("category_id", categoryID).
		OrderBy("id", database.ASC).
		All(ctx)
}

func (cs *CatalogService) GetTitle(ctx context.Context, id int64) (*tables.Title, error) {
	return findOne[tables.Title](ctx, cs.db, "title", id)
}

// ListActiveProducts returns one page of active products under a title, newest first
func (cs *CatalogService) ListActiveProducts(ctx context.Context, titleID int64, page int) (*structs.ProductPage, error) {
	startTime := time.Now()

	if _, err := cs.GetTitle(ctx, titleID); err != nil {
		return nil, err
	}

	query := database.Query[tables.Product](cs.db).
		Where("title_id", titleID).
		Where("is_active", true).
		OrderBy("id", database.DESC)

	result, err := database.Paginate(ctx, query, page, cs.cfg.PageSize)
	if err != nil {
		cs.logger.Error("Failed to fetch products",
			gecho.Field("error", err),
			gecho.Field("title_id", titleID),
			gecho.Field("page", page),
		)
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	cs.logger.Debug("Products fetched successfully",
		gecho.Field("title_id", titleID),
		gecho.Field("count", len(result.Data)),
		gecho.Field("total", result.Pagination.Total),
		gecho.Field("page", result.Pagination.Page),
		gecho.Field("duration", time.Since(startTime)),
	)

	return &structs.ProductPage{
		Products:   result.Data,
		Page:       result.Pagination.Page,
		PageSize:   result.Pagination.PageSize,
		Total:      result.Pagination.Total,
		TotalPages: result.Pagination.TotalPages,
	}, nil
}

// ListProducts returns every product of a title, inactive ones included
func (cs *CatalogService) ListProducts(ctx context.Context, titleID int64) ([]tables.Product, error) {
	if _, err := cs.GetTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return database.Query[tables.Product](cs.db).
		Where("title_id", titleID).
		OrderBy("id", database.ASC).
		All(ctx)
}

// GetProduct returns a product regardless of its active flag
func (cs *CatalogService) GetProduct(ctx context.Context, id int64) (*tables.Product, error) {
	return findOne[tables.Product](ctx, cs.db, "product", id)
}

// GetActiveProduct hides inactive products from customers
func (cs *CatalogService) GetActiveProduct(ctx context.Context, id int64) (*tables.Product, error) {
	product, err := cs.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, notFound("product", id)
	}
	return product, nil
}

// ListProductSizes returns the sizes a product can be ordered in, cheapest first
func (cs *CatalogService) ListProductSizes(ctx context.Context, productID int64) ([]structs.SizeOption, error) {
	sizes, err := cs.linkedSizes(ctx, productID)
	if err != nil {
		return nil, err
	}

	if len(sizes) == 0 && cs.cfg.LegacyAutoLink {
		if _, err := cs.LinkAllSizes(ctx, productID); err != nil {
			return nil, err
		}
		if sizes, err = cs.linkedSizes(ctx, productID); err != nil {
			return nil, err
		}
	}

	options := make([]structs.SizeOption, 0, len(sizes))
	for _, s := range sizes {
		options = append(options, structs.SizeOption{SizeID: s.ID, Name: s.Name, Price: s.Price})
	}
	return options, nil
}

func (cs *CatalogService) linkedSizes(ctx context.Context, productID int64) ([]tables.Size, error) {
	var sizes []tables.Size
	err := database.WithRetry(ctx, func() error {
		sizes = nil
		return cs.db.NewSelect().
			Model(&sizes).
			Join("JOIN product_sizes AS ps ON ps.size_id = s.id").
			Where("ps.product_id = ?", productID).
			OrderExpr("s.price ASC, s.id ASC").
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product sizes: %w", err)
	}
	return sizes, nil
}

func (cs *CatalogService) GetSize(ctx context.Context, id int64) (*tables.Size, error) {
	return findOne[tables.Size](ctx, cs.db, "size", id)
}

func (cs *CatalogService) ListSizes(ctx context.Context) ([]tables.Size, error) {
	return database.Query[tables.Size](cs.db).OrderBy("price", database.ASC).OrderBy("id", database.ASC).All(ctx)
}

// IsLinked reports whether the product is orderable at the size
func (cs *CatalogService) IsLinked(ctx context.Context, productID, sizeID int64) (bool, error) {
	return database.Query[tables.ProductSize](cs.db).
		Where("product_id", productID).
		Where("size_id", sizeID).
		Exists(ctx)
}

// Counts fills the catalog part of the statistics
func (cs *CatalogService) Counts(ctx context.Context, stats *structs.Stats) error {
	var err error
	if stats.Categories, err = database.CountAll[tables.Category](ctx, cs.db); err != nil {
		return err
	}
	if stats.Titles, err = database.CountAll[tables.Title](ctx, cs.db); err != nil {
		return err
	}
	if stats.Products, err = database.CountAll[tables.Product](ctx, cs.db); err != nil {
		return err
	}
	stats.Sizes, err = database.CountAll[tables.Size](ctx, cs.db)
	return err
}

// --- Categories ---

func (cs *CatalogService) CreateCategory(ctx context.Context, name string) (*tables.Category, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	category, err := database.Query[tables.Category](cs.db).Insert(ctx, &tables.Category{
		Name:      name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, cs.mapWriteError(err, "category", name)
	}

	cs.logger.Info("Category created", gecho.Field("category_id", category.ID), gecho.Field("name", name))
	return category, nil
}

func (cs *CatalogService) RenameCategory(ctx context.Context, id int64, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if err := database.UpdateByID[tables.Category](ctx, cs.db, id, map[string]any{"name": name}); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			return notFound("category", id)
		}
		return cs.mapWriteError(err, "category", name)
	}
	return nil
}

// DeleteCategory removes the category with its titles, their products and
// those products' size links as one unit
func (cs *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	err := database.Transaction(ctx, cs.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := findOne[tables.Category](ctx, tx, "category", id); err != nil {
			return err
		}

		titleIDs, err := database.Query[tables.Title](tx).Where("category_id", id).IDs(ctx)
		if err != nil {
			return err
		}
		if err := deleteTitles(ctx, tx, titleIDs); err != nil {
			return err
		}

		_, err = database.Query[tables.Category](tx).Where("id", id).Delete(ctx)
		return err
	})
	if err != nil {
		return err
	}

	cs.logger.Info("Category deleted", gecho.Field("category_id", id))
	return nil
}

// --- Titles ---

func (cs *CatalogService) CreateTitle(ctx context.Context, categoryID int64, name string) (*tables.Title, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if _, err := cs.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	title, err := database.Query[tables.Title](cs.db).Insert(ctx, &tables.Title{
		Name:       name,
		CategoryID: categoryID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return nil, cs.mapWriteError(err, "title", name)
	}

	cs.logger.Info("Title created", gecho.Field("title_id", title.ID), gecho.Field("category_id", categoryID))
	return title, nil
}

func (cs *CatalogService) RenameTitle(ctx context.Context, id int64, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if err := database.UpdateByID[tables.Title](ctx, cs.db, id, map[string]any{"name": name}); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			return notFound("title", id)
		}
		return err
	}
	return nil
}

func (cs *CatalogService) DeleteTitle(ctx context.Context, id int64) error {
	err := database.Transaction(ctx, cs.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := findOne[tables.Title](ctx, tx, "title", id); err != nil {
			return err
		}
		return deleteTitles(ctx, tx, []int64{id})
	})
	if err != nil {
		return err
	}

	cs.logger.Info("Title deleted", gecho.Field("title_id", id))
	return nil
}

func deleteTitles(ctx context.Context, tx bun.Tx, titleIDs []int64) error {
	if len(titleIDs) == 0 {
		return nil
	}

	productIDs, err := database.Query[tables.Product](tx).WhereIn("title_id", titleIDs).IDs(ctx)
	if err != nil {
		return err
	}
	if err := deleteProducts(ctx, tx, productIDs); err != nil {
		return err
	}

	_, err = database.Query[tables.Title](tx).WhereIn("id", titleIDs).Delete(ctx)
	return err
}

// --- Products ---

// CreateProduct stores the product and links it to every existing size
func (cs *CatalogService) CreateProduct(ctx context.Context, titleID int64, name, photoRef string) (*tables.Product, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	var product *tables.Product
	err = database.Transaction(ctx, cs.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := findOne[tables.Title](ctx, tx, "title", titleID); err != nil {
			return err
		}

		product, err = database.Query[tables.Product](tx).Insert(ctx, &tables.Product{
			Name:      name,
			PhotoRef:  strings.TrimSpace(photoRef),
			TitleID:   titleID,
			IsActive:  true,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		_, err = linkAllSizes(ctx, tx, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	cs.logger.Info("Product created", gecho.Field("product_id", product.ID), gecho.Field("title_id", titleID))
	return product, nil
}

func (cs *CatalogService) RenameProduct(ctx context.Context, id int64, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if err := database.UpdateByID[tables.Product](ctx, cs.db, id, map[string]any{"name": name}); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			return notFound("product", id)
		}
		return err
	}
	return nil
}

func (cs *CatalogService) SetProductPhoto(ctx context.Context, id int64, photoRef string) error {
	photoRef = strings.TrimSpace(photoRef)
	if photoRef == "" {
		return fmt.Errorf("%w: photo reference must not be empty", lib.ErrValidation)
	}
	if err := database.UpdateByID[tables.Product](ctx, cs.db, id, map[string]any{"photo_ref": photoRef}); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			return notFound("product", id)
		}
		return err
	}
	return nil
}

// ToggleProductActive flips the active flag and returns the new value
func (cs *CatalogService) ToggleProductActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := database.Transaction(ctx, cs.db, func(ctx context.Context, tx bun.Tx) error {
		product, err := findOne[tables.Product](ctx, tx, "product", id)
		if err != nil {
			return err
		}
		active = !product.IsActive
		return database.UpdateByID[tables.Product](ctx, tx, id, map[string]any{"is_active": active})
	})
	if err != nil {
		return false, err
	}

	cs.logger.Info("Product visibility changed", gecho.Field("product_id", id), gecho.Field("active", active))
	return active, nil
}

func (cs *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	err := database.Transaction(ctx, cs.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := findOne[tables.Product](ctx, tx, "product", id); err != nil {
			return err
		}
		return deleteProducts(ctx, tx, []int64{id})
	})
	if err != nil {
		return err
	}

	cs.logger.Info("Product deleted", gecho.Field("product_id", id))
	return nil
}

func deleteProducts(ctx context.Context, tx bun.Tx, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	if _, err := database.Query[tables.ProductSize](tx).WhereIn("product_id", productIDs).Delete(ctx); err != nil {
		return err
	}
	_, err := database.Query[tables.Product](tx).WhereIn("id", productIDs).Delete(ctx)
	return err
}

// --- Sizes ---

// CreateSize stores the size and links it to every existing product
func (cs *CatalogService) CreateSize(ctx context.Context, name string, price decimal.Decimal) (*tables.Size, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", lib.ErrValidation)
	}

	var size *tables.Size
	err = database.Transaction(ctx, cs.db, func(ctx context.Context, tx bun.Tx) error {
		size, err = database.Query[tables.Size](tx).Insert(ctx, &tables.Size{
			Name:      name,
			Price:     price,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		productIDs, err := database.Query[tables.Product](tx).IDs(ctx)
		if err != nil {
			return err
		}
		links := make([]tables.ProductSize, 0, len(productIDs))
		for _, pid := range productIDs {
			links = append(links, tables.ProductSize{ProductID: pid, SizeID: size.ID})
		}
		_, err = database.Query[tables.ProductSize](tx).InsertMany(ctx, links, productSizeConflict)
		return err
	})
	if err != nil {
		return nil, cs.mapWriteError(err, "size", name)
	}

	cs.logger.Info("Size created", gecho.Field("size_id", size.ID), gecho.Field("price", price.String()))
	return size, nil
}

func (cs *CatalogService) RenameSize(ctx context.Context, id int64, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if err := database.UpdateByID[tables.Size](ctx, cs.db, id, map[string]any{"name": name}); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			return notFound("size", id)
		}
		return cs.mapWriteError(err, "size", name)
	}
	return nil
}

func (cs *CatalogService) UpdateSizePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", lib.ErrValidation)
	}
	if err := database.UpdateByID[tables.Size](ctx, cs.db, id, map[string]any{"price": price}); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			return notFound("size", id)
		}
		return err
	}
	return nil
}

// DeleteSize removes the size after dropping every link to it
func (cs *CatalogService) DeleteSize(ctx context.Context, id int64) error {
	err := database.Transaction(ctx, cs.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := findOne[tables.Size](ctx, tx, "size", id); err != nil {
			return err
		}
		if _, err := database.Query[tables.ProductSize](tx).Where("size_id", id).Delete(ctx); err != nil {
			return err
		}
		_, err := database.Query[tables.Size](tx).Where("id", id).Delete(ctx)
		return err
	})
	if err != nil {
		return err
	}

	cs.logger.Info("Size deleted", gecho.Field("size_id", id))
	return nil
}

// SeedDefaultSizes adds every default size missing by name and returns how many were created
func (cs *CatalogService) SeedDefaultSizes(ctx context.Context) (int, error) {
	existing, err := cs.ListSizes(ctx)
	if err != nil {
		return 0, err
	}
	names := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		names[s.Name] = struct{}{}
	}

	created := 0
	for _, def := range DefaultSizes {
		if _, ok := names[def.Name]; ok {
			continue
		}
		if _, err := cs.CreateSize(ctx, def.Name, decimal.NewFromInt(def.Price)); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// --- Links ---

// LinkProductSize links a product to a size, rejecting an existing pair
func (cs *CatalogService) LinkProductSize(ctx context.Context, productID, sizeID int64) error {
	if _, err := cs.GetProduct(ctx, productID); err != nil {
		return err
	}
	if _, err := cs.GetSize(ctx, sizeID); err != nil {
		return err
	}

	inserted, err := database.Query[tables.ProductSize](cs.db).InsertMany(ctx,
		[]tables.ProductSize{{ProductID: productID, SizeID: sizeID}}, productSizeConflict)
	if err != nil {
		return err
	}
	if inserted == 0 {
		return fmt.Errorf("%w: product %d is already linked to size %d", lib.ErrDuplicate, productID, sizeID)
	}
	return nil
}

func (cs *CatalogService) UnlinkProductSize(ctx context.Context, productID, sizeID int64) error {
	deleted, err := database.Query[tables.ProductSize](cs.db).
		Where("product_id", productID).
		Where("size_id", sizeID).
		Delete(ctx)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("%w: product %d is not linked to size %d", lib.ErrNotFound, productID, sizeID)
	}
	return nil
}

// LinkAllSizes links the product to every size it is not linked to yet
func (cs *CatalogService) LinkAllSizes(ctx context.Context, productID int64) (int, error) {
	if _, err := cs.GetProduct(ctx, productID); err != nil {
		return 0, err
	}
	linked, err := linkAllSizes(ctx, cs.db, productID)
	if err != nil {
		return 0, err
	}
	if linked > 0 {
		cs.logger.Info("Product linked to all sizes", gecho.Field("product_id", productID), gecho.Field("linked", linked))
	}
	return linked, nil
}

func linkAllSizes(ctx context.Context, db bun.IDB, productID int64) (int, error) {
	sizeIDs, err := database.Query[tables.Size](db).IDs(ctx)
	if err != nil {
		return 0, err
	}
	links := make([]tables.ProductSize, 0, len(sizeIDs))
	for _, sid := range sizeIDs {
		links = append(links, tables.ProductSize{ProductID: productID, SizeID: sid})
	}
	return database.Query[tables.ProductSize](db).InsertMany(ctx, links, productSizeConflict)
}

func (cs *CatalogService) mapWriteError(err error, entity, name string) error {
	mapped := lib.MapDBError(err)
	if errors.Is(mapped, lib.ErrDuplicate) {
		return fmt.Errorf("%w: %s %q", lib.ErrDuplicate, entity, name)
	}
	return err
}
