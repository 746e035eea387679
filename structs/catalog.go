package structs

import (
	"karma_server/structs/tables"

	"github.com/shopspring/decimal"
)

// ProductPage is one page of active products under a title
type ProductPage struct {
	Products   []tables.Product `json:"products"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// SizeOption is a size a product can be ordered in
type SizeOption struct {
	SizeID int64           `json:"size_id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type NameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type CreateTitleRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
}

type CreateProductRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	TitleID  int64  `json:"title_id" validate:"required,gt=0"`
	PhotoRef string `json:"photo_ref" validate:"omitempty,max=255"`
}

type CreateSizeRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Price string `json:"price" validate:"required"`
}

type PriceRequest struct {
	Price string `json:"price" validate:"required"`
}

type PhotoRequest struct {
	PhotoRef string `json:"photo_ref" validate:"required,max=255"`
}

type LinkRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	SizeID    int64 `json:"size_id" validate:"required,gt=0"`
}

type SettingsRequest struct {
	DescriptionText *string `json:"description_text" validate:"omitempty,min=1"`
	PhotoRef        *string `json:"photo_ref"`
	VideoRef        *string `json:"video_ref"`
}
