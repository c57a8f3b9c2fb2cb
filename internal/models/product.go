package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is wrapped by every validation failure in this package.
var ErrInvalidInput = errors.New("invalid input")

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
	ProductDraft    ProductStatus = "draft"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductInactive, ProductDraft:
		return true
	}
	return false
}

// ProductSettings is the singleton product configuration row.
type ProductSettings struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Price            decimal.Decimal        `json:"price"`
	Discount         decimal.Decimal        `json:"discount"`
	ImageURL         string                 `json:"image_url"`
	AdditionalImages []string               `json:"additional_images"`
	VideoURL         *string                `json:"video_url,omitempty"`
	Stock            int                    `json:"stock"`
	SKU              *string                `json:"sku,omitempty"`
	Status           ProductStatus          `json:"status"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// DisplayPrice is price minus discount. A discount larger than the price
// yields a negative value; callers decide how to present that.
func (s ProductSettings) DisplayPrice() decimal.Decimal {
	return s.Price.Sub(s.Discount)
}

// Gallery returns the primary image followed by the additional images,
// skipping blanks.
func (s ProductSettings) Gallery() []string {
	images := make([]string, 0, len(s.AdditionalImages)+1)
	for _, u := range append([]string{s.ImageURL}, s.AdditionalImages...) {
		if strings.TrimSpace(u) != "" {
			images = append(images, u)
		}
	}
	return images
}

// SettingsPatch is a partial update. Nil fields are left untouched.
type SettingsPatch struct {
	Title            *string                `json:"title,omitempty"`
	Description      *string                `json:"description,omitempty"`
	Price            *decimal.Decimal       `json:"price,omitempty"`
	Discount         *decimal.Decimal       `json:"discount,omitempty"`
	ImageURL         *string                `json:"image_url,omitempty"`
	AdditionalImages *[]string              `json:"additional_images,omitempty"`
	VideoURL         *string                `json:"video_url,omitempty"`
	Stock            *int                   `json:"stock,omitempty"`
	SKU              *string                `json:"sku,omitempty"`
	Status           *ProductStatus         `json:"status,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

func (p SettingsPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Discount == nil &&
		p.ImageURL == nil && p.AdditionalImages == nil && p.VideoURL == nil && p.Stock == nil &&
		p.SKU == nil && p.Status == nil && p.Metadata == nil
}

func (p SettingsPatch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: empty settings patch", ErrInvalidInput)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be blank", ErrInvalidInput)
	}
	if p.Price != nil && p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	if p.Discount != nil && p.Discount.IsNegative() {
		return fmt.Errorf("%w: discount cannot be negative", ErrInvalidInput)
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidInput)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown product status %q", ErrInvalidInput, *p.Status)
	}
	return nil
}

// Apply returns a copy of s with the patch applied.
func (p SettingsPatch) Apply(s ProductSettings) ProductSettings {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Discount != nil {
		s.Discount = *p.Discount
	}
	if p.ImageURL != nil {
		s.ImageURL = *p.ImageURL
	}
	if p.AdditionalImages != nil {
		s.AdditionalImages = append([]string{}, (*p.AdditionalImages)...)
	}
	if p.VideoURL != nil {
		v := *p.VideoURL
		s.VideoURL = &v
	}
	if p.Stock != nil {
		s.Stock = *p.Stock
	}
	if p.SKU != nil {
		v := *p.SKU
		s.SKU = &v
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Metadata != nil {
		s.Metadata = p.Metadata
	}
	return s
}

type PromotionalImage struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"image_url"`
	AltText   string    `json:"alt_text"`
	CreatedAt time.Time `json:"created_at"`
}

type SpecIcon string

const (
	IconRuler  SpecIcon = "ruler"
	IconScale  SpecIcon = "scale"
	IconBox    SpecIcon = "box"
	IconShield SpecIcon = "shield"
)

func (i SpecIcon) Valid() bool {
	switch i {
	case IconRuler, IconScale, IconBox, IconShield:
		return true
	}
	return false
}

// Specification describes one product attribute on the storefront.
type Specification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        SpecIcon  `json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
}
