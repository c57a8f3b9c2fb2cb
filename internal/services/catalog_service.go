package services

import (
	"context"
	"fmt"
	"strings"

	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/repository"
)

// CatalogService manages the promotional images and specifications shown
// below the product.
type CatalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) PromotionalImages(ctx context.Context) ([]models.PromotionalImage, error) {
	images, err := s.repo.ListPromotionalImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotional images: %w", err)
	}
	return images, nil
}

func (s *CatalogService) AddPromotionalImage(ctx context.Context, imageURL, altText string) (*models.PromotionalImage, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image_url is required", models.ErrInvalidInput)
	}
	return s.repo.CreatePromotionalImage(ctx, imageURL, strings.TrimSpace(altText))
}

func (s *CatalogService) RemovePromotionalImage(ctx context.Context, id string) error {
	if err := checkID("promotional image", id); err != nil {
		return err
	}
	return s.repo.DeletePromotionalImage(ctx, id)
}

func (s *CatalogService) Specifications(ctx context.Context) ([]models.Specification, error) {
	specs, err := s.repo.ListSpecifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list specifications: %w", err)
	}
	return specs, nil
}

func (s *CatalogService) AddSpecification(ctx context.Context, title, description string, icon models.SpecIcon) (*models.Specification, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}
	if !icon.Valid() {
		return nil, fmt.Errorf("%w: icon must be one of ruler, scale, box, shield", models.ErrInvalidInput)
	}
	return s.repo.CreateSpecification(ctx, models.Specification{
		Title:       title,
		Description: strings.TrimSpace(description),
		Icon:        icon,
	})
}

func (s *CatalogService) RemoveSpecification(ctx context.Context, id string) error {
	if err := checkID("specification", id); err != nil {
		return err
	}
	return s.repo.DeleteSpecification(ctx, id)
}
