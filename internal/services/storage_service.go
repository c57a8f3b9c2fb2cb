package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"solo-drops-backend/internal/models"
)

// ImageStore is the object storage the admin uploads product media to.
type ImageStore interface {
	UploadImage(filename, contentType string, data []byte) (string, string, error)
	DeleteFile(storagePath string) error
}

// UploadTarget says where an uploaded image is attached after it is stored.
type UploadTarget string

const (
	TargetNone        UploadTarget = ""
	TargetPrimary     UploadTarget = "primary"
	TargetGallery     UploadTarget = "gallery"
	TargetPromotional UploadTarget = "promotional"
)

func (t UploadTarget) Valid() bool {
	switch t {
	case TargetNone, TargetPrimary, TargetGallery, TargetPromotional:
		return true
	}
	return false
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type StorageService struct {
	store    ImageStore
	settings *SettingsState
	catalog  *CatalogService
	log      *slog.Logger
}

func NewStorageService(store ImageStore, settings *SettingsState, catalog *CatalogService, log *slog.Logger) *StorageService {
	if log == nil {
		log = slog.Default()
	}
	return &StorageService{
		store:    store,
		settings: settings,
		catalog:  catalog,
		log:      log,
	}
}

// UploadImage stores an image and optionally attaches its public URL to the
// product or the promotional list. If attaching fails the stored object is
// removed again.
func (s *StorageService) UploadImage(ctx context.Context, filename string, data []byte, target UploadTarget, altText string) (*models.UploadResponse, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown upload target %q", models.ErrInvalidInput, target)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", models.ErrInvalidInput)
	}

	contentType := http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported file type %s", models.ErrInvalidInput, contentType)
	}

	storagePath, publicURL, err := s.store.UploadImage(filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	if err := s.attach(ctx, target, publicURL, altText); err != nil {
		if delErr := s.store.DeleteFile(storagePath); delErr != nil {
			s.log.Warn("failed to remove orphaned upload",
				slog.String("storage_path", storagePath),
				slog.Any("error", delErr))
		}
		return nil, err
	}

	return &models.UploadResponse{StoragePath: storagePath, PublicURL: publicURL}, nil
}

func (s *StorageService) attach(ctx context.Context, target UploadTarget, publicURL, altText string) error {
	switch target {
	case TargetPrimary:
		_, err := s.settings.Update(ctx, models.SettingsPatch{ImageURL: &publicURL})
		return err
	case TargetGallery:
		current, err := s.settings.Fetch(ctx)
		if err != nil {
			return err
		}
		images := append(append([]string{}, current.AdditionalImages...), publicURL)
		_, err = s.settings.Update(ctx, models.SettingsPatch{AdditionalImages: &images})
		return err
	case TargetPromotional:
		_, err := s.catalog.AddPromotionalImage(ctx, publicURL, altText)
		return err
	}
	return nil
}
