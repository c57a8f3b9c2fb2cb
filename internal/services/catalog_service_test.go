package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/repository"
	"solo-drops-backend/internal/services"
	"solo-drops-backend/internal/store/memory"
)

func TestCatalogService_Specifications(t *testing.T) {
	ctx := context.Background()
	svc := services.NewCatalogService(memory.New())

	first, err := svc.AddSpecification(ctx, "Size", "EU 42", models.IconRuler)
	require.NoError(t, err)
	second, err := svc.AddSpecification(ctx, "Weight", "320 g", models.IconScale)
	require.NoError(t, err)

	specs, err := svc.Specifications(ctx)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, first.ID, specs[0].ID)
	assert.Equal(t, second.ID, specs[1].ID)

	require.NoError(t, svc.RemoveSpecification(ctx, first.ID))
	assert.ErrorIs(t, svc.RemoveSpecification(ctx, first.ID), repository.ErrNotFound)
	assert.ErrorIs(t, svc.RemoveSpecification(ctx, "spec-1"), repository.ErrNotFound)

	_, err = svc.AddSpecification(ctx, "Color", "Red", models.SpecIcon("palette"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCatalogService_PromotionalImages(t *testing.T) {
	ctx := context.Background()
	svc := services.NewCatalogService(memory.New())

	_, err := svc.AddPromotionalImage(ctx, "  ", "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	img, err := svc.AddPromotionalImage(ctx, "https://cdn.example.com/a.jpg", "Side view")
	require.NoError(t, err)

	images, err := svc.PromotionalImages(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, img.ID, images[0].ID)
	assert.Equal(t, "Side view", images[0].AltText)

	assert.ErrorIs(t, svc.RemovePromotionalImage(ctx, "image-1"), repository.ErrNotFound)
	require.NoError(t, svc.RemovePromotionalImage(ctx, img.ID))
}

type fakeImageStore struct {
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeImageStore) UploadImage(filename, contentType string, data []byte) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	path := "products/2025/03/" + filename
	f.uploaded = append(f.uploaded, path)
	return path, "https://cdn.example.com/" + path, nil
}

func (f *fakeImageStore) DeleteFile(storagePath string) error {
	f.deleted = append(f.deleted, storagePath)
	return nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestStorageService_UploadToGallery(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	settings := services.NewSettingsState(store)
	images := &fakeImageStore{}
	svc := services.NewStorageService(images, settings, services.NewCatalogService(store), nil)

	resp, err := svc.UploadImage(ctx, "shoe.png", pngHeader, services.TargetGallery, "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/products/2025/03/shoe.png", resp.PublicURL)

	current, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{resp.PublicURL}, current.AdditionalImages)
}

func TestStorageService_UploadToPromotional(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	catalog := services.NewCatalogService(store)
	svc := services.NewStorageService(&fakeImageStore{}, services.NewSettingsState(store), catalog, nil)

	_, err := svc.UploadImage(ctx, "banner.png", pngHeader, services.TargetPromotional, "Banner")
	require.NoError(t, err)

	promos, err := catalog.PromotionalImages(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, "Banner", promos[0].AltText)
}

func TestStorageService_RejectsNonImages(t *testing.T) {
	store := memory.New()
	images := &fakeImageStore{}
	svc := services.NewStorageService(images, services.NewSettingsState(store), services.NewCatalogService(store), nil)

	_, err := svc.UploadImage(context.Background(), "notes.txt", []byte("hello"), services.TargetNone, "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, images.uploaded)
}

func TestStorageService_RemovesUploadWhenAttachFails(t *testing.T) {
	ctx := context.Background()
	repo := &flakySettings{Store: memory.New(), updateErr: errors.New("boom")}
	images := &fakeImageStore{}
	svc := services.NewStorageService(images, services.NewSettingsState(repo), services.NewCatalogService(repo), nil)

	_, err := svc.UploadImage(ctx, "shoe.png", pngHeader, services.TargetPrimary, "")
	require.Error(t, err)
	assert.Equal(t, images.uploaded, images.deleted)
}
