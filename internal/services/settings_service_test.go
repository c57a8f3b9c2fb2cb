package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/services"
	"solo-drops-backend/internal/store/memory"
)

// flakySettings fails GetSettings or UpdateSettings on demand.
type flakySettings struct {
	*memory.Store
	getErr    error
	updateErr error
}

func (f *flakySettings) GetSettings(ctx context.Context) (*models.ProductSettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.GetSettings(ctx)
}

func (f *flakySettings) UpdateSettings(ctx context.Context, id string, patch models.SettingsPatch) (*models.ProductSettings, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.Store.UpdateSettings(ctx, id, patch)
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestSettingsState_UpdateThenFetch(t *testing.T) {
	ctx := context.Background()
	state := services.NewSettingsState(memory.New())

	before, err := state.Fetch(ctx)
	require.NoError(t, err)

	patch := models.SettingsPatch{
		Title: strPtr("Limited Sneaker"),
		Price: decPtr("100"),
	}
	_, err = state.Update(ctx, patch)
	require.NoError(t, err)

	after, err := state.Fetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Limited Sneaker", after.Title)
	assert.True(t, after.Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Description, after.Description)
	assert.True(t, before.Discount.Equal(after.Discount))
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.AdditionalImages, after.AdditionalImages)
}

func TestSettingsState_FetchTwiceIsIdentical(t *testing.T) {
	ctx := context.Background()
	state := services.NewSettingsState(memory.New())

	first, err := state.Fetch(ctx)
	require.NoError(t, err)
	second, err := state.Fetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSettingsState_FetchFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	repo := &flakySettings{Store: memory.New()}
	state := services.NewSettingsState(repo)

	loaded, err := state.Fetch(ctx)
	require.NoError(t, err)

	repo.getErr = errors.New("connection refused")
	_, err = state.Fetch(ctx)
	require.Error(t, err)

	assert.Equal(t, loaded, state.Current())
	assert.ErrorContains(t, state.Err(), "connection refused")
	assert.False(t, state.Loading())
}

func TestSettingsState_UpdateFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	repo := &flakySettings{Store: memory.New()}
	state := services.NewSettingsState(repo)

	loaded, err := state.Fetch(ctx)
	require.NoError(t, err)

	repo.updateErr = errors.New("permission denied")
	_, err = state.Update(ctx, models.SettingsPatch{Title: strPtr("New")})
	require.Error(t, err)

	assert.Equal(t, loaded.Title, state.Current().Title)
	assert.ErrorContains(t, state.Err(), "permission denied")
}

func TestSettingsState_UpdateRejectsInvalidPatch(t *testing.T) {
	state := services.NewSettingsState(memory.New())

	_, err := state.Update(context.Background(), models.SettingsPatch{Price: decPtr("-1")})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSettingsState_OnChangeAndInvalidate(t *testing.T) {
	ctx := context.Background()
	state := services.NewSettingsState(memory.New())

	var seen []string
	state.OnChange(func(s models.ProductSettings) { seen = append(seen, s.Title) })

	_, err := state.Update(ctx, models.SettingsPatch{Title: strPtr("Drop #1")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Drop #1"}, seen)

	state.Invalidate()
	assert.Nil(t, state.Current())

	got, err := state.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Drop #1", got.Title)
}

func TestSettingsState_ToggleQuickDiscount(t *testing.T) {
	ctx := context.Background()
	state := services.NewSettingsState(memory.New())

	_, err := state.Update(ctx, models.SettingsPatch{Price: decPtr("49.99")})
	require.NoError(t, err)

	on, err := state.ToggleQuickDiscount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5.00", on.Discount.StringFixed(2))

	off, err := state.ToggleQuickDiscount(ctx)
	require.NoError(t, err)
	assert.True(t, off.Discount.IsZero())
}

func TestSettingsState_GetRefetchesAfterMaxAge(t *testing.T) {
	ctx := context.Background()
	repo := &flakySettings{Store: memory.New()}
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	// Two instances sharing one database.
	admin := services.NewSettingsState(repo)
	shop := services.NewSettingsState(repo)
	shop.SetMaxAge(30 * time.Second)
	shop.SetClock(func() time.Time { return now })

	_, err := shop.Get(ctx)
	require.NoError(t, err)

	_, err = admin.Update(ctx, models.SettingsPatch{Price: decPtr("120")})
	require.NoError(t, err)

	now = now.Add(10 * time.Second)
	cached, err := shop.Get(ctx)
	require.NoError(t, err)
	assert.False(t, cached.Price.Equal(decimal.NewFromInt(120)))

	now = now.Add(30 * time.Second)
	refreshed, err := shop.Get(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed.Price.Equal(decimal.NewFromInt(120)))

	// An unreachable repository serves the last copy and records the error.
	repo.getErr = errors.New("connection refused")
	now = now.Add(time.Minute)
	stale, err := shop.Get(ctx)
	require.NoError(t, err)
	assert.True(t, stale.Price.Equal(decimal.NewFromInt(120)))
	assert.ErrorContains(t, shop.Err(), "connection refused")
}
